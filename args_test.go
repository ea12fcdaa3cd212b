package pattern

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Clone(t *testing.T) {
	t.Run("deep copies nested values", func(t *testing.T) {
		nested := map[string]any{"city": "Paris"}
		args := Args{"x", nested}

		clone := args.Clone()
		nested["city"] = "Lyon"

		assert.Equal(t, "Paris", clone[1].(map[string]any)["city"])
	})

	t.Run("keeps values with unexported state", func(t *testing.T) {
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		args := Args{big.NewInt(42), money{cents: 1999, currency: "EUR"}, at}

		clone := args.Clone()

		assert.Equal(t, int64(42), clone[0].(*big.Int).Int64())
		assert.Equal(t, money{cents: 1999, currency: "EUR"}, clone[1])
		assert.True(t, at.Equal(clone[2].(time.Time)))
	})

	t.Run("copies typed maps slices and arrays", func(t *testing.T) {
		counts := map[string]int{"a": 1}
		tags := []string{"x"}
		pair := [2]any{Document{"k": 1}, nil}
		args := Args{counts, tags, pair}

		clone := args.Clone()
		counts["a"] = 2
		tags[0] = "y"
		pair[0].(Document)["k"] = 2

		assert.Equal(t, map[string]int{"a": 1}, clone[0])
		assert.Equal(t, []string{"x"}, clone[1])
		assert.Equal(t, [2]any{Document{"k": 1}, nil}, clone[2])
	})

	t.Run("nil becomes empty", func(t *testing.T) {
		var args Args
		clone := args.Clone()
		assert.NotNil(t, clone)
		assert.Equal(t, 0, clone.Len())
	})
}

func TestArg(t *testing.T) {
	t.Run("direct type", func(t *testing.T) {
		v, err := Arg[string](Args{"alice"}, 0)
		require.NoError(t, err)
		assert.Equal(t, "alice", v)
	})

	t.Run("float to int", func(t *testing.T) {
		v, err := Arg[int](Args{float64(3)}, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("map to struct", func(t *testing.T) {
		type address struct {
			City string `json:"city"`
		}
		v, err := Arg[address](Args{map[string]any{"city": "Paris"}}, 0)
		require.NoError(t, err)
		assert.Equal(t, "Paris", v.City)
	})

	t.Run("nil gives zero value", func(t *testing.T) {
		v, err := Arg[int](Args{nil}, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := Arg[int](Args{}, 0)
		assert.Error(t, err)
		_, err = Arg[int](Args{1}, -1)
		assert.Error(t, err)
	})

	t.Run("incompatible type", func(t *testing.T) {
		_, err := Arg[int](Args{"three"}, 0)
		assert.Error(t, err)
	})
}
