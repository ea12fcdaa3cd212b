package pattern

import (
	"errors"
	"testing"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("jump", "operation not found")

	assert.Contains(t, err.Error(), `"jump"`)
	assert.Contains(t, err.Error(), "operation not found")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrUndo))
	assert.Equal(t, ErrConfiguration, errors.Unwrap(err))
}

func TestUndoError(t *testing.T) {
	err := NewUndoError("incr")

	assert.Contains(t, err.Error(), `"incr"`)
	assert.True(t, errors.Is(err, ErrUndo))
	assert.Equal(t, ErrUndo, errors.Unwrap(err))
}

func TestReplayError(t *testing.T) {
	t.Run("missing operation", func(t *testing.T) {
		err := NewReplayError("bogus", 3, nil)

		assert.Equal(t, "pattern: replay of event 3 failed: bogus method not found", err.Error())
		assert.True(t, errors.Is(err, ErrReplay))
		assert.Equal(t, ErrReplay, errors.Unwrap(err))
	})

	t.Run("operation failure", func(t *testing.T) {
		err := NewReplayError("reject", 4, errBoom)

		assert.Contains(t, err.Error(), "boom")
		assert.True(t, errors.Is(err, ErrReplay))
		assert.True(t, errors.Is(err, errBoom))

		var replayErr *ReplayError
		require.True(t, errors.As(err, &replayErr))
		assert.Equal(t, int64(4), replayErr.Version)
	})
}

func TestMutatorAccessorErrors(t *testing.T) {
	mutErr := NewMutatorError("Person", "firstname")
	assert.Contains(t, mutErr.Error(), "mutator")
	assert.True(t, errors.Is(mutErr, ErrMutator))
	assert.False(t, errors.Is(mutErr, ErrAccessor))

	accErr := NewAccessorError("Person", "firstname")
	assert.Contains(t, accErr.Error(), "accessor")
	assert.True(t, errors.Is(accErr, ErrAccessor))
	assert.Equal(t, ErrAccessor, errors.Unwrap(accErr))
}

func TestPanicError(t *testing.T) {
	err := NewPanicError("explode", "kaboom", "stack")

	assert.Contains(t, err.Error(), "kaboom")
	assert.True(t, errors.Is(err, ErrPanicked))
	assert.Equal(t, "stack", err.Stack)
}

func TestValidationError(t *testing.T) {
	cause := errors.New("firstname: type mismatch")
	err := NewValidationError("Person", cause)

	assert.Contains(t, err.Error(), "Person")
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.True(t, errors.Is(err, cause))
}

func TestSerializationError(t *testing.T) {
	err := NewSerializationError("serialize", errBoom)

	assert.Contains(t, err.Error(), "failed to serialize record")
	assert.True(t, errors.Is(err, ErrSerializationFailed))
	assert.True(t, errors.Is(err, errBoom))
}

func TestEventGapError(t *testing.T) {
	err := NewEventGapError(3, 5)

	assert.Equal(t, "pattern: event sequence gap: expected 3 got 5", err.Error())
	assert.True(t, errors.Is(err, ErrEventGap))
}

func TestAdapterErrorAliases(t *testing.T) {
	assert.True(t, errors.Is(adapters.NewNotFoundError("id", 0), ErrSnapshotNotFound))
	assert.True(t, errors.Is(adapters.NewConflictError("id", 1, 2), ErrVersionConflict))
}
