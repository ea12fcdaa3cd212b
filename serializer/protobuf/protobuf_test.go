package protobuf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AshkanYarmoradi/go-pattern"
)

func sampleRecord() pattern.Record {
	ts := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	return pattern.Record{
		Version:  2,
		Identity: "id-1",
		Type:     "point",
		Snapshot: pattern.Document{"x": 2.0, "tags": []interface{}{"a"}},
		Events: []pattern.Event{
			{Operation: "incrementX", Args: pattern.Args{}, Timestamp: ts, Version: 1},
			{Operation: "moveTo", Args: pattern.Args{2.0, 3.0}, Timestamp: ts, Version: 2},
		},
		Patch: pattern.Patch{{Op: pattern.PatchReplace, Path: "/x", Value: 2.0}},
	}
}

func TestSerializer_RoundTrip(t *testing.T) {
	s := NewSerializer()
	record := sampleRecord()

	data, err := s.Serialize(record)
	require.NoError(t, err)

	decoded, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestSerializer_WireFormat(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleRecord())
	require.NoError(t, err)

	msg := &structpb.Struct{}
	require.NoError(t, proto.Unmarshal(data, msg))

	assert.Equal(t, "id-1", msg.Fields["identity"].GetStringValue())
	assert.Equal(t, 2.0, msg.Fields["version"].GetNumberValue())
	assert.Len(t, msg.Fields["events"].GetListValue().GetValues(), 2)
}

func TestSerializer_Deterministic(t *testing.T) {
	s := NewSerializer(WithDeterministic(true), WithDiscardUnknown(true))

	first, err := s.Serialize(sampleRecord())
	require.NoError(t, err)
	second, err := s.Serialize(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSerializer_Errors(t *testing.T) {
	s := NewSerializer()

	t.Run("empty data", func(t *testing.T) {
		_, err := s.Deserialize(nil)
		assert.ErrorIs(t, err, pattern.ErrSerializationFailed)
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("corrupt data", func(t *testing.T) {
		_, err := s.Deserialize([]byte{0xff, 0xff, 0xff})
		assert.ErrorIs(t, err, pattern.ErrSerializationFailed)
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := s.Serialize(pattern.Record{Snapshot: pattern.Document{"ch": make(chan int)}})
		assert.ErrorIs(t, err, pattern.ErrSerializationFailed)
	})
}

func TestStructConversion(t *testing.T) {
	msg, err := ToStruct(sampleRecord())
	require.NoError(t, err)

	record, err := FromStruct(msg)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), record)

	empty, err := FromStruct(&structpb.Struct{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Snapshot)
	assert.NotNil(t, empty.Events)
}
