// Package protobuf provides a Protocol Buffers serializer for pattern records.
//
// Records are schemaless documents, so they are carried as a
// google.protobuf.Struct. The wire format is standard protobuf and can be
// decoded by any client that knows the well-known Struct type.
//
// Usage:
//
//	s := protobuf.NewSerializer(protobuf.WithDeterministic(true))
//	repo := pattern.NewRepository(store, pattern.WithSerializer(s))
//
// Numbers inside snapshots and event arguments decode as float64, exactly as
// with the JSON serializer.
package protobuf

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AshkanYarmoradi/go-pattern"
)

var (
	// ErrEmptyData indicates an attempt to deserialize empty data.
	ErrEmptyData = errors.New("pattern/protobuf: cannot deserialize empty data")
)

// Serializer is a Protocol Buffers implementation of pattern.Serializer.
type Serializer struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

var _ pattern.Serializer = (*Serializer)(nil)

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithDeterministic enables deterministic map ordering on the wire.
func WithDeterministic(enabled bool) SerializerOption {
	return func(s *Serializer) {
		s.marshal.Deterministic = enabled
	}
}

// WithDiscardUnknown drops unknown fields when decoding.
func WithDiscardUnknown(enabled bool) SerializerOption {
	return func(s *Serializer) {
		s.unmarshal.DiscardUnknown = enabled
	}
}

// NewSerializer creates a new Protocol Buffers Serializer.
func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToStruct converts a record to a google.protobuf.Struct.
func ToStruct(record pattern.Record) (*structpb.Struct, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// FromStruct converts a google.protobuf.Struct back to a record.
func FromStruct(msg *structpb.Struct) (pattern.Record, error) {
	raw, err := json.Marshal(msg.AsMap())
	if err != nil {
		return pattern.Record{}, err
	}
	var record pattern.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return pattern.Record{}, err
	}
	if record.Snapshot == nil {
		record.Snapshot = pattern.Document{}
	}
	if record.Events == nil {
		record.Events = []pattern.Event{}
	}
	return record, nil
}

// Serialize converts a record to protobuf bytes.
func (s *Serializer) Serialize(record pattern.Record) ([]byte, error) {
	msg, err := ToStruct(record)
	if err != nil {
		return nil, pattern.NewSerializationError("serialize", fmt.Errorf("protobuf: %w", err))
	}
	data, err := s.marshal.Marshal(msg)
	if err != nil {
		return nil, pattern.NewSerializationError("serialize", fmt.Errorf("protobuf: %w", err))
	}
	return data, nil
}

// Deserialize converts protobuf bytes back to a record.
func (s *Serializer) Deserialize(data []byte) (pattern.Record, error) {
	if len(data) == 0 {
		return pattern.Record{}, pattern.NewSerializationError("deserialize", ErrEmptyData)
	}

	msg := &structpb.Struct{}
	if err := s.unmarshal.Unmarshal(data, msg); err != nil {
		return pattern.Record{}, pattern.NewSerializationError("deserialize", fmt.Errorf("protobuf: %w", err))
	}
	record, err := FromStruct(msg)
	if err != nil {
		return pattern.Record{}, pattern.NewSerializationError("deserialize", fmt.Errorf("protobuf: %w", err))
	}
	return record, nil
}
