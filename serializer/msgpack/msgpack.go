// Package msgpack provides a MessagePack serializer for pattern records.
//
// MessagePack produces smaller payloads than JSON while keeping the same
// document model, which suits stores holding many snapshot records.
//
// Basic usage:
//
//	repo := pattern.NewRepository(store, pattern.WithSerializer(msgpack.NewSerializer()))
//
// Integers inside snapshots and event arguments decode as int64 or uint64 and
// floats as float64; use pattern.Convert to read them back as narrower types.
package msgpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/AshkanYarmoradi/go-pattern"
)

// Serializer is a MessagePack implementation of pattern.Serializer.
type Serializer struct {
	compactInts   bool
	sortedMapKeys bool
}

var _ pattern.Serializer = (*Serializer)(nil)

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithCompactInts encodes integers in the smallest representation that fits.
func WithCompactInts(enabled bool) SerializerOption {
	return func(s *Serializer) {
		s.compactInts = enabled
	}
}

// WithSortedMapKeys makes encoding deterministic by sorting map keys.
func WithSortedMapKeys(enabled bool) SerializerOption {
	return func(s *Serializer) {
		s.sortedMapKeys = enabled
	}
}

// NewSerializer creates a new MessagePack Serializer.
func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{compactInts: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize converts a record to MessagePack bytes.
func (s *Serializer) Serialize(record pattern.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(s.compactInts)
	enc.SetSortMapKeys(s.sortedMapKeys)

	if err := enc.Encode(record); err != nil {
		return nil, pattern.NewSerializationError("serialize", fmt.Errorf("msgpack: %w", err))
	}
	return buf.Bytes(), nil
}

// Deserialize converts MessagePack bytes back to a record.
func (s *Serializer) Deserialize(data []byte) (pattern.Record, error) {
	if len(data) == 0 {
		return pattern.Record{}, pattern.NewSerializationError("deserialize", fmt.Errorf("msgpack: data cannot be empty"))
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var record pattern.Record
	if err := dec.Decode(&record); err != nil {
		return pattern.Record{}, pattern.NewSerializationError("deserialize", fmt.Errorf("msgpack: %w", err))
	}
	if record.Snapshot == nil {
		record.Snapshot = pattern.Document{}
	}
	if record.Events == nil {
		record.Events = []pattern.Event{}
	}
	return record, nil
}
