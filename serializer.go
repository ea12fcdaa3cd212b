package pattern

import (
	"encoding/json"
)

// Serializer converts records to and from bytes for storage.
type Serializer interface {
	// Serialize converts a record to bytes.
	Serialize(record Record) ([]byte, error)

	// Deserialize converts bytes back to a record.
	Deserialize(data []byte) (Record, error)
}

// JSONSerializer is the default Serializer.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSONSerializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Serialize converts a record to JSON.
func (s *JSONSerializer) Serialize(record Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, NewSerializationError("serialize", err)
	}
	return data, nil
}

// Deserialize converts JSON back to a record.
func (s *JSONSerializer) Deserialize(data []byte) (Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, NewSerializationError("deserialize", err)
	}
	if record.Snapshot == nil {
		record.Snapshot = Document{}
	}
	if record.Events == nil {
		record.Events = []Event{}
	}
	return record, nil
}
