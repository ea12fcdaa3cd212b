package pattern

import (
	"encoding/json"
	"fmt"
)

// Args is the ordered argument list carried by commands and events.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Clone copies the arguments so later changes to the caller's maps and
// slices cannot leak into a recorded event. Other values are shared.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	return cloneValue(a).(Args)
}

// Arg converts the i-th argument to T.
//
// Values that went through a serializer rarely keep their Go type (numbers
// come back as float64, structs as maps), so a direct type assertion is tried
// first and a JSON round trip is used as the fallback.
func Arg[T any](args Args, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, fmt.Errorf("pattern: argument %d out of range (have %d)", i, len(args))
	}
	return Convert[T](args[i])
}

// Convert coerces v to T, falling back to a JSON round trip.
func Convert[T any](v any) (T, error) {
	var out T
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	if v == nil {
		return out, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("pattern: failed to convert %T: %w", v, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("pattern: failed to convert %T to %T: %w", v, out, err)
	}
	return out, nil
}
