package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Candidate is an unvalidated record proposed by an upstream extraction step.
//
// It wraps an arbitrary JSON-like tree: map[string]any, []any, string,
// json.Number, float64, bool or nil. Nothing about its shape is guaranteed;
// every accessor is total and degrades to the empty candidate.
type Candidate struct {
	node any
}

// FromJSON decodes raw provider output into a Candidate.
// Input that is not valid JSON yields the empty candidate.
func FromJSON(data []byte) Candidate {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var node any
	if err := dec.Decode(&node); err != nil {
		return Candidate{}
	}
	return Candidate{node: node}
}

// FromValue wraps an in-memory value. JSON-like trees are used as they are;
// any other value (structs, typed maps, slices) is round-tripped through
// encoding/json so the candidate only ever holds JSON shapes.
func FromValue(v any) Candidate {
	switch t := v.(type) {
	case Candidate:
		return t
	case nil, string, bool, float64, json.Number, map[string]any, []any:
		return Candidate{node: t}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Candidate{}
	}
	return FromJSON(data)
}

// Field returns the member name of an object candidate, or the empty
// candidate if c is not an object or has no such member.
func (c Candidate) Field(name string) Candidate {
	obj, ok := c.node.(map[string]any)
	if !ok {
		return Candidate{}
	}
	return Candidate{node: obj[name]}
}

// IsObject reports whether the candidate is a JSON object.
func (c Candidate) IsObject() bool {
	_, ok := c.node.(map[string]any)
	return ok
}

// IsNull reports whether the candidate holds no value at all.
func (c Candidate) IsNull() bool {
	return c.node == nil
}

// Raw returns the wrapped tree.
func (c Candidate) Raw() any {
	return c.node
}

// Text coerces a leaf to a string. Numbers render in their shortest decimal
// form; booleans, null, objects and arrays become "".
func (c Candidate) Text() string {
	switch t := c.node.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case json.Number:
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
