package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NodeKind is the coarse runtime shape of a value in a decoded response
type NodeKind int

const (
	KindAbsent NodeKind = iota
	KindNull
	KindScalar
	KindObject
	KindArray
)

func (k NodeKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Node is a read-only view over a decoded JSON value. Navigating to a key or
// index that does not exist yields an absent node rather than an error, so
// shape checks can be chained freely.
type Node struct {
	value   interface{}
	present bool
}

// NewNode wraps a value produced by encoding/json (maps, slices, scalars)
func NewNode(v interface{}) Node {
	return Node{value: v, present: true}
}

// ParseNode decodes exactly one JSON value. Numbers are kept as json.Number.
func ParseNode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return Node{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Node{}, fmt.Errorf("invalid JSON: unexpected data after top-level value")
	}
	return NewNode(v), nil
}

// Kind reports the shape of the node
func (n Node) Kind() NodeKind {
	if !n.present {
		return KindAbsent
	}
	switch n.value.(type) {
	case nil:
		return KindNull
	case map[string]interface{}:
		return KindObject
	case []interface{}:
		return KindArray
	default:
		return KindScalar
	}
}

// Get returns the value under key, or an absent node when n is not an object
// or has no such key
func (n Node) Get(key string) Node {
	obj, ok := n.value.(map[string]interface{})
	if !ok {
		return Node{}
	}
	v, exists := obj[key]
	if !exists {
		return Node{}
	}
	return NewNode(v)
}

// Index returns the i-th element, or an absent node when out of range or not an array
func (n Node) Index(i int) Node {
	arr, ok := n.value.([]interface{})
	if !ok || i < 0 || i >= len(arr) {
		return Node{}
	}
	return NewNode(arr[i])
}

// Len is the number of elements of an array or keys of an object
func (n Node) Len() int {
	switch v := n.value.(type) {
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		return len(v)
	default:
		return 0
	}
}

// Text returns a usable display string for a scalar: non-blank strings
// (trimmed) and numbers. Booleans, blanks and non-scalars report false.
func (n Node) Text() (string, bool) {
	switch v := n.value.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Number returns the numeric value of a number scalar
func (n Node) Number() (float64, bool) {
	switch v := n.value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	default:
		return 0, false
	}
}
