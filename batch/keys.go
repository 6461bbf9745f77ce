/*
	Package batch defines the data model negotiated between pipeline stages: stream keys,
	per-stream specs, spec collections used as provider declarations and as requests, and
	the realized payloads that travel back downstream.
*/
package batch

import "fmt"

// KeyKind is the family of a stream key.  The family is fixed when the key is created
// and selects which spec and payload types pair with the key.
type KeyKind uint8

const (
	// InvalidKind is the zero KeyKind and is rejected wherever kinds are dispatched.
	InvalidKind KeyKind = iota

	// ArrayKind streams carry dense, voxel-sampled arrays.
	ArrayKind

	// GraphKind streams carry sparse vertices and edges.
	GraphKind
)

func (k KeyKind) String() string {
	switch k {
	case ArrayKind:
		return "array"
	case GraphKind:
		return "graph"
	default:
		return "invalid"
	}
}

// ParseKeyKind returns the kind for "array" or "graph".
func ParseKeyKind(s string) (KeyKind, error) {
	switch s {
	case "array":
		return ArrayKind, nil
	case "graph":
		return GraphKind, nil
	default:
		return InvalidKind, fmt.Errorf("unknown key kind %q", s)
	}
}

// Key identifies a stream.  Keys are comparable values: two keys are the same stream
// if they have the same kind and name, so an array key and a graph key with the same
// name are distinct.
type Key struct {
	kind KeyKind
	name string
}

// NewArrayKey returns the key of a dense array stream.
func NewArrayKey(name string) Key {
	return Key{kind: ArrayKind, name: name}
}

// NewGraphKey returns the key of a sparse graph stream.
func NewGraphKey(name string) Key {
	return Key{kind: GraphKind, name: name}
}

// NewKey returns a key of the given kind.
func NewKey(kind KeyKind, name string) (Key, error) {
	switch kind {
	case ArrayKind, GraphKind:
		return Key{kind: kind, name: name}, nil
	default:
		return Key{}, fmt.Errorf("cannot create key %q of kind %s", name, kind)
	}
}

func (k Key) Kind() KeyKind {
	return k.kind
}

func (k Key) Name() string {
	return k.name
}

// Valid returns true for array and graph keys.
func (k Key) Valid() bool {
	return k.kind == ArrayKind || k.kind == GraphKind
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.kind, k.name)
}
