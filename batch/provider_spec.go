package batch

import (
	"fmt"
	"strings"

	"github.com/janelia-flyem/voxpipe/vox"
)

// ProviderSpec is an ordered collection of specs, at most one per key.  Stages use it
// to declare what they provide; Request embeds it to say what is wanted.  Iteration
// follows insertion order.
type ProviderSpec struct {
	keys  []Key
	specs map[Key]Spec
}

// NewProviderSpec returns an empty collection.
func NewProviderSpec() *ProviderSpec {
	return &ProviderSpec{specs: make(map[Key]Spec)}
}

// Set stores a copy of the spec for the key, replacing any previous spec.
func (ps *ProviderSpec) Set(key Key, spec Spec) error {
	if !key.Valid() {
		return fmt.Errorf("%w: key %s", vox.ErrUnsupportedKeyType, key)
	}
	if spec == nil {
		return fmt.Errorf("%w: nil spec for key %s", vox.ErrInvalidSpec, key)
	}
	if spec.Kind() != key.Kind() {
		return fmt.Errorf("%w: %s spec for %s key %s", vox.ErrUnsupportedKeyType, spec.Kind(), key.Kind(), key)
	}
	if ps.specs == nil {
		ps.specs = make(map[Key]Spec)
	}
	if _, found := ps.specs[key]; !found {
		ps.keys = append(ps.keys, key)
	}
	ps.specs[key] = spec.Copy()
	return nil
}

// Get returns a copy of the spec for the key.
func (ps *ProviderSpec) Get(key Key) (Spec, bool) {
	spec, found := ps.specs[key]
	if !found {
		return nil, false
	}
	return spec.Copy(), true
}

// ArraySpec returns a copy of the array spec for the key.
func (ps *ProviderSpec) ArraySpec(key Key) (ArraySpec, bool) {
	spec, found := ps.specs[key]
	if !found {
		return ArraySpec{}, false
	}
	as, ok := spec.(ArraySpec)
	if !ok {
		return ArraySpec{}, false
	}
	return as.CopyArraySpec(), true
}

// GraphSpec returns the graph spec for the key.
func (ps *ProviderSpec) GraphSpec(key Key) (GraphSpec, bool) {
	spec, found := ps.specs[key]
	if !found {
		return GraphSpec{}, false
	}
	gs, ok := spec.(GraphSpec)
	return gs, ok
}

func (ps *ProviderSpec) Has(key Key) bool {
	_, found := ps.specs[key]
	return found
}

// Delete removes the key if present.
func (ps *ProviderSpec) Delete(key Key) {
	if _, found := ps.specs[key]; !found {
		return
	}
	delete(ps.specs, key)
	for i, k := range ps.keys {
		if k == key {
			ps.keys = append(ps.keys[:i:i], ps.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of specs.
func (ps *ProviderSpec) Len() int {
	return len(ps.keys)
}

// Keys returns all keys in insertion order.
func (ps *ProviderSpec) Keys() []Key {
	return append([]Key{}, ps.keys...)
}

// ArrayKeys returns the keys of array streams in insertion order.
func (ps *ProviderSpec) ArrayKeys() []Key {
	return ps.keysOfKind(ArrayKind)
}

// GraphKeys returns the keys of graph streams in insertion order.
func (ps *ProviderSpec) GraphKeys() []Key {
	return ps.keysOfKind(GraphKind)
}

func (ps *ProviderSpec) keysOfKind(kind KeyKind) []Key {
	var keys []Key
	for _, k := range ps.keys {
		if k.Kind() == kind {
			keys = append(keys, k)
		}
	}
	return keys
}

// Range calls f with a copy of every spec in insertion order until f returns false.
func (ps *ProviderSpec) Range(f func(Key, Spec) bool) {
	for _, k := range ps.keys {
		if !f(k, ps.specs[k].Copy()) {
			return
		}
	}
}

// spatialRois returns the defined regions of all spatial specs.
func (ps *ProviderSpec) spatialRois() []vox.Roi {
	var rois []vox.Roi
	for _, k := range ps.keys {
		spec := ps.specs[k]
		if spec.IsNonspatial() || !spec.GetRoi().Defined() {
			continue
		}
		rois = append(rois, spec.GetRoi())
	}
	return rois
}

// TotalRoi returns the union of the regions of all spatial specs, or the undefined
// region if there are none.
func (ps *ProviderSpec) TotalRoi() (vox.Roi, error) {
	var total vox.Roi
	for _, roi := range ps.spatialRois() {
		var err error
		if total, err = total.Union(roi); err != nil {
			return vox.Roi{}, err
		}
	}
	return total, nil
}

// CommonRoi returns the intersection of the regions of all spatial specs, or the
// undefined region if there are none.
func (ps *ProviderSpec) CommonRoi() (vox.Roi, error) {
	var common vox.Roi
	for _, roi := range ps.spatialRois() {
		var err error
		if common, err = common.Intersect(roi); err != nil {
			return vox.Roi{}, err
		}
	}
	return common, nil
}

// Copy returns a deep copy of the collection.
func (ps *ProviderSpec) Copy() *ProviderSpec {
	dup := &ProviderSpec{
		keys:  append([]Key{}, ps.keys...),
		specs: make(map[Key]Spec, len(ps.specs)),
	}
	for k, spec := range ps.specs {
		dup.specs[k] = spec.Copy()
	}
	return dup
}

// Equals returns true if both collections hold equal specs for the same keys,
// regardless of order.
func (ps *ProviderSpec) Equals(other *ProviderSpec) bool {
	if other == nil || len(ps.specs) != len(other.specs) {
		return false
	}
	for k, spec := range ps.specs {
		o, found := other.specs[k]
		if !found || !spec.Equals(o) {
			return false
		}
	}
	return true
}

func (ps *ProviderSpec) String() string {
	var b strings.Builder
	for _, k := range ps.keys {
		fmt.Fprintf(&b, "\t%s: %s\n", k, ps.specs[k])
	}
	return b.String()
}
