package batch

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/voxpipe/vox"
)

var nextBatchID atomic.Uint64

// Batch holds the realized payloads for one request, keyed by stream.
type Batch struct {
	ID uint64

	keys   []Key
	arrays map[Key]*Array
	graphs map[Key]*Graph
}

// NewBatch returns an empty batch with a process-wide unique ID.
func NewBatch() *Batch {
	return &Batch{
		ID:     nextBatchID.Add(1),
		arrays: make(map[Key]*Array),
		graphs: make(map[Key]*Graph),
	}
}

func (b *Batch) track(key Key) {
	for _, k := range b.keys {
		if k == key {
			return
		}
	}
	b.keys = append(b.keys, key)
}

// SetArray stores the array under an array key.
func (b *Batch) SetArray(key Key, a *Array) error {
	if key.Kind() != ArrayKind {
		return fmt.Errorf("%w: cannot store an array under %s", vox.ErrUnsupportedKeyType, key)
	}
	if a == nil {
		return fmt.Errorf("%w: nil array for %s", vox.ErrInvalidSpec, key)
	}
	b.arrays[key] = a
	b.track(key)
	return nil
}

// SetGraph stores the graph under a graph key.
func (b *Batch) SetGraph(key Key, g *Graph) error {
	if key.Kind() != GraphKind {
		return fmt.Errorf("%w: cannot store a graph under %s", vox.ErrUnsupportedKeyType, key)
	}
	if g == nil {
		return fmt.Errorf("%w: nil graph for %s", vox.ErrInvalidSpec, key)
	}
	b.graphs[key] = g
	b.track(key)
	return nil
}

// Array returns the array stored under the key.
func (b *Batch) Array(key Key) (*Array, bool) {
	a, found := b.arrays[key]
	return a, found
}

// Graph returns the graph stored under the key.
func (b *Batch) Graph(key Key) (*Graph, bool) {
	g, found := b.graphs[key]
	return g, found
}

// Has returns true if a payload is stored under the key.
func (b *Batch) Has(key Key) bool {
	switch key.Kind() {
	case ArrayKind:
		_, found := b.arrays[key]
		return found
	case GraphKind:
		_, found := b.graphs[key]
		return found
	default:
		return false
	}
}

// PayloadSpec returns the spec of the payload stored under the key.
func (b *Batch) PayloadSpec(key Key) (Spec, bool) {
	if a, found := b.arrays[key]; found {
		return a.Spec.CopyArraySpec(), true
	}
	if g, found := b.graphs[key]; found {
		return g.Spec, true
	}
	return nil, false
}

// Delete removes any payload stored under the key.
func (b *Batch) Delete(key Key) {
	delete(b.arrays, key)
	delete(b.graphs, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys of all payloads in insertion order.
func (b *Batch) Keys() []Key {
	return append([]Key{}, b.keys...)
}

// Len returns the number of payloads.
func (b *Batch) Len() int {
	return len(b.keys)
}

// Crop returns a batch holding exactly the requested streams, each restricted to the
// requested region.  Payloads whose region already matches the request are moved
// rather than copied, so the receiver should not be used afterwards.  A missing
// stream, an uncovered region, or a payload whose voxel size or data type differs
// from a requested one fails with ErrRequestUnsatisfiable.
func (b *Batch) Crop(req *Request) (*Batch, error) {
	cropped := &Batch{
		ID:     b.ID,
		arrays: make(map[Key]*Array),
		graphs: make(map[Key]*Graph),
	}
	var err error
	req.Range(func(k Key, spec Spec) bool {
		have, found := b.PayloadSpec(k)
		if !found {
			err = fmt.Errorf("%w: batch %d has no %s", vox.ErrRequestUnsatisfiable, b.ID, k)
			return false
		}
		if err = checkPayload(k, spec, have); err != nil {
			return false
		}
		roi := spec.GetRoi()
		crop := !have.IsNonspatial() && roi.Defined() && !roi.Equals(have.GetRoi())
		switch k.Kind() {
		case ArrayKind:
			a := b.arrays[k]
			if crop {
				if a, err = a.Crop(roi); err != nil {
					err = fmt.Errorf("%s: %w", k, err)
					return false
				}
			}
			err = cropped.SetArray(k, a)
		case GraphKind:
			g := b.graphs[k]
			if crop {
				if g, err = g.Crop(roi); err != nil {
					err = fmt.Errorf("%s: %w", k, err)
					return false
				}
			}
			err = cropped.SetGraph(k, g)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return cropped, nil
}

func checkPayload(k Key, requested, got Spec) error {
	want, have := specVoxelSize(requested), specVoxelSize(got)
	if want != nil && have != nil && !vox.PointEquals(want, have) {
		return fmt.Errorf("%w: %s requested at voxel size %s but provided at %s",
			vox.ErrRequestUnsatisfiable, k, want, have)
	}
	if dt := requested.GetDataType(); dt.Known() && dt != got.GetDataType() {
		return fmt.Errorf("%w: %s requested as %s but provided as %s",
			vox.ErrRequestUnsatisfiable, k, dt, got.GetDataType())
	}
	return nil
}

// Merge returns a new batch with the payloads of both batches, preferring the other
// batch's payload when both hold the same key.  Payloads are shared, not copied.
func (b *Batch) Merge(other *Batch) *Batch {
	merged := &Batch{
		ID:     b.ID,
		arrays: make(map[Key]*Array),
		graphs: make(map[Key]*Graph),
	}
	for _, src := range []*Batch{b, other} {
		if src == nil {
			continue
		}
		for _, k := range src.keys {
			if a, found := src.arrays[k]; found {
				merged.arrays[k] = a
			}
			if g, found := src.graphs[k]; found {
				merged.graphs[k] = g
			}
			merged.track(k)
		}
	}
	return merged
}

// MemorySize returns the approximate number of bytes held by the batch.
func (b *Batch) MemorySize() int {
	return size.Of(b)
}

func (b *Batch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %d (%s):\n", b.ID, humanize.Bytes(uint64(b.MemorySize())))
	for _, k := range b.keys {
		if a, found := b.arrays[k]; found {
			fmt.Fprintf(&sb, "\t%s: %s\n", k, a)
		}
		if g, found := b.graphs[k]; found {
			fmt.Fprintf(&sb, "\t%s: %s\n", k, g)
		}
	}
	return sb.String()
}
