package batch

import (
	"fmt"

	"github.com/janelia-flyem/voxpipe/vox"
)

// Request is a collection of specs describing what is wanted from a pipeline.
//
// Specs added with Add are kept centered: after every Add, the regions of all spatial
// specs share the center of the request's total region.  This lets a consumer ask for
// differently sized regions of several streams around one sample location without any
// coordinate bookkeeping.  Set and Merge place regions exactly as given; call
// CenterRois to re-establish centering afterwards.
type Request struct {
	ProviderSpec
}

// NewRequest returns an empty request.
func NewRequest() *Request {
	return &Request{ProviderSpec: ProviderSpec{specs: make(map[Key]Spec)}}
}

// Add stores a spec for the key whose region has a zero offset and the given shape in
// world units, then re-centers all spatial regions.  Array keys get an ArraySpec with
// any given voxel size and graph keys get a GraphSpec.  On error the request is left
// unchanged.
func (r *Request) Add(key Key, shape, voxelSize vox.Point) error {
	if shape == nil {
		return fmt.Errorf("%w: no shape given for key %s", vox.ErrInvalidSpec, key)
	}
	roi, err := vox.NewRoi(vox.ZeroPoint(shape.NumDims()), shape)
	if err != nil {
		return err
	}
	var spec Spec
	switch key.Kind() {
	case ArrayKind:
		as := ArraySpec{Roi: roi}
		if voxelSize != nil {
			if voxelSize.NumDims() != shape.NumDims() {
				return fmt.Errorf("%w: voxel size %s for shape %s", vox.ErrDimensionMismatch, voxelSize, shape)
			}
			as.VoxelSize = voxelSize.Duplicate()
		}
		spec = as
	case GraphKind:
		spec = GraphSpec{Roi: roi}
	default:
		return fmt.Errorf("%w: only array or graph keys can be added, got %s", vox.ErrUnsupportedKeyType, key)
	}

	updated := r.ProviderSpec.Copy()
	if err := updated.Set(key, spec); err != nil {
		return err
	}
	if err := centerRois(updated); err != nil {
		return err
	}
	r.ProviderSpec = *updated
	return nil
}

// CenterRois shifts every spatial region so its center coincides with the center of
// the total region.  On error the request is left unchanged.
func (r *Request) CenterRois() error {
	updated := r.ProviderSpec.Copy()
	if err := centerRois(updated); err != nil {
		return err
	}
	r.ProviderSpec = *updated
	return nil
}

func centerRois(ps *ProviderSpec) error {
	total, err := ps.TotalRoi()
	if err != nil {
		return err
	}
	if !total.Defined() {
		return nil
	}
	for _, k := range ps.keys {
		spec := ps.specs[k]
		if spec.IsNonspatial() || !spec.GetRoi().Defined() {
			continue
		}
		centered, err := spec.GetRoi().CenteredOn(total)
		if err != nil {
			return fmt.Errorf("cannot center %s: %w", k, err)
		}
		ps.specs[k] = spec.WithRoi(centered)
	}
	return nil
}

// Copy returns a fully independent copy of the request.
func (r *Request) Copy() *Request {
	return &Request{ProviderSpec: *r.ProviderSpec.Copy()}
}

// Merge returns a new request combining the receiver with another.  Keys only in the
// other request are copied in.  A nonspatial array spec in the receiver is replaced
// by the incoming spec.  Otherwise the regions are unioned and the receiver's other
// fields are kept, which must agree with the incoming ones wherever both are set.
// Neither input is modified and the result is not re-centered.
func (r *Request) Merge(other *Request) (*Request, error) {
	merged := r.Copy()
	if other == nil {
		return merged, nil
	}
	for _, k := range other.keys {
		incoming := other.specs[k]
		existing, found := merged.specs[k]
		if !found {
			if err := merged.Set(k, incoming); err != nil {
				return nil, err
			}
			continue
		}
		if err := checkCompatible(k, existing, incoming); err != nil {
			return nil, err
		}
		if existing.Kind() == ArrayKind && existing.IsNonspatial() {
			merged.specs[k] = incoming.Copy()
			continue
		}
		roi, err := existing.GetRoi().Union(incoming.GetRoi())
		if err != nil {
			return nil, fmt.Errorf("cannot merge %s: %w", k, err)
		}
		merged.specs[k] = existing.WithRoi(roi)
	}
	return merged, nil
}

// checkCompatible verifies that two specs for the same key agree on every non-region
// field that both of them set.
func checkCompatible(k Key, existing, incoming Spec) error {
	et, it := existing.GetDataType(), incoming.GetDataType()
	if et.Known() && it.Known() && et != it {
		return fmt.Errorf("%w: %s requested as %s and %s", vox.ErrConflictingSpec, k, et, it)
	}
	if existing.Kind() == ArrayKind && existing.IsNonspatial() {
		return nil
	}
	ev, iv := specVoxelSize(existing), specVoxelSize(incoming)
	if ev != nil && iv != nil && !vox.PointEquals(ev, iv) {
		return fmt.Errorf("%w: %s requested with voxel sizes %s and %s", vox.ErrConflictingSpec, k, ev, iv)
	}
	return nil
}

// Equals returns true if both requests hold equal specs.
func (r *Request) Equals(other *Request) bool {
	if other == nil {
		return false
	}
	return r.ProviderSpec.Equals(&other.ProviderSpec)
}

func (r *Request) String() string {
	return "Request:\n" + r.ProviderSpec.String()
}
