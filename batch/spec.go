package batch

import (
	"fmt"

	"github.com/janelia-flyem/voxpipe/vox"
)

// Spec describes one stream: where it lives and how its elements look.  Exactly two
// types implement Spec, ArraySpec and GraphSpec, and both are held by value so a
// spec stored in a collection is never shared with another collection.
type Spec interface {
	// Kind returns the key family this spec pairs with.
	Kind() KeyKind

	// GetRoi returns the region of the stream, possibly undefined.
	GetRoi() vox.Roi

	// WithRoi returns a copy of the spec with a new region.
	WithRoi(vox.Roi) Spec

	// IsNonspatial returns true if the region carries no positional meaning.
	IsNonspatial() bool

	// GetDataType returns the element type, possibly T_unknown.
	GetDataType() vox.DataType

	// Copy returns a deep copy of the spec.
	Copy() Spec

	// Equals returns true if the other spec has the same kind and fields.
	Equals(Spec) bool

	String() string

	sealed()
}

// ArraySpec describes a dense array stream.
type ArraySpec struct {
	Roi vox.Roi

	// VoxelSize is the world size of one array element in each dimension.  It is
	// required for spatial arrays with a defined region.
	VoxelSize vox.Point

	DataType vox.DataType

	// Interpolatable is true if values may be interpolated, e.g., intensities
	// but not labels.
	Interpolatable bool

	Nonspatial bool
}

func (s ArraySpec) Kind() KeyKind             { return ArrayKind }
func (s ArraySpec) GetRoi() vox.Roi           { return s.Roi }
func (s ArraySpec) IsNonspatial() bool        { return s.Nonspatial }
func (s ArraySpec) GetDataType() vox.DataType { return s.DataType }
func (s ArraySpec) sealed()                   {}

func (s ArraySpec) WithRoi(roi vox.Roi) Spec {
	dup := s.CopyArraySpec()
	dup.Roi = roi
	return dup
}

func (s ArraySpec) Copy() Spec {
	return s.CopyArraySpec()
}

// CopyArraySpec is like Copy but keeps the concrete type.
func (s ArraySpec) CopyArraySpec() ArraySpec {
	dup := s
	if s.VoxelSize != nil {
		dup.VoxelSize = s.VoxelSize.Duplicate()
	}
	return dup
}

func (s ArraySpec) Equals(other Spec) bool {
	o, ok := other.(ArraySpec)
	if !ok {
		return false
	}
	return s.Roi.Equals(o.Roi) && vox.PointEquals(s.VoxelSize, o.VoxelSize) &&
		s.DataType == o.DataType && s.Interpolatable == o.Interpolatable &&
		s.Nonspatial == o.Nonspatial
}

// Validate checks that a spatial array with a defined region has a positive voxel
// size of matching dimensionality that evenly divides the region.
func (s ArraySpec) Validate() error {
	if s.Nonspatial || !s.Roi.Defined() {
		return nil
	}
	if s.VoxelSize == nil {
		return fmt.Errorf("%w: spatial array spec with %s has no voxel size", vox.ErrInvalidSpec, s.Roi)
	}
	if s.VoxelSize.NumDims() != s.Roi.NumDims() {
		return fmt.Errorf("%w: voxel size %s for %d-d %s", vox.ErrDimensionMismatch, s.VoxelSize, s.Roi.NumDims(), s.Roi)
	}
	offset := s.Roi.Offset()
	shape := s.Roi.Shape()
	for dim := uint8(0); dim < s.VoxelSize.NumDims(); dim++ {
		vs := s.VoxelSize.Value(dim)
		if vs <= 0 {
			return fmt.Errorf("%w: voxel size %s must be positive", vox.ErrInvalidSpec, s.VoxelSize)
		}
		if offset.Value(dim)%vs != 0 || shape.Value(dim)%vs != 0 {
			return fmt.Errorf("%w: %s is not a multiple of voxel size %s", vox.ErrInvalidSpec, s.Roi, s.VoxelSize)
		}
	}
	return nil
}

func (s ArraySpec) String() string {
	str := fmt.Sprintf("ArraySpec(roi=%s, voxel_size=%v, dtype=%s", s.Roi, s.VoxelSize, s.DataType)
	if s.Interpolatable {
		str += ", interpolatable"
	}
	if s.Nonspatial {
		str += ", nonspatial"
	}
	return str + ")"
}

// GraphSpec describes a sparse graph stream whose vertex locations are in world units.
type GraphSpec struct {
	Roi vox.Roi

	// DataType is the type of vertex locations.
	DataType vox.DataType

	Directed bool

	Nonspatial bool
}

func (s GraphSpec) Kind() KeyKind             { return GraphKind }
func (s GraphSpec) GetRoi() vox.Roi           { return s.Roi }
func (s GraphSpec) IsNonspatial() bool        { return s.Nonspatial }
func (s GraphSpec) GetDataType() vox.DataType { return s.DataType }
func (s GraphSpec) sealed()                   {}

func (s GraphSpec) WithRoi(roi vox.Roi) Spec {
	s.Roi = roi
	return s
}

func (s GraphSpec) Copy() Spec {
	return s
}

func (s GraphSpec) Equals(other Spec) bool {
	o, ok := other.(GraphSpec)
	if !ok {
		return false
	}
	return s.Roi.Equals(o.Roi) && s.DataType == o.DataType &&
		s.Directed == o.Directed && s.Nonspatial == o.Nonspatial
}

func (s GraphSpec) String() string {
	str := fmt.Sprintf("GraphSpec(roi=%s, dtype=%s", s.Roi, s.DataType)
	if s.Directed {
		str += ", directed"
	}
	if s.Nonspatial {
		str += ", nonspatial"
	}
	return str + ")"
}

// specVoxelSize returns the voxel size of array specs and nil otherwise.
func specVoxelSize(s Spec) vox.Point {
	if as, ok := s.(ArraySpec); ok {
		return as.VoxelSize
	}
	return nil
}
