/*
	This file defines axis-aligned regions of interest and their algebra.
*/

package vox

import "fmt"

// Roi is an axis-aligned box given by an offset and a shape of equal dimensionality.
// Regions are half-open: a region covers [offset, offset+shape) in every dimension,
// so End() is exclusive.
//
// Roi is immutable; every operation returns a new Roi.  The zero value is the
// undefined region, which binary operations treat as absent: the union or
// intersection of an undefined region with X is X.
type Roi struct {
	offset Point
	shape  Point
}

// NewRoi returns a region with the given offset and shape.  Both points are copied.
func NewRoi(offset, shape Point) (Roi, error) {
	if offset == nil || shape == nil {
		return Roi{}, fmt.Errorf("%w: ROI needs both offset and shape", ErrInvalidSpec)
	}
	if offset.NumDims() != shape.NumDims() {
		return Roi{}, fmt.Errorf("%w: ROI offset %s and shape %s", ErrDimensionMismatch, offset, shape)
	}
	for dim := uint8(0); dim < shape.NumDims(); dim++ {
		if shape.Value(dim) < 0 {
			return Roi{}, fmt.Errorf("%w: ROI shape %s has negative extent", ErrInvalidSpec, shape)
		}
	}
	return Roi{offset: offset.Duplicate(), shape: shape.Duplicate()}, nil
}

// NewRoiFromEnds returns the region spanning [begin, end).
func NewRoiFromEnds(begin, end Point) (Roi, error) {
	if begin == nil || end == nil {
		return Roi{}, fmt.Errorf("%w: ROI needs both begin and end", ErrInvalidSpec)
	}
	if begin.NumDims() != end.NumDims() {
		return Roi{}, fmt.Errorf("%w: ROI begin %s and end %s", ErrDimensionMismatch, begin, end)
	}
	return NewRoi(begin, end.Sub(begin))
}

// Defined returns false for the zero Roi.
func (r Roi) Defined() bool {
	return r.offset != nil
}

// NumDims returns the dimensionality of the region, or 0 if undefined.
func (r Roi) NumDims() uint8 {
	if r.offset == nil {
		return 0
	}
	return r.offset.NumDims()
}

// Offset returns the first point covered by the region.
func (r Roi) Offset() Point {
	if r.offset == nil {
		return nil
	}
	return r.offset.Duplicate()
}

// Shape returns the extent in each dimension.
func (r Roi) Shape() Point {
	if r.shape == nil {
		return nil
	}
	return r.shape.Duplicate()
}

// End returns the exclusive upper corner, offset + shape.
func (r Roi) End() Point {
	if r.offset == nil {
		return nil
	}
	return r.offset.Add(r.shape)
}

// Empty returns true if the region covers no points.
func (r Roi) Empty() bool {
	if r.shape == nil {
		return true
	}
	for dim := uint8(0); dim < r.shape.NumDims(); dim++ {
		if r.shape.Value(dim) == 0 {
			return true
		}
	}
	return false
}

// NumVoxels returns the number of unit cells within the region.
func (r Roi) NumVoxels() int64 {
	if r.shape == nil {
		return 0
	}
	return r.shape.Prod()
}

// Center returns offset + shape/2, which need not be integral.
func (r Roi) Center() NdFloat64 {
	if r.offset == nil {
		return nil
	}
	center := make(NdFloat64, r.offset.NumDims())
	for dim := range center {
		center[dim] = float64(r.offset.Value(uint8(dim))) + float64(r.shape.Value(uint8(dim)))/2.0
	}
	return center
}

func (r Roi) checkDims(other Roi) error {
	if r.NumDims() != other.NumDims() {
		return fmt.Errorf("%w: %d-d ROI %s vs %d-d ROI %s", ErrDimensionMismatch,
			r.NumDims(), r, other.NumDims(), other)
	}
	return nil
}

// Shift returns the region translated by delta.
func (r Roi) Shift(delta Point) (Roi, error) {
	if !r.Defined() {
		return r, nil
	}
	if delta == nil || delta.NumDims() != r.NumDims() {
		return Roi{}, fmt.Errorf("%w: cannot shift %d-d ROI %s by %v", ErrDimensionMismatch, r.NumDims(), r, delta)
	}
	return Roi{offset: r.offset.Add(delta), shape: r.shape.Duplicate()}, nil
}

// Union returns the smallest region containing both regions.
func (r Roi) Union(other Roi) (Roi, error) {
	if !r.Defined() {
		return other, nil
	}
	if !other.Defined() {
		return r, nil
	}
	if err := r.checkDims(other); err != nil {
		return Roi{}, err
	}
	begin, _ := r.offset.Min(other.offset)
	end, _ := r.End().Max(other.End())
	return Roi{offset: begin, shape: end.Sub(begin)}, nil
}

// Intersect returns the region covered by both regions.  Disjoint regions give an
// empty region anchored at the component-wise maximum of the offsets.
func (r Roi) Intersect(other Roi) (Roi, error) {
	if !r.Defined() {
		return other, nil
	}
	if !other.Defined() {
		return r, nil
	}
	if err := r.checkDims(other); err != nil {
		return Roi{}, err
	}
	begin, _ := r.offset.Max(other.offset)
	end, _ := r.End().Min(other.End())
	shape := end.Sub(begin)
	shape, _ = shape.Max(ZeroPoint(shape.NumDims()))
	return Roi{offset: begin, shape: shape}, nil
}

// Intersects returns true if the regions share at least one point.
func (r Roi) Intersects(other Roi) (bool, error) {
	if !r.Defined() || !other.Defined() {
		return false, nil
	}
	inter, err := r.Intersect(other)
	if err != nil {
		return false, err
	}
	return !inter.Empty(), nil
}

// Contains returns true if the other region lies entirely within this region.
// An undefined receiver is unbounded and contains everything; an undefined argument
// is only contained by an undefined receiver.  An empty argument is contained if its
// offset lies within [offset, End()].
func (r Roi) Contains(other Roi) (bool, error) {
	if !r.Defined() {
		return true, nil
	}
	if !other.Defined() {
		return false, nil
	}
	if err := r.checkDims(other); err != nil {
		return false, err
	}
	end := r.End()
	if other.Empty() {
		for dim := uint8(0); dim < r.NumDims(); dim++ {
			v := other.offset.Value(dim)
			if v < r.offset.Value(dim) || v > end.Value(dim) {
				return false, nil
			}
		}
		return true, nil
	}
	otherEnd := other.End()
	for dim := uint8(0); dim < r.NumDims(); dim++ {
		if other.offset.Value(dim) < r.offset.Value(dim) || otherEnd.Value(dim) > end.Value(dim) {
			return false, nil
		}
	}
	return true, nil
}

// ContainsPoint returns true if offset <= p < End() in every dimension.
func (r Roi) ContainsPoint(p Point) (bool, error) {
	if !r.Defined() {
		return true, nil
	}
	if p == nil || p.NumDims() != r.NumDims() {
		return false, fmt.Errorf("%w: point %v vs %d-d ROI %s", ErrDimensionMismatch, p, r.NumDims(), r)
	}
	end := r.End()
	for dim := uint8(0); dim < r.NumDims(); dim++ {
		v := p.Value(dim)
		if v < r.offset.Value(dim) || v >= end.Value(dim) {
			return false, nil
		}
	}
	return true, nil
}

// ContainsLocation is like ContainsPoint for a non-integral location.
func (r Roi) ContainsLocation(loc NdFloat64) (bool, error) {
	if !r.Defined() {
		return true, nil
	}
	if len(loc) != int(r.NumDims()) {
		return false, fmt.Errorf("%w: location %s vs %d-d ROI %s", ErrDimensionMismatch, loc, r.NumDims(), r)
	}
	end := r.End()
	for dim, v := range loc {
		if v < float64(r.offset.Value(uint8(dim))) || v >= float64(end.Value(uint8(dim))) {
			return false, nil
		}
	}
	return true, nil
}

// Grow returns the region extended by neg before the offset and pos after the end.
// Either amount may be nil.  Negative amounts shrink the region.
func (r Roi) Grow(neg, pos Point) (Roi, error) {
	if !r.Defined() {
		return r, nil
	}
	dims := r.NumDims()
	if neg == nil {
		neg = ZeroPoint(dims)
	}
	if pos == nil {
		pos = ZeroPoint(dims)
	}
	if neg.NumDims() != dims || pos.NumDims() != dims {
		return Roi{}, fmt.Errorf("%w: cannot grow %d-d ROI %s by %s, %s", ErrDimensionMismatch, dims, r, neg, pos)
	}
	return NewRoi(r.offset.Sub(neg), r.shape.Add(neg).Add(pos))
}

// SnapToGrid returns the smallest region containing this one whose offset and end are
// multiples of the given voxel size.
func (r Roi) SnapToGrid(voxelSize Point) (Roi, error) {
	if !r.Defined() {
		return r, nil
	}
	if voxelSize == nil || voxelSize.NumDims() != r.NumDims() {
		return Roi{}, fmt.Errorf("%w: cannot snap %d-d ROI %s to grid %v", ErrDimensionMismatch, r.NumDims(), r, voxelSize)
	}
	dims := r.NumDims()
	begin := make([]int32, dims)
	end := make([]int32, dims)
	rEnd := r.End()
	for dim := uint8(0); dim < dims; dim++ {
		vs := int64(voxelSize.Value(dim))
		if vs <= 0 {
			return Roi{}, fmt.Errorf("%w: voxel size %s must be positive", ErrInvalidSpec, voxelSize)
		}
		begin[dim] = int32(floorDiv(int64(r.offset.Value(dim)), vs) * vs)
		end[dim] = int32(-floorDiv(-int64(rEnd.Value(dim)), vs) * vs)
	}
	beginPt, err := NewPoint(begin)
	if err != nil {
		return Roi{}, err
	}
	endPt, err := NewPoint(end)
	if err != nil {
		return Roi{}, err
	}
	return NewRoiFromEnds(beginPt, endPt)
}

// CenteredOn returns this region shifted so that its center coincides with the center
// of target.  Centers are compared in doubled integer space and the shift rounds
// toward negative infinity when the two centers differ by half a unit.
func (r Roi) CenteredOn(target Roi) (Roi, error) {
	if !r.Defined() || !target.Defined() {
		return r, nil
	}
	if err := r.checkDims(target); err != nil {
		return Roi{}, err
	}
	dims := r.NumDims()
	delta := make([]int32, dims)
	for dim := uint8(0); dim < dims; dim++ {
		twiceTarget := 2*int64(target.offset.Value(dim)) + int64(target.shape.Value(dim))
		twiceCenter := 2*int64(r.offset.Value(dim)) + int64(r.shape.Value(dim))
		delta[dim] = int32(floorDiv(twiceTarget-twiceCenter, 2))
	}
	deltaPt, err := NewPoint(delta)
	if err != nil {
		return Roi{}, err
	}
	return r.Shift(deltaPt)
}

// Equals returns true if both regions are undefined or have equal offset and shape.
func (r Roi) Equals(other Roi) bool {
	if !r.Defined() || !other.Defined() {
		return r.Defined() == other.Defined()
	}
	return PointEquals(r.offset, other.offset) && PointEquals(r.shape, other.shape)
}

func (r Roi) String() string {
	if !r.Defined() {
		return "undefined ROI"
	}
	return fmt.Sprintf("[%s, %s) shape %s", r.offset, r.End(), r.shape)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
