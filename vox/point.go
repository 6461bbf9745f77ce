package vox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is an interface for n-dimensional integer points.   Types that implement the
// interface can optimize for particular dimensionality.  Binary operations expect
// points of equal dimensionality; callers check NumDims() before mixing points.
type Point interface {
	// NumDims returns the dimensionality of this point.
	NumDims() uint8

	// Value returns the point's value for the specified dimension without checking dim bounds.
	Value(dim uint8) int32

	// Duplicate returns a copy of the point without any shared references.
	Duplicate() Point

	// Add returns the addition of two points.
	Add(Point) Point

	// Sub returns the subtraction of the passed point from the receiver.
	Sub(Point) Point

	// Div returns the component-wise division of the receiver by the passed point.
	Div(Point) Point

	// Max returns a Point where each of its elements are the maximum of two points' elements.
	Max(Point) (Point, bool)

	// Min returns a Point where each of its elements are the minimum of two points' elements.
	Min(Point) (Point, bool)

	// Prod returns the product of the point elements.
	Prod() int64

	String() string
}

// NewPoint returns an appropriate Point implementation for the number of dimensions
// passed in.
func NewPoint(values []int32) (Point, error) {
	switch len(values) {
	case 0:
		return nil, fmt.Errorf("no Point implementation for 0-d slice")
	case 2:
		return Point2d{values[0], values[1]}, nil
	case 3:
		return Point3d{values[0], values[1], values[2]}, nil
	default:
		p := make(PointNd, len(values))
		copy(p, values)
		return p, nil
	}
}

// ZeroPoint returns the origin in the given dimensionality.
func ZeroPoint(dims uint8) Point {
	p, err := NewPoint(make([]int32, dims))
	if err != nil {
		return PointNd{}
	}
	return p
}

// PointEquals returns true if both points have the same dimensionality and values,
// regardless of implementation.
func PointEquals(a, b Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.NumDims() != b.NumDims() {
		return false
	}
	for dim := uint8(0); dim < a.NumDims(); dim++ {
		if a.Value(dim) != b.Value(dim) {
			return false
		}
	}
	return true
}

func pointString(p Point) string {
	var b strings.Builder
	b.WriteString("(")
	for dim := uint8(0); dim < p.NumDims(); dim++ {
		if dim != 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.Itoa(int(p.Value(dim))))
	}
	b.WriteString(")")
	return b.String()
}

// componentwise applies op to each pair of components and returns the results in
// the receiver's dimensionality.
func componentwise(p, x Point, op func(a, b int32) int32) []int32 {
	values := make([]int32, p.NumDims())
	for i := range values {
		values[i] = op(p.Value(uint8(i)), x.Value(uint8(i)))
	}
	return values
}

// extremes keeps, per component, whichever value of x wins over p.  The flag reports
// whether any component came from x.
func extremes(p, x Point, wins func(a, b int32) bool) ([]int32, bool) {
	var changed bool
	values := componentwise(p, x, func(a, b int32) int32 {
		if wins(b, a) {
			changed = true
			return b
		}
		return a
	})
	return values, changed
}

func add(a, b int32) int32    { return a + b }
func sub(a, b int32) int32    { return a - b }
func div(a, b int32) int32    { return a / b }
func greater(a, b int32) bool { return a > b }
func less(a, b int32) bool    { return a < b }

func product(p Point) int64 {
	prod := int64(1)
	for dim := uint8(0); dim < p.NumDims(); dim++ {
		prod *= int64(p.Value(dim))
	}
	return prod
}

// Point2d is a 2d point.
type Point2d [2]int32

func point2d(v []int32) Point2d { return Point2d{v[0], v[1]} }

// NumDims returns the dimensionality of this point.
func (p Point2d) NumDims() uint8 {
	return 2
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point2d) Value(dim uint8) int32 {
	return p[dim]
}

// Duplicate returns a copy of the point.  Arrays are values, so this is p itself.
func (p Point2d) Duplicate() Point {
	return p
}

func (p Point2d) Add(x Point) Point { return point2d(componentwise(p, x, add)) }
func (p Point2d) Sub(x Point) Point { return point2d(componentwise(p, x, sub)) }
func (p Point2d) Div(x Point) Point { return point2d(componentwise(p, x, div)) }

func (p Point2d) Max(x Point) (Point, bool) {
	v, changed := extremes(p, x, greater)
	return point2d(v), changed
}

func (p Point2d) Min(x Point) (Point, bool) {
	v, changed := extremes(p, x, less)
	return point2d(v), changed
}

func (p Point2d) Prod() int64 {
	return int64(p[0]) * int64(p[1])
}

func (p Point2d) String() string {
	return pointString(p)
}

// Point3d is a 3d point, the common case for volumes.
type Point3d [3]int32

func point3d(v []int32) Point3d { return Point3d{v[0], v[1], v[2]} }

// NumDims returns the dimensionality of this point.
func (p Point3d) NumDims() uint8 {
	return 3
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point3d) Value(dim uint8) int32 {
	return p[dim]
}

func (p Point3d) Duplicate() Point {
	return p
}

func (p Point3d) Add(x Point) Point { return point3d(componentwise(p, x, add)) }
func (p Point3d) Sub(x Point) Point { return point3d(componentwise(p, x, sub)) }
func (p Point3d) Div(x Point) Point { return point3d(componentwise(p, x, div)) }

func (p Point3d) Max(x Point) (Point, bool) {
	v, changed := extremes(p, x, greater)
	return point3d(v), changed
}

func (p Point3d) Min(x Point) (Point, bool) {
	v, changed := extremes(p, x, less)
	return point3d(v), changed
}

func (p Point3d) Prod() int64 {
	return product(p)
}

func (p Point3d) String() string {
	return pointString(p)
}

// PointNd holds any other dimensionality.  Every operation returns a freshly
// allocated PointNd so results never alias the receiver.
type PointNd []int32

// NumDims returns the dimensionality of this point.
func (p PointNd) NumDims() uint8 {
	return uint8(len(p))
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p PointNd) Value(dim uint8) int32 {
	return p[dim]
}

func (p PointNd) Duplicate() Point {
	return append(PointNd{}, p...)
}

func (p PointNd) Add(x Point) Point { return PointNd(componentwise(p, x, add)) }
func (p PointNd) Sub(x Point) Point { return PointNd(componentwise(p, x, sub)) }
func (p PointNd) Div(x Point) Point { return PointNd(componentwise(p, x, div)) }

func (p PointNd) Max(x Point) (Point, bool) {
	v, changed := extremes(p, x, greater)
	return PointNd(v), changed
}

func (p PointNd) Min(x Point) (Point, bool) {
	v, changed := extremes(p, x, less)
	return PointNd(v), changed
}

func (p PointNd) Prod() int64 {
	return product(p)
}

func (p PointNd) String() string {
	return pointString(p)
}

// NdFloat64 is an N-dimensional slice of float64, used for coordinates that need not
// be integral, e.g., the center of a region.
type NdFloat64 []float64

// Duplicate returns a copy of the slice.
func (n NdFloat64) Duplicate() NdFloat64 {
	if n == nil {
		return nil
	}
	dup := make(NdFloat64, len(n))
	copy(dup, n)
	return dup
}

// Equals returns true if both have the same length and values within the tolerance.
func (n NdFloat64) Equals(n2 NdFloat64, tolerance float64) bool {
	if len(n) != len(n2) {
		return false
	}
	for i := range n {
		if math.Abs(n[i]-n2[i]) > tolerance {
			return false
		}
	}
	return true
}

func (n NdFloat64) String() string {
	parts := make([]string, len(n))
	for i, v := range n {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
