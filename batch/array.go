package batch

import (
	"fmt"

	"github.com/janelia-flyem/voxpipe/vox"
)

// Array is a dense payload: a buffer of elements in the spec's data type, little
// endian, laid out with dimension 0 varying fastest.  For a spatial array the buffer
// covers the spec's region at the spec's voxel size.
type Array struct {
	Spec ArraySpec
	data []byte
}

// NewArray returns an array over the given buffer, which the array takes ownership of.
func NewArray(spec ArraySpec, data []byte) (*Array, error) {
	elemBytes := int(vox.DataTypeBytes(spec.DataType))
	if elemBytes == 0 {
		return nil, fmt.Errorf("%w: array needs a known data type, got %s", vox.ErrInvalidSpec, spec.DataType)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.CopyArraySpec()
	if shape := gridShape(spec); shape != nil {
		expected := int(shape.Prod()) * elemBytes
		if len(data) != expected {
			return nil, fmt.Errorf("%w: %s with voxel size %s needs %d bytes, got %d",
				vox.ErrInvalidSpec, spec.Roi, spec.VoxelSize, expected, len(data))
		}
	} else if len(data)%elemBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s elements",
			vox.ErrInvalidSpec, len(data), spec.DataType)
	}
	return &Array{Spec: spec, data: data}, nil
}

// NewArrayFromFloat64s returns an array holding the values converted to the spec's
// data type.
func NewArrayFromFloat64s(spec ArraySpec, values []float64) (*Array, error) {
	elemBytes := int(vox.DataTypeBytes(spec.DataType))
	if elemBytes == 0 {
		return nil, fmt.Errorf("%w: array needs a known data type, got %s", vox.ErrInvalidSpec, spec.DataType)
	}
	data := make([]byte, len(values)*elemBytes)
	for i, v := range values {
		spec.DataType.Encode(data[i*elemBytes:], v)
	}
	return NewArray(spec, data)
}

// gridShape returns the number of elements per dimension of a spatial array spec, or
// nil if the spec has no voxel grid.
func gridShape(spec ArraySpec) vox.Point {
	if spec.Nonspatial || !spec.Roi.Defined() || spec.VoxelSize == nil {
		return nil
	}
	return spec.Roi.Shape().Div(spec.VoxelSize)
}

// Shape returns the number of elements per dimension, or nil for arrays without a
// voxel grid.
func (a *Array) Shape() vox.Point {
	return gridShape(a.Spec)
}

// NumElements returns the number of elements in the buffer.
func (a *Array) NumElements() int {
	return len(a.data) / int(vox.DataTypeBytes(a.Spec.DataType))
}

// Bytes returns the underlying buffer.
func (a *Array) Bytes() []byte {
	return a.data
}

// Value returns the i-th element.
func (a *Array) Value(i int) float64 {
	n := int(vox.DataTypeBytes(a.Spec.DataType))
	return a.Spec.DataType.Decode(a.data[i*n:])
}

// SetValue sets the i-th element, converting to the array's data type.
func (a *Array) SetValue(i int, v float64) {
	n := int(vox.DataTypeBytes(a.Spec.DataType))
	a.Spec.DataType.Encode(a.data[i*n:], v)
}

// Float64s returns all elements converted to float64.
func (a *Array) Float64s() []float64 {
	n := a.NumElements()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = a.Value(i)
	}
	return values
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	return &Array{Spec: a.Spec.CopyArraySpec(), data: append([]byte{}, a.data...)}
}

// Crop returns a new array covering the given region, which must lie within the
// array's region and on its voxel grid.  Arrays without a voxel grid are copied whole.
func (a *Array) Crop(roi vox.Roi) (*Array, error) {
	srcShape := a.Shape()
	if srcShape == nil || !roi.Defined() || roi.Equals(a.Spec.Roi) {
		return a.Copy(), nil
	}
	inside, err := a.Spec.Roi.Contains(roi)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, fmt.Errorf("%w: cannot crop array at %s to %s", vox.ErrRequestUnsatisfiable, a.Spec.Roi, roi)
	}
	spec := a.Spec.CopyArraySpec()
	spec.Roi = roi
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	dstShape := gridShape(spec)
	start := roi.Offset().Sub(a.Spec.Roi.Offset()).Div(spec.VoxelSize)
	elemBytes := int64(vox.DataTypeBytes(spec.DataType))
	dims := int(dstShape.NumDims())
	data := make([]byte, dstShape.Prod()*elemBytes)
	if len(data) == 0 {
		return &Array{Spec: spec, data: data}, nil
	}

	srcStrides := make([]int64, dims)
	srcStrides[0] = 1
	for d := 1; d < dims; d++ {
		srcStrides[d] = srcStrides[d-1] * int64(srcShape.Value(uint8(d-1)))
	}
	rowLen := int64(dstShape.Value(0))
	rowBytes := rowLen * elemBytes
	numRows := dstShape.Prod() / rowLen

	idx := make([]int64, dims)
	for row := int64(0); row < numRows; row++ {
		var srcElem int64
		for d := 0; d < dims; d++ {
			srcElem += (int64(start.Value(uint8(d))) + idx[d]) * srcStrides[d]
		}
		srcBeg := srcElem * elemBytes
		copy(data[row*rowBytes:(row+1)*rowBytes], a.data[srcBeg:srcBeg+rowBytes])
		for d := 1; d < dims; d++ {
			idx[d]++
			if idx[d] < int64(dstShape.Value(uint8(d))) {
				break
			}
			idx[d] = 0
		}
	}
	return &Array{Spec: spec, data: data}, nil
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(%s, %d elements)", a.Spec, a.NumElements())
}
