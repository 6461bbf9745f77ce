package batch

import (
	"errors"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
	"github.com/janelia-flyem/voxpipe/vox"
)

type BatchSuite struct{}

var _ = Suite(&BatchSuite{})

// sequence returns a spatial float32 array over the region whose i-th element is i.
func sequence(c *C, roi vox.Roi, voxelSize vox.Point) *Array {
	spec := ArraySpec{Roi: roi, VoxelSize: voxelSize, DataType: vox.T_float32}
	n := roi.Shape().Div(voxelSize).Prod()
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	a, err := NewArrayFromFloat64s(spec, values)
	c.Assert(err, IsNil)
	return a
}

func (s *BatchSuite) TestNewArray(c *C) {
	roi := mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{4, 3})
	_, err := NewArray(ArraySpec{Roi: roi, VoxelSize: vox.Point2d{1, 1}, DataType: vox.T_uint16}, make([]byte, 23))
	c.Assert(errors.Is(err, vox.ErrInvalidSpec), Equals, true)

	_, err = NewArray(ArraySpec{Roi: roi, VoxelSize: vox.Point2d{1, 1}}, make([]byte, 12))
	c.Assert(errors.Is(err, vox.ErrInvalidSpec), Equals, true)

	a, err := NewArray(ArraySpec{Roi: roi, VoxelSize: vox.Point2d{1, 1}, DataType: vox.T_uint16}, make([]byte, 24))
	c.Assert(err, IsNil)
	c.Assert(a.NumElements(), Equals, 12)
	c.Assert(vox.PointEquals(a.Shape(), vox.Point2d{4, 3}), Equals, true)
	a.SetValue(5, 300)
	c.Assert(a.Value(5), Equals, 300.0)
	c.Assert(a.Bytes()[10], Equals, byte(300&0xff))

	scalar, err := NewArray(ArraySpec{Nonspatial: true, DataType: vox.T_float64}, make([]byte, 16))
	c.Assert(err, IsNil)
	c.Assert(scalar.Shape(), IsNil)
	c.Assert(scalar.NumElements(), Equals, 2)
}

func (s *BatchSuite) TestArrayCrop(c *C) {
	a := sequence(c, mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{4, 3}), vox.Point2d{1, 1})

	cropped, err := a.Crop(mustRoi(c, vox.Point2d{1, 1}, vox.Point2d{2, 2}))
	c.Assert(err, IsNil)
	c.Assert(cropped.Float64s(), DeepEquals, []float64{5, 6, 9, 10})
	c.Assert(cropped.Spec.Roi.Equals(mustRoi(c, vox.Point2d{1, 1}, vox.Point2d{2, 2})), Equals, true)

	// original is untouched
	c.Assert(a.NumElements(), Equals, 12)
	cropped.SetValue(0, 99)
	c.Assert(a.Value(5), Equals, 5.0)

	_, err = a.Crop(mustRoi(c, vox.Point2d{3, 0}, vox.Point2d{2, 2}))
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)

	// off-grid regions cannot be cropped
	coarse := sequence(c, mustRoi(c, vox.Point3d{0, 0, 0}, vox.Point3d{8, 8, 8}), vox.Point3d{2, 2, 2})
	_, err = coarse.Crop(mustRoi(c, vox.Point3d{1, 0, 0}, vox.Point3d{2, 2, 2}))
	c.Assert(errors.Is(err, vox.ErrInvalidSpec), Equals, true)

	sub, err := coarse.Crop(mustRoi(c, vox.Point3d{2, 4, 6}, vox.Point3d{4, 2, 2}))
	c.Assert(err, IsNil)
	// element (1,2,3) of a 4x4x4 grid and its neighbor along x
	c.Assert(sub.Float64s(), DeepEquals, []float64{1 + 2*4 + 3*16, 2 + 2*4 + 3*16})
}

func (s *BatchSuite) TestGraph(c *C) {
	spec := GraphSpec{Roi: mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{10, 10}), DataType: vox.T_float32}
	vertices := []Vertex{
		{ID: 1, Location: vox.NdFloat64{0.5, 0.5}},
		{ID: 2, Location: vox.NdFloat64{5, 5}, Properties: ElementProperties{"type": "synapse"}},
		{ID: 3, Location: vox.NdFloat64{9.5, 9.5}},
	}
	edges := []Edge{
		{Vertexpair: VertexPairID{1, 2}, Weight: 1},
		{Vertexpair: VertexPairID{2, 3}, Weight: 2},
	}
	g, err := NewGraph(spec, vertices, edges)
	c.Assert(err, IsNil)

	cropped, err := g.Crop(mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{6, 6}))
	c.Assert(err, IsNil)
	c.Assert(cropped.Vertices, HasLen, 2)
	c.Assert(cropped.Edges, HasLen, 1)
	c.Assert(cropped.Edges[0].Vertexpair, Equals, VertexPairID{1, 2})

	cropped.Vertices[1].Properties["type"] = "changed"
	c.Assert(g.Vertices[1].Properties["type"], Equals, "synapse")

	_, err = g.Crop(mustRoi(c, vox.Point2d{5, 5}, vox.Point2d{10, 10}))
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)

	_, err = NewGraph(spec, vertices, []Edge{{Vertexpair: VertexPairID{1, 4}}})
	c.Assert(errors.Is(err, vox.ErrInvalidSpec), Equals, true)
	_, err = NewGraph(spec, []Vertex{{ID: 1, Location: vox.NdFloat64{1, 1, 1}}}, nil)
	c.Assert(errors.Is(err, vox.ErrDimensionMismatch), Equals, true)
}

func (s *BatchSuite) TestBatchCrop(c *C) {
	b := NewBatch()
	c.Assert(b.SetArray(labelsKey, sequence(c, mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{10, 10}), vox.Point2d{1, 1})), IsNil)
	c.Assert(b.SetArray(rawKey, sequence(c, mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{20, 20}), vox.Point2d{1, 1})), IsNil)
	c.Assert(b.SetGraph(labelsKey, &Graph{}), NotNil)

	req := NewRequest()
	c.Assert(req.Set(labelsKey, ArraySpec{
		Roi:       mustRoi(c, vox.Point2d{2, 2}, vox.Point2d{4, 4}),
		VoxelSize: vox.Point2d{1, 1},
	}), IsNil)

	cropped, err := b.Crop(req)
	c.Assert(err, IsNil)
	c.Assert(cropped.ID, Equals, b.ID)
	c.Assert(cropped.Keys(), DeepEquals, []Key{labelsKey})
	c.Assert(cropped.Has(rawKey), Equals, false)
	labels, found := cropped.Array(labelsKey)
	c.Assert(found, Equals, true)
	c.Assert(labels.NumElements(), Equals, 16)
	c.Assert(labels.Value(0), Equals, 22.0)

	missing := req.Copy()
	c.Assert(missing.Set(maskKey, ArraySpec{}), IsNil)
	_, err = b.Crop(missing)
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)

	outside := NewRequest()
	c.Assert(outside.Set(labelsKey, ArraySpec{Roi: mustRoi(c, vox.Point2d{8, 8}, vox.Point2d{4, 4})}), IsNil)
	_, err = b.Crop(outside)
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)

	wrongType := NewRequest()
	c.Assert(wrongType.Set(rawKey, ArraySpec{DataType: vox.T_uint8}), IsNil)
	_, err = b.Crop(wrongType)
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)

	wrongRes := NewRequest()
	c.Assert(wrongRes.Set(rawKey, ArraySpec{VoxelSize: vox.Point2d{2, 2}}), IsNil)
	_, err = b.Crop(wrongRes)
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)
}

func (s *BatchSuite) TestBatchCropGraph(c *C) {
	spec := GraphSpec{Roi: mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{10, 10}), DataType: vox.T_float32}
	g, err := NewGraph(spec, []Vertex{
		{ID: 1, Location: vox.NdFloat64{1, 1}},
		{ID: 2, Location: vox.NdFloat64{8, 8}},
	}, nil)
	c.Assert(err, IsNil)
	b := NewBatch()
	c.Assert(b.SetGraph(pointsKey, g), IsNil)

	have, found := b.PayloadSpec(pointsKey)
	c.Assert(found, Equals, true)
	c.Assert(have.GetDataType(), Equals, vox.T_float32)

	req := NewRequest()
	c.Assert(req.Set(pointsKey, GraphSpec{Roi: mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{5, 5}), DataType: vox.T_float32}), IsNil)
	cropped, err := b.Crop(req)
	c.Assert(err, IsNil)
	points, found := cropped.Graph(pointsKey)
	c.Assert(found, Equals, true)
	c.Assert(points.Vertices, HasLen, 1)

	wrongType := NewRequest()
	c.Assert(wrongType.Set(pointsKey, GraphSpec{DataType: vox.T_float64}), IsNil)
	_, err = b.Crop(wrongType)
	c.Assert(errors.Is(err, vox.ErrRequestUnsatisfiable), Equals, true)
}

func (s *BatchSuite) TestBatchMerge(c *C) {
	roi := mustRoi(c, vox.Point2d{0, 0}, vox.Point2d{2, 2})
	first := sequence(c, roi, vox.Point2d{1, 1})
	second := sequence(c, roi, vox.Point2d{1, 1})
	second.SetValue(0, 7)

	b1 := NewBatch()
	c.Assert(b1.SetArray(labelsKey, first), IsNil)
	c.Assert(b1.SetArray(rawKey, first), IsNil)
	b2 := NewBatch()
	c.Assert(b2.ID, Not(Equals), b1.ID)
	c.Assert(b2.SetArray(labelsKey, second), IsNil)
	c.Assert(b2.SetGraph(pointsKey, &Graph{Spec: GraphSpec{Roi: roi}}), IsNil)

	merged := b1.Merge(b2)
	c.Assert(merged.ID, Equals, b1.ID)
	c.Assert(merged.Keys(), DeepEquals, []Key{labelsKey, rawKey, pointsKey})
	labels, _ := merged.Array(labelsKey)
	c.Assert(labels.Value(0), Equals, 7.0)
	c.Assert(b1.Len(), Equals, 2)

	merged.Delete(rawKey)
	c.Assert(merged.Keys(), DeepEquals, []Key{labelsKey, pointsKey})
	c.Assert(b1.Has(rawKey), Equals, true)

	c.Assert(merged.MemorySize() > len(labels.Bytes()), Equals, true)
	c.Assert(strings.HasPrefix(merged.String(), "Batch "), Equals, true)
}
