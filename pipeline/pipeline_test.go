package pipeline

import (
	"errors"
	"testing"

	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/vox"
)

var (
	rawKey    = batch.NewArrayKey("RAW")
	doubleKey = batch.NewArrayKey("DOUBLE")
	pointsKey = batch.NewGraphKey("POINTS")
)

// doubler provides a stream holding twice the values of its input over the region
// handed from Prepare to Process.
type doubler struct {
	in, out batch.Key
}

func (d doubler) Setup(s *SetupContext) error {
	if err := s.Require(d.in); err != nil {
		return err
	}
	spec, _ := s.Spec().ArraySpec(d.in)
	return s.Provides(d.out, spec)
}

func (d doubler) Prepare(req *batch.Request) (Prepared, error) {
	wanted, found := req.ArraySpec(d.out)
	if !found {
		return Prepared{Skip: true}, nil
	}
	req.Delete(d.out)
	deps := batch.NewRequest()
	if err := deps.Set(d.in, wanted); err != nil {
		return Prepared{}, err
	}
	merged, err := req.Merge(deps)
	if err != nil {
		return Prepared{}, err
	}
	*req = *merged
	return Prepared{Value: wanted.Roi}, nil
}

func (d doubler) Process(b *batch.Batch, req *batch.Request, p Prepared) error {
	in, found := b.Array(d.in)
	if !found {
		return errors.New("no input array")
	}
	out, err := in.Crop(p.Value.(vox.Roi))
	if err != nil {
		return err
	}
	for i := 0; i < out.NumElements(); i++ {
		out.SetValue(i, 2*out.Value(i))
	}
	return b.SetArray(d.out, out)
}

// updater changes the data type of an upstream stream.
type updater struct {
	key batch.Key
}

func (u updater) Setup(s *SetupContext) error {
	spec, _ := s.Spec().ArraySpec(u.key)
	spec.DataType = vox.T_float64
	return s.Updates(u.key, spec)
}

func (u updater) Prepare(req *batch.Request) (Prepared, error) {
	return Prepared{Skip: !req.Has(u.key)}, nil
}

func (u updater) Process(b *batch.Batch, req *batch.Request, p Prepared) error {
	a, _ := b.Array(u.key)
	spec := a.Spec.CopyArraySpec()
	spec.DataType = vox.T_float64
	converted, err := batch.NewArrayFromFloat64s(spec, a.Float64s())
	if err != nil {
		return err
	}
	return b.SetArray(u.key, converted)
}

func newSource(t *testing.T) *MemorySource {
	roi, err := vox.NewRoi(vox.Point2d{0, 0}, vox.Point2d{10, 10})
	if err != nil {
		t.Fatalf("bad ROI: %v\n", err)
	}
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	raw, err := batch.NewArrayFromFloat64s(batch.ArraySpec{Roi: roi, VoxelSize: vox.Point2d{1, 1}, DataType: vox.T_uint16}, values)
	if err != nil {
		t.Fatalf("couldn't make array: %v\n", err)
	}
	graph, err := batch.NewGraph(batch.GraphSpec{Roi: roi}, []batch.Vertex{
		{ID: 1, Location: vox.NdFloat64{1, 1}},
		{ID: 2, Location: vox.NdFloat64{8, 8}},
	}, []batch.Edge{{Vertexpair: batch.VertexPairID{Vertex1: 1, Vertex2: 2}}})
	if err != nil {
		t.Fatalf("couldn't make graph: %v\n", err)
	}
	src := NewMemorySource()
	if err := src.AddArray(rawKey, raw); err != nil {
		t.Fatalf("couldn't add array: %v\n", err)
	}
	if err := src.AddGraph(pointsKey, graph); err != nil {
		t.Fatalf("couldn't add graph: %v\n", err)
	}
	if err := src.AddGraph(rawKey, graph); !errors.Is(err, vox.ErrUnsupportedKeyType) {
		t.Errorf("expected graph under array key to fail, got %v\n", err)
	}
	return src
}

func TestBuild(t *testing.T) {
	src := newSource(t)
	p := New(src, doubler{rawKey, doubleKey}, updater{doubleKey})
	if p.Spec() != nil {
		t.Errorf("unbuilt pipeline should have no spec\n")
	}
	if _, err := p.RequestBatch(batch.NewRequest()); !errors.Is(err, vox.ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v\n", err)
	}
	if err := p.Build(); err != nil {
		t.Fatalf("couldn't build: %v\n", err)
	}
	spec := p.Spec()
	if spec.Len() != 3 {
		t.Fatalf("expected 3 streams, got:\n%s", spec)
	}
	double, _ := spec.ArraySpec(doubleKey)
	if double.DataType != vox.T_float64 {
		t.Errorf("update not folded into spec: %s\n", double)
	}
	raw, _ := spec.ArraySpec(rawKey)
	if raw.DataType != vox.T_uint16 {
		t.Errorf("unexpected raw spec: %s\n", raw)
	}

	// a stage cannot provide a stream twice or update a missing one
	if err := New(src, doubler{rawKey, rawKey}).Build(); !errors.Is(err, vox.ErrConflictingSpec) {
		t.Errorf("expected conflicting spec, got %v\n", err)
	}
	if err := New(src, updater{doubleKey}).Build(); !errors.Is(err, vox.ErrUnmetDependency) {
		t.Errorf("expected unmet dependency, got %v\n", err)
	}
	if err := New(src, doubler{doubleKey, rawKey}).Build(); !errors.Is(err, vox.ErrUnmetDependency) {
		t.Errorf("expected unmet dependency, got %v\n", err)
	}
}

func TestRequestBatch(t *testing.T) {
	p := New(newSource(t), doubler{rawKey, doubleKey}, updater{doubleKey})
	if err := p.Build(); err != nil {
		t.Fatalf("couldn't build: %v\n", err)
	}

	req := batch.NewRequest()
	if err := req.Add(rawKey, vox.Point2d{10, 10}, vox.Point2d{1, 1}); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	if err := req.Add(doubleKey, vox.Point2d{2, 2}, vox.Point2d{1, 1}); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	original := req.Copy()

	b, err := p.RequestBatch(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if !req.Equals(original) {
		t.Errorf("request was modified:\n%s", req)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 streams, got %s\n", b)
	}
	double, _ := b.Array(doubleKey)
	if double.Spec.DataType != vox.T_float64 {
		t.Errorf("expected updated data type, got %s\n", double.Spec)
	}
	// doubled region is centered at (4,4)-(6,6)
	expected := []float64{88, 90, 108, 110}
	for i, v := range double.Float64s() {
		if v != expected[i] {
			t.Fatalf("expected %v, got %v\n", expected, double.Float64s())
		}
	}
	raw, _ := b.Array(rawKey)
	if raw.NumElements() != 100 || raw.Spec.DataType != vox.T_uint16 {
		t.Errorf("bad raw array: %s\n", raw)
	}
}

func TestRequestBatchGraph(t *testing.T) {
	p := New(newSource(t))
	if err := p.Build(); err != nil {
		t.Fatalf("couldn't build: %v\n", err)
	}
	req := batch.NewRequest()
	if err := req.Add(pointsKey, vox.Point2d{5, 5}, nil); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	b, err := p.RequestBatch(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	g, found := b.Graph(pointsKey)
	if !found || len(g.Vertices) != 1 || len(g.Edges) != 0 {
		t.Errorf("bad cropped graph: %v\n", g)
	}
	if b.Has(rawKey) {
		t.Errorf("unrequested array leaked into batch\n")
	}
}

func TestRequestUnsatisfiable(t *testing.T) {
	p := New(newSource(t), doubler{rawKey, doubleKey})
	if err := p.Build(); err != nil {
		t.Fatalf("couldn't build: %v\n", err)
	}

	req := batch.NewRequest()
	if err := req.Add(batch.NewArrayKey("MISSING"), vox.Point2d{2, 2}, nil); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	if _, err := p.RequestBatch(req); !errors.Is(err, vox.ErrRequestUnsatisfiable) {
		t.Errorf("expected unprovided key to fail, got %v\n", err)
	}

	req = batch.NewRequest()
	if err := req.Add(doubleKey, vox.Point2d{12, 12}, vox.Point2d{1, 1}); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	if _, err := p.RequestBatch(req); !errors.Is(err, vox.ErrRequestUnsatisfiable) {
		t.Errorf("expected uncovered region to fail, got %v\n", err)
	}

	req = batch.NewRequest()
	if err := req.Add(rawKey, vox.Point2d{2, 2}, vox.Point2d{2, 2}); err != nil {
		t.Fatalf("bad request: %v\n", err)
	}
	if _, err := p.RequestBatch(req); !errors.Is(err, vox.ErrRequestUnsatisfiable) {
		t.Errorf("expected wrong voxel size to fail, got %v\n", err)
	}
}
