/*
	Package nodes holds concrete pipeline stages.
*/
package nodes

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/pipeline"
	"github.com/janelia-flyem/voxpipe/vox"
)

// Default bounds for the positive fraction, limiting the class weight ratio to 19:1.
const (
	DefaultClipMin = 0.05
	DefaultClipMax = 0.95
)

// BalanceLabels creates a scale array that balances a loss between positive and
// negative labels.  The scale array has the region and resolution of the labels.
// Elements that are 0 in any mask do not count toward the balance and get a scale
// of 0.
type BalanceLabels struct {
	labels  batch.Key
	scales  batch.Key
	masks   []batch.Key
	clipMin float64
	clipMax float64
}

// NewBalanceLabels returns a stage computing scales from binary labels and optional masks.
func NewBalanceLabels(labels, scales batch.Key, masks ...batch.Key) *BalanceLabels {
	return &BalanceLabels{
		labels:  labels,
		scales:  scales,
		masks:   append([]batch.Key{}, masks...),
		clipMin: DefaultClipMin,
		clipMax: DefaultClipMax,
	}
}

// WithClip sets the bounds the positive fraction is clipped to, which limits the
// ratio between the two class weights.  It must be called before the pipeline is built.
func (bl *BalanceLabels) WithClip(min, max float64) (*BalanceLabels, error) {
	if !(min > 0 && min <= max && max < 1) {
		return nil, fmt.Errorf("%w: clip bounds must satisfy 0 < %g <= %g < 1", vox.ErrInvalidSpec, min, max)
	}
	bl.clipMin, bl.clipMax = min, max
	return bl, nil
}

func (bl *BalanceLabels) String() string {
	return fmt.Sprintf("BalanceLabels(%s -> %s)", bl.labels.Name(), bl.scales.Name())
}

func (bl *BalanceLabels) inputs() []batch.Key {
	return append([]batch.Key{bl.labels}, bl.masks...)
}

func (bl *BalanceLabels) Setup(s *pipeline.SetupContext) error {
	for _, k := range append(bl.inputs(), bl.scales) {
		if k.Kind() != batch.ArrayKind {
			return fmt.Errorf("%w: %s balances arrays, got %s", vox.ErrUnsupportedKeyType, bl, k)
		}
	}
	if err := s.Require(bl.inputs()...); err != nil {
		return err
	}
	spec, _ := s.Spec().ArraySpec(bl.labels)
	spec.DataType = vox.T_float32
	spec.Interpolatable = true
	return s.Provides(bl.scales, spec)
}

// Prepare skips the stage if no scales were requested.  Otherwise it replaces the
// scales request with requests for the labels and masks, all over the union of the
// scales region and any regions already requested for them.
func (bl *BalanceLabels) Prepare(req *batch.Request) (pipeline.Prepared, error) {
	wanted, found := req.ArraySpec(bl.scales)
	if !found {
		return pipeline.Prepared{Skip: true}, nil
	}
	req.Delete(bl.scales)

	deps := batch.NewRequest()
	for _, k := range bl.inputs() {
		if err := deps.Set(k, batch.ArraySpec{Roi: wanted.Roi, VoxelSize: wanted.VoxelSize}); err != nil {
			return pipeline.Prepared{}, err
		}
	}
	merged, err := req.Merge(deps)
	if err != nil {
		return pipeline.Prepared{}, err
	}

	// labels and masks must come back on one grid
	var roi vox.Roi
	for _, k := range bl.inputs() {
		spec, _ := merged.ArraySpec(k)
		if roi, err = roi.Union(spec.Roi); err != nil {
			return pipeline.Prepared{}, fmt.Errorf("%s: %w", bl, err)
		}
	}
	for _, k := range bl.inputs() {
		spec, _ := merged.ArraySpec(k)
		if err := merged.Set(k, spec.WithRoi(roi)); err != nil {
			return pipeline.Prepared{}, err
		}
	}
	*req = *merged
	return pipeline.Prepared{}, nil
}

func (bl *BalanceLabels) Process(b *batch.Batch, req *batch.Request, p pipeline.Prepared) error {
	labels, found := b.Array(bl.labels)
	if !found {
		return fmt.Errorf("%w: %s got no %s", vox.ErrRequestUnsatisfiable, bl, bl.labels)
	}
	n := labels.NumElements()

	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}
	for _, k := range bl.masks {
		mask, found := b.Array(k)
		if !found {
			return fmt.Errorf("%w: %s got no %s", vox.ErrRequestUnsatisfiable, bl, k)
		}
		if mask.NumElements() != n || !sameShape(mask.Shape(), labels.Shape()) {
			return fmt.Errorf("%w: mask %s has shape %v, labels %s have shape %v",
				vox.ErrShapeMismatch, k, mask.Shape(), bl.labels, labels.Shape())
		}
		for i := range scale {
			scale[i] *= mask.Value(i)
		}
	}

	positive := make([]bool, n)
	var maskedIn, numPos float64
	for i := range scale {
		positive[i] = math.Floor(clip(labels.Value(i)+0.5, 0, 1)) >= 0.5
		maskedIn += scale[i]
		if positive[i] {
			numPos += scale[i]
		}
	}
	var fracPos float64
	if maskedIn > 0 {
		fracPos = numPos / maskedIn
	}
	fracPos = clip(fracPos, bl.clipMin, bl.clipMax)
	wPos := 1.0 / (2.0 * fracPos)
	wNeg := 1.0 / (2.0 * (1.0 - fracPos))
	vox.Debugf("%s: batch %d positive fraction %.4f, weights %.4f / %.4f", bl, b.ID, fracPos, wPos, wNeg)

	for i := range scale {
		if positive[i] {
			scale[i] *= wPos
		} else {
			scale[i] *= wNeg
		}
	}

	spec := labels.Spec.CopyArraySpec()
	spec.DataType = vox.T_float32
	spec.Interpolatable = true
	scales, err := batch.NewArrayFromFloat64s(spec, scale)
	if err != nil {
		return err
	}
	return b.SetArray(bl.scales, scales)
}

func sameShape(a, b vox.Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return vox.PointEquals(a, b)
}

func clip(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
