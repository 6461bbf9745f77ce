package pipeline

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/vox"
	"github.com/twinj/uuid"
)

// Pipeline is a Provider followed by stages, given from upstream to downstream.
// Build must be called once before requesting batches.  A built pipeline may serve
// concurrent RequestBatch calls.
type Pipeline struct {
	source Provider
	stages []Stage

	// specs[i] is the spec seen downstream of stages[i].
	specs []*batch.ProviderSpec
	built bool
}

// New returns an unbuilt pipeline.  The first stage is the one closest to the source.
func New(source Provider, stages ...Stage) *Pipeline {
	return &Pipeline{
		source: source,
		stages: append([]Stage{}, stages...),
	}
}

// Build sets up the source and then every stage in upstream-to-downstream order.
func (p *Pipeline) Build() error {
	if p.source == nil {
		return fmt.Errorf("%w: pipeline has no source", vox.ErrInvalidSpec)
	}
	if err := p.source.Setup(); err != nil {
		return fmt.Errorf("source setup: %w", err)
	}
	spec := p.source.Spec()
	if spec == nil {
		spec = batch.NewProviderSpec()
	}
	specs := make([]*batch.ProviderSpec, len(p.stages))
	for i, st := range p.stages {
		name := stageName(st)
		ctx := newSetupContext(name, spec)
		if err := st.Setup(ctx); err != nil {
			return fmt.Errorf("setup of %s: %w", name, err)
		}
		var err error
		if spec, err = ctx.downstream(); err != nil {
			return fmt.Errorf("setup of %s: %w", name, err)
		}
		specs[i] = spec
		vox.Debugf("Stage %s set up, provides:\n%s", name, spec)
	}
	p.specs = specs
	p.built = true
	return nil
}

// Spec returns a copy of the streams served by the pipeline, or nil if the pipeline
// has not been built.
func (p *Pipeline) Spec() *batch.ProviderSpec {
	if !p.built {
		return nil
	}
	if len(p.specs) == 0 {
		return p.source.Spec().Copy()
	}
	return p.specs[len(p.specs)-1].Copy()
}

// RequestBatch sends a request up the pipeline and returns a batch holding exactly
// the requested streams over the requested regions.  The request is not modified.
func (p *Pipeline) RequestBatch(req *batch.Request) (*batch.Batch, error) {
	if !p.built {
		return nil, vox.ErrNotBuilt
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", vox.ErrInvalidSpec)
	}
	if err := p.checkRequest(req); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%x", uuid.NewV4().Bytes()[:6])
	tlog := vox.NewTimeLog()
	b, err := p.traverse(len(p.stages)-1, req.Copy(), id)
	if err != nil {
		return nil, err
	}
	if vox.DebugEnabled() {
		tlog.Debugf("[%s] batch %d with %d streams, %s", id, b.ID, b.Len(), humanize.Bytes(uint64(b.MemorySize())))
	}
	return b, nil
}

// checkRequest verifies that every requested stream is served and covers the
// requested region.
func (p *Pipeline) checkRequest(req *batch.Request) error {
	provided := p.Spec()
	var err error
	req.Range(func(k batch.Key, want batch.Spec) bool {
		have, found := provided.Get(k)
		if !found {
			err = fmt.Errorf("%w: %s is not provided by the pipeline", vox.ErrRequestUnsatisfiable, k)
			return false
		}
		if have.IsNonspatial() || want.IsNonspatial() || !want.GetRoi().Defined() {
			return true
		}
		var inside bool
		if inside, err = have.GetRoi().Contains(want.GetRoi()); err != nil {
			err = fmt.Errorf("%s: %w", k, err)
			return false
		}
		if !inside {
			err = fmt.Errorf("%w: %s requested at %s but provided at %s",
				vox.ErrRequestUnsatisfiable, k, want.GetRoi(), have.GetRoi())
			return false
		}
		return true
	})
	return err
}

// traverse resolves the request at stage i, where i < 0 is the source.
func (p *Pipeline) traverse(i int, req *batch.Request, id string) (*batch.Batch, error) {
	if i < 0 {
		tlog := vox.NewTimeLog()
		b, err := p.source.Provide(req.Copy())
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		tlog.Debugf("[%s] source provided batch %d", id, b.ID)
		return b.Crop(req)
	}

	st := p.stages[i]
	name := stageName(st)
	upstream := req.Copy()
	prepared, err := st.Prepare(upstream)
	if err != nil {
		return nil, fmt.Errorf("prepare of %s: %w", name, err)
	}
	b, err := p.traverse(i-1, upstream, id)
	if err != nil {
		return nil, err
	}
	if prepared.Skip {
		vox.Debugf("[%s] %s skipped", id, name)
	} else {
		tlog := vox.NewTimeLog()
		if err := st.Process(b, req.Copy(), prepared); err != nil {
			return nil, fmt.Errorf("process of %s: %w", name, err)
		}
		tlog.Debugf("[%s] %s processed batch %d", id, name, b.ID)
	}
	cropped, err := b.Crop(req)
	if err != nil {
		return nil, fmt.Errorf("output of %s: %w", name, err)
	}
	return cropped, nil
}
