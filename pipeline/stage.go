/*
	Package pipeline drives requests through a chain of stages.  A request travels
	upstream from the outermost stage to a Provider, each stage rewriting it on the way,
	and the resulting batch travels back downstream through the same stages.
*/
package pipeline

import (
	"fmt"

	"github.com/janelia-flyem/voxpipe/batch"
	"github.com/janelia-flyem/voxpipe/vox"
)

// Stage is a pipeline node.  After Setup, a stage must not modify its own fields so a
// single instance can serve overlapping requests.
type Stage interface {
	// Setup declares the streams the stage needs from upstream and the streams it
	// adds or changes.  It is called once, when the pipeline is built.
	Setup(s *SetupContext) error

	// Prepare rewrites a copy of the downstream request into the request sent
	// upstream.  Anything Process needs to know about this request must be returned
	// in the Prepared value.
	Prepare(req *batch.Request) (Prepared, error)

	// Process modifies the upstream batch for the downstream request.  It is not
	// called if Prepare returned a Prepared value with Skip set.
	Process(b *batch.Batch, req *batch.Request, p Prepared) error
}

// Prepared carries request-scoped state from a stage's Prepare to its Process.
type Prepared struct {
	// Skip tells the driver not to call Process for this request.
	Skip bool

	// Value is any stage-specific state.
	Value interface{}
}

// SetupContext is handed to a stage's Setup.  It exposes the specs provided upstream
// of the stage and collects the specs the stage provides or updates.
type SetupContext struct {
	name     string
	upstream *batch.ProviderSpec
	changes  *batch.ProviderSpec
}

func newSetupContext(name string, upstream *batch.ProviderSpec) *SetupContext {
	return &SetupContext{
		name:     name,
		upstream: upstream.Copy(),
		changes:  batch.NewProviderSpec(),
	}
}

// Spec returns a copy of the specs provided upstream of the stage.
func (s *SetupContext) Spec() *batch.ProviderSpec {
	return s.upstream.Copy()
}

// Require returns ErrUnmetDependency if any key is not provided upstream.
func (s *SetupContext) Require(keys ...batch.Key) error {
	for _, k := range keys {
		if !s.upstream.Has(k) {
			return fmt.Errorf("%w: %s needs %s, which is not provided upstream", vox.ErrUnmetDependency, s.name, k)
		}
	}
	return nil
}

// Provides declares a new stream.  The key must not already be provided upstream.
func (s *SetupContext) Provides(key batch.Key, spec batch.Spec) error {
	if s.upstream.Has(key) {
		return fmt.Errorf("%w: %s provides %s, which is already provided upstream", vox.ErrConflictingSpec, s.name, key)
	}
	return s.set(key, spec)
}

// Updates replaces the spec of a stream provided upstream.
func (s *SetupContext) Updates(key batch.Key, spec batch.Spec) error {
	if !s.upstream.Has(key) {
		return fmt.Errorf("%w: %s updates %s, which is not provided upstream", vox.ErrUnmetDependency, s.name, key)
	}
	return s.set(key, spec)
}

func (s *SetupContext) set(key batch.Key, spec batch.Spec) error {
	if as, ok := spec.(batch.ArraySpec); ok {
		if err := as.Validate(); err != nil {
			return fmt.Errorf("%s spec for %s: %w", s.name, key, err)
		}
	}
	return s.changes.Set(key, spec)
}

// downstream returns the upstream specs with the stage's changes folded in.
func (s *SetupContext) downstream() (*batch.ProviderSpec, error) {
	spec := s.upstream.Copy()
	var err error
	s.changes.Range(func(k batch.Key, v batch.Spec) bool {
		err = spec.Set(k, v)
		return err == nil
	})
	return spec, err
}

func stageName(st Stage) string {
	if named, ok := st.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%T", st)
}
