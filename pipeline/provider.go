package pipeline

import "github.com/janelia-flyem/voxpipe/batch"

// Provider is the upstream end of a pipeline, typically backed by some data store.
type Provider interface {
	// Setup prepares the provider and its specs.  It is called once, when the
	// pipeline is built, before any stage's Setup.
	Setup() error

	// Spec returns the streams the provider can serve.
	Spec() *batch.ProviderSpec

	// Provide returns a batch whose payloads cover every requested region at the
	// requested voxel size and data type.  A provider that cannot do so must fail
	// with vox.ErrRequestUnsatisfiable instead of returning less.
	Provide(req *batch.Request) (*batch.Batch, error)
}
