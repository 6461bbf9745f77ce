package vox

import "errors"

// Error conditions raised by the request/response negotiation layers.  Errors are
// returned wrapped with context, so use errors.Is to classify them.
var (
	// ErrDimensionMismatch is returned when points or regions of differing
	// dimensionality are combined.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnsupportedKeyType is returned for a stream key that is neither an
	// array key nor a graph key, or whose family does not match its spec.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrUnmetDependency is returned during setup when a stage consumes a stream
	// that is not provided upstream.
	ErrUnmetDependency = errors.New("unmet dependency")

	// ErrShapeMismatch is returned when arrays that must share a shape do not.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrRequestUnsatisfiable is returned when a provider cannot cover a requested
	// stream or region.
	ErrRequestUnsatisfiable = errors.New("request unsatisfiable")

	// ErrConflictingSpec is returned when merging specs whose non-ROI fields disagree.
	ErrConflictingSpec = errors.New("conflicting spec")

	// ErrInvalidSpec is returned for malformed specs or payloads, e.g., a missing
	// voxel size or a data buffer of the wrong length.
	ErrInvalidSpec = errors.New("invalid spec")

	// ErrNotBuilt is returned when a pipeline is used before it is built.
	ErrNotBuilt = errors.New("pipeline not built")
)
