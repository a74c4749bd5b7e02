package houdini

// ConcurrentInference is implemented by base Engine as no-ops; subclasses
// (peer engines sharing progress in a parallel-inference deployment) may
// override these to exchange refutations (SPEC_FULL §4.F, "Non-goals":
// parallel inference across solver instances is hooked but not
// implemented here).
type ConcurrentInference interface {
	ExchangeRefutedAnnotations([]RefutedAnnotation)
	ApplyRefutedSharedAnnotations([]RefutedAnnotation)
	ShareRefutedAnnotation(RefutedAnnotation)
	TaskID() string
}

// ExchangeRefutedAnnotations is a no-op in the base engine.
func (e *Engine) ExchangeRefutedAnnotations([]RefutedAnnotation) {}

// ApplyRefutedSharedAnnotations is a no-op in the base engine.
func (e *Engine) ApplyRefutedSharedAnnotations([]RefutedAnnotation) {}

// ShareRefutedAnnotation is a no-op in the base engine.
func (e *Engine) ShareRefutedAnnotation(RefutedAnnotation) {}

// TaskID returns the empty string in the base engine.
func (e *Engine) TaskID() string { return "" }

var _ ConcurrentInference = (*Engine)(nil)
