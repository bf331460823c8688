package scene

import "errors"

var (
	ErrDescriptorAllocation = errors.New("failed to allocate object descriptors")
	ErrMissingComponent     = errors.New("entity is missing its drawable component")
	ErrUnknownPipeline      = errors.New("object has no material pipeline")
	ErrMaxObservers         = errors.New("max observer count for scene reached")
	ErrUnknownObserver      = errors.New("observer is not registered")
	ErrUnknownObject        = errors.New("no object for scene key")
)
