package graph

import "errors"

var (
	ErrRequiredInputUnresolved = errors.New("failed to find or create required input for task")
	ErrOutputsUnlinked         = errors.New("failed to link all task outputs")
	ErrFinalOutputUnreached    = errors.New("render graph timeline does not reach final asset")
	ErrGraphCycle              = errors.New("render graph contains a dependency cycle")
	ErrAssetNotCreated         = errors.New("asset used before it was created")
	ErrOutputNotStarted        = errors.New("asset output ended before it was started")
	ErrNoProvider              = errors.New("no asset provider registered for tag")
	ErrReplaceMultiple         = errors.New("cannot replace asset with more than one instance")
	ErrNoStrategy              = errors.New("scene has no render strategy")
)
