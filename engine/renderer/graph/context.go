package graph

import (
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// ExecutionContext is handed to assets and tasks while a graph executes.
type ExecutionContext struct {
	Recorder metadata.CommandRecorder
	// Index of the observer within the scene being rendered.
	ObserverIndex uint32
	// True when the observer renders into a texture instead of a swapchain image.
	RenderingToRenderTexture bool
}

func NewExecutionContext(recorder metadata.CommandRecorder, observerIndex uint32, renderTexture bool) *ExecutionContext {
	return &ExecutionContext{
		Recorder:                 recorder,
		ObserverIndex:            observerIndex,
		RenderingToRenderTexture: renderTexture,
	}
}

// InitContext is handed to assets when they are created.
type InitContext struct {
	TargetID string
	Width    uint32
	Height   uint32
}

// TaskContext is handed to tasks when they are added to a graph.
type TaskContext struct {
	TargetID string
	Scene    Scene
	Events   *core.EventSystem
}

// Scene is what the graph needs from the scene it renders.
type Scene interface {
	ID() string
	RenderStrategy() Strategy
}

// Strategy decides which tasks a graph contains. Graphs repopulate when the
// strategy of their scene changes identity or version.
type Strategy interface {
	Populate(g *RenderGraph) error
	Version() uint32
}
