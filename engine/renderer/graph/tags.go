package graph

// Well known asset tags.
const (
	// The scene objects of the scene being rendered. Provided externally.
	TagSceneInput = "scene-input"
	// Color output of rendering the scene, before post processing.
	TagRenderedSceneOutput = "rendered-scene-output"
	// Output of a post processing pass.
	TagPostFXOutput = "postfx-output"
	// The image presented for the observer. Provided externally.
	TagFinalFrameOutput = "final-frame-output"
	// Shadow maps of the scene lights.
	TagShadowMap = "shadowmap"
	// Ping-pong attachments used to blur the bright parts of the scene.
	TagBloomColorAttachmentPair = "bloom-color-attachment-pair"
)

// Well known task ids. Used in SharedWith lists.
const (
	TaskIDSceneRender = "scene-render"
	TaskIDShadowMap   = "shadow-map"
	TaskIDPostFX      = "postfx"
	TaskIDBloom       = "bloom"
	TaskIDFadeEffect  = "fade-effect"
)
