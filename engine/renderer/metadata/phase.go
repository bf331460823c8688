package metadata

/** @brief The phase a scene is being rendered in. Pipelines may have a variant per phase. */
type RenderPhase uint8

const (
	/** @brief Regular color rendering of the scene. */
	RenderPhaseDefault RenderPhase = iota
	/** @brief Depth-only rendering into shadow maps. */
	RenderPhaseShadowMap
	/** @brief Overlay rendering on top of the scene. */
	RenderPhaseOverlay
	/** @brief Fullscreen post processing. */
	RenderPhasePostFX

	RenderPhaseCount
)

func (p RenderPhase) String() string {
	switch p {
	case RenderPhaseDefault:
		return "default"
	case RenderPhaseShadowMap:
		return "shadowmap"
	case RenderPhaseOverlay:
		return "overlay"
	case RenderPhasePostFX:
		return "postfx"
	default:
		return "unknown"
	}
}

/** @brief Identifies a render pass layout. Pipelines are compiled against a specific pass. */
type RenderPassID uint32

const (
	RenderPassStandard RenderPassID = iota
	RenderPassShadowMap
	RenderPassPostFX
	RenderPassSwapframe
)
