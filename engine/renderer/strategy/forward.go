package strategy

import (
	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/tasks"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
)

// Pipelines are the fullscreen pipelines used by the optional passes. Any of
// them may be nil when recording headless.
type Pipelines struct {
	PostFX *materials.MaterialPipeline
	Bloom  *materials.MaterialPipeline
	Fade   *materials.MaterialPipeline
}

/**
 * @brief Forward rendering: shadow map, scene, bloom, a chain of post fx passes and a fade in,
 * each enabled by the graphics settings. The strategy version is the settings version, so
 * graphs repopulate whenever the settings are applied.
 */
type ForwardStrategy struct {
	gfx         *config.GraphicsSettings
	pipelines   Pipelines
	bloomPasses int
}

func NewForwardStrategy(gfx *config.GraphicsSettings, pipelines Pipelines) *ForwardStrategy {
	return &ForwardStrategy{gfx: gfx, pipelines: pipelines, bloomPasses: tasks.DefaultBloomPasses}
}

func (s *ForwardStrategy) Version() uint32 {
	return s.gfx.Version()
}

func (s *ForwardStrategy) Populate(g *graph.RenderGraph) error {
	v := s.gfx.Values()
	sceneID := g.Scene().ID()

	var list []graph.Task
	if v.ShadowsEnabled {
		list = append(list, tasks.NewShadowMapTask(sceneID))
	}
	list = append(list, tasks.NewSceneRenderTask(sceneID))

	passes := 0
	if v.PostFXEnabled {
		passes = int(v.PostFXPasses)
	}
	bloom := v.BloomEnabled
	if bloom && passes == 0 {
		core.LogWarn("bloom needs a post fx pass to be composited, disabling it for scene %s", sceneID)
		bloom = false
	}
	if bloom {
		list = append(list, tasks.NewBloomTask(s.pipelines.Bloom, s.bloomPasses))
	}
	for i := 0; i < passes; i++ {
		cfg := tasks.PostFXConfig{Pipeline: s.pipelines.PostFX, InputShare: graph.Exclusive}
		if i == 0 && bloom {
			cfg.InputShare = graph.Shared
			cfg.UseBloom = true
		}
		list = append(list, tasks.NewPostFXTask(cfg))
	}
	if v.FadeInSeconds > 0 {
		list = append(list, tasks.NewFadeEffectTask(s.pipelines.Fade, v.FadeInSeconds))
	}

	for _, t := range list {
		if _, err := g.PutTask(t); err != nil {
			return err
		}
	}
	core.LogDebug("forward strategy populated %d tasks for scene %s (settings version %d)", len(list), sceneID, s.gfx.Version())
	return nil
}
