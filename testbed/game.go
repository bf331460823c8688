package testbed

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
	"github.com/spaghettifunk/anima-render/engine/renderer/strategy"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
)

// Pipeline ids of the demo materials.
const (
	PipelineLit uint32 = iota + 1
	PipelineGlass
	PipelinePostFX
	PipelineBloom
	PipelineFade
)

// Specialization used by the lit pipeline for highlighted objects.
const SpecializationHighlight uint32 = 1

type Options struct {
	SettingsPath  string
	WatchSettings bool
	Width         uint32
	Height        uint32
	// Number of objects in the demo scene. The first three form a hierarchy.
	Objects  int
	Recorder *vulkan.HeadlessRecorder
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine   *engine.Engine
	recorder *vulkan.HeadlessRecorder
	objects  int

	scene *scene.BatchedScene
	lit   *materials.MaterialPipeline
	glass *materials.MaterialPipeline

	cubes     []ecs.Entity
	drawables []*scene.Drawable
	linked    bool

	frame     uint64
	commands  int
	passes    int
	lastDelta float64
}

func NewTestGame(opts Options) *TestGame {
	if opts.Recorder == nil {
		opts.Recorder = vulkan.NewHeadlessRecorder(false)
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:          "Anima Render Dry Run",
				SettingsPath:  opts.SettingsPath,
				WatchSettings: opts.WatchSettings,
				StartWidth:    opts.Width,
				StartHeight:   opts.Height,
			},
			State: &gameState{
				recorder: opts.Recorder,
				objects:  opts.Objects,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Scene returns the demo scene once the game is initialized.
func (g *TestGame) Scene() *scene.BatchedScene {
	return g.state().scene
}

// Cubes returns the entities of the demo objects in creation order.
func (g *TestGame) Cubes() []ecs.Entity {
	return g.state().cubes
}

// Stats returns the number of commands and render passes recorded by the last frame.
func (g *TestGame) Stats() (commands int, passes int) {
	s := g.state()
	g.collect()
	return s.commands, s.passes
}

func (g *TestGame) createPipelines(pc *materials.PipelineCache) error {
	state := g.state()

	sceneData := descriptors.NewSceneFactory("scene")
	objectData := descriptors.NewObjectFactory("object", 0)

	lit, err := pc.Create(materials.MaterialPipelineConfig{
		ID:     PipelineLit,
		Name:   "lit",
		Layout: &materials.PipelineLayout{Factories: []descriptors.Factory{sceneData}},
		Variants: []materials.PipelineVariant{
			{Phase: metadata.RenderPhaseDefault, Pass: metadata.RenderPassStandard, Specializations: map[uint32]vk.Pipeline{SpecializationHighlight: nil}},
			{Phase: metadata.RenderPhaseDefault, Pass: metadata.RenderPassSwapframe, Specializations: map[uint32]vk.Pipeline{SpecializationHighlight: nil}},
			{Phase: metadata.RenderPhaseShadowMap, Pass: metadata.RenderPassShadowMap},
		},
	})
	if err != nil {
		return err
	}
	state.lit = lit

	glass, err := pc.Create(materials.MaterialPipelineConfig{
		ID:                  PipelineGlass,
		Name:                "glass",
		Layout:              &materials.PipelineLayout{Factories: []descriptors.Factory{sceneData, objectData}},
		PreserveObjectOrder: true,
		Variants: []materials.PipelineVariant{
			{Phase: metadata.RenderPhaseDefault, Pass: metadata.RenderPassStandard},
			{Phase: metadata.RenderPhaseDefault, Pass: metadata.RenderPassSwapframe},
		},
	})
	if err != nil {
		return err
	}
	state.glass = glass

	fullscreen := func(id uint32, name string) (*materials.MaterialPipeline, error) {
		return pc.Create(materials.MaterialPipelineConfig{
			ID:     id,
			Name:   name,
			Layout: &materials.PipelineLayout{},
			Variants: []materials.PipelineVariant{
				{Phase: metadata.RenderPhasePostFX, Pass: metadata.RenderPassPostFX},
				{Phase: metadata.RenderPhasePostFX, Pass: metadata.RenderPassSwapframe},
			},
		})
	}
	var pipelines strategy.Pipelines
	if pipelines.PostFX, err = fullscreen(PipelinePostFX, "postfx"); err != nil {
		return err
	}
	if pipelines.Bloom, err = fullscreen(PipelineBloom, "bloom"); err != nil {
		return err
	}
	if pipelines.Fade, err = fullscreen(PipelineFade, "fade"); err != nil {
		return err
	}
	state.engine.SetFullscreenPipelines(pipelines)
	return nil
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.state()
	state.engine = e

	if err := g.createPipelines(e.Pipelines()); err != nil {
		return fmt.Errorf("failed to create demo pipelines: %w", err)
	}

	state.scene = e.CreateScene(nil)
	reg := e.Registry()
	for i := 0; i < state.objects; i++ {
		d := scene.Drawable{Pipeline: state.lit, IndexCount: 36}
		// every fourth object is see through
		if i%4 == 3 {
			d.Pipeline = state.glass
			d.Transparent = true
		}
		speed := metadata.UpdateSpeedStatic
		if i%2 == 1 {
			speed = metadata.UpdateSpeedDynamic
		}
		entity := reg.CreateEntity()
		drawable := ecs.Emplace(reg, entity, d)
		state.scene.CreateAndAddObject(entity, drawable, speed)
		state.cubes = append(state.cubes, entity)
		state.drawables = append(state.drawables, drawable)
	}

	if err := e.DefaultTarget().PushScene(state.scene); err != nil {
		return err
	}
	core.LogInfo("demo scene %s queued %d objects", state.scene.ID(), state.objects)
	return nil
}

// collect reads the commands recorded since the last call.
func (g *TestGame) collect() {
	state := g.state()
	if len(state.recorder.Commands) == 0 {
		return
	}
	state.commands = len(state.recorder.Commands)
	state.passes = state.recorder.Count(vulkan.OpBeginRenderPass)
	state.recorder.Reset()
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	g.collect()
	if state.frame > 0 {
		core.LogDebug("frame %d: %d commands, %d render passes (%.3f ms)", state.frame, state.commands, state.passes, state.lastDelta*1000)
	}
	state.lastDelta = deltaTime

	// The first three cubes form a chain: removing the first removes all of
	// them. Objects only get their link once they were synced.
	if !state.linked && state.frame > 0 && len(state.cubes) >= 3 {
		reg := state.engine.Registry()
		if err := scene.LinkChild(reg, state.cubes[0], state.cubes[1]); err != nil {
			return err
		}
		if err := scene.LinkChild(reg, state.cubes[1], state.cubes[2]); err != nil {
			return err
		}
		state.linked = true
	}

	// Blink the highlight on the first cube every other frame.
	if len(state.drawables) > 0 {
		if state.frame%2 == 1 {
			state.drawables[0].SetSpecialization(SpecializationHighlight)
		} else {
			state.drawables[0].SetSpecialization(0)
		}
	}

	state.frame++
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	g.collect()
	core.LogInfo("testbed shut down after %d frames, last frame recorded %d commands", state.frame, state.commands)
	return nil
}
