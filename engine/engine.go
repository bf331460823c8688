package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
	"github.com/spaghettifunk/anima-render/engine/renderer/strategy"
)

var (
	ErrNotInitialized = errors.New("engine not initialized")
	ErrUnknownScene   = errors.New("unknown scene")
	ErrUnknownTarget  = errors.New("unknown render target")
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// FrameSource returns the image and render pass a target records its frame into.
type FrameSource func(rt *renderer.RenderTarget) (metadata.RenderPassTarget, vk.Image)

func headlessFrame(rt *renderer.RenderTarget) (metadata.RenderPassTarget, vk.Image) {
	w, h := rt.AssetPool().Size()
	return metadata.RenderPassTarget{Width: w, Height: h, Depth: 1}, nil
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool

	settings *config.Settings
	graphics *config.GraphicsSettings
	watcher  *config.Watcher

	events     *core.EventSystem
	registry   *ecs.Registry
	pipelines  *materials.PipelineCache
	fullscreen strategy.Pipelines
	allocator  assets.Allocator
	frames     FrameSource

	mu      sync.Mutex
	scenes  []*scene.BatchedScene
	targets []*renderer.RenderTarget
	target  *renderer.RenderTarget

	width      uint32
	height     uint32
	clock      *core.Clock
	metrics    *core.Metrics
	lastTime   float64
	frameCount uint64
}

// New loads the settings of the game and creates the engine subsystems.
func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &ApplicationConfig{}
	}
	app := g.ApplicationConfig

	settings := config.Default()
	if app.SettingsPath != "" {
		s, err := config.Load(app.SettingsPath)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		settings = s
	}
	core.SetLogLevel(core.ParseLogLevel(settings.Engine.LogLevel))

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		settings:     settings,
		graphics:     config.NewGraphicsSettings(settings.Graphics),
		events:       core.NewEventSystem(),
		registry:     ecs.NewRegistry(),
		pipelines:    materials.NewPipelineCache(),
		allocator:    assets.NewHeadlessAllocator(),
		frames:       headlessFrame,
		width:        app.StartWidth,
		height:       app.StartHeight,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
	e.isRunning.Store(true)

	if app.SettingsPath != "" && app.WatchSettings {
		w, err := config.NewWatcher(app.SettingsPath, e.graphics, e.events)
		if err != nil {
			return nil, err
		}
		w.OnChange(e.onSettingsChanged)
		e.watcher = w
	}
	return e, nil
}

// SetAllocator replaces the attachment allocator of targets created afterwards.
func (e *Engine) SetAllocator(alloc assets.Allocator) {
	e.allocator = alloc
}

// SetFrameSource replaces the headless frame targets, eg with swapchain images.
func (e *Engine) SetFrameSource(fn FrameSource) {
	e.frames = fn
}

// SetFullscreenPipelines sets the pipelines used by scenes created with the default strategy.
func (e *Engine) SetFullscreenPipelines(p strategy.Pipelines) {
	e.fullscreen = p
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if e.watcher != nil {
		if err := e.watcher.Start(); err != nil {
			return err
		}
	}

	e.target = e.CreateTarget(e.width, e.height, false)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized (%dx%d)", e.gameInstance.ApplicationConfig.Name, e.width, e.height)
	return nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Settings() *config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) Graphics() *config.GraphicsSettings {
	return e.graphics
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Registry() *ecs.Registry {
	return e.registry
}

func (e *Engine) Pipelines() *materials.PipelineCache {
	return e.pipelines
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// FrameCount returns the number of frames rendered so far.
func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

// DefaultTarget returns the target created by Initialize.
func (e *Engine) DefaultTarget() *renderer.RenderTarget {
	return e.target
}

/**
 * @brief Creates a batched scene sharing the engine registry. A nil strategy selects the
 * forward strategy driven by the engine graphics settings.
 */
func (e *Engine) CreateScene(strat graph.Strategy) *scene.BatchedScene {
	if strat == nil {
		strat = strategy.NewForwardStrategy(e.graphics, e.fullscreen)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := scene.NewBatchedScene(scene.Config{
		Registry:     e.registry,
		Events:       e.events,
		Strategy:     strat,
		Capacity:     e.settings.Renderer.DefaultSceneObjectCapacity,
		MaxObservers: e.settings.Renderer.MaxSceneObservers,
	})
	e.scenes = append(e.scenes, s)
	return s
}

// DestroyScene stops every target from observing the scene and releases its objects.
func (e *Engine) DestroyScene(id string) error {
	e.mu.Lock()
	var s *scene.BatchedScene
	for i, candidate := range e.scenes {
		if candidate.ID() == id {
			s = candidate
			e.scenes = append(e.scenes[:i], e.scenes[i+1:]...)
			break
		}
	}
	targets := append([]*renderer.RenderTarget(nil), e.targets...)
	e.mu.Unlock()

	if s == nil {
		return fmt.Errorf("scene %s: %w", id, ErrUnknownScene)
	}
	for _, rt := range targets {
		if err := rt.RemoveScene(id); err != nil && !errors.Is(err, renderer.ErrSceneNotPushed) {
			return err
		}
	}
	s.Destroy()
	return nil
}

func (e *Engine) Scenes() []*scene.BatchedScene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*scene.BatchedScene(nil), e.scenes...)
}

func (e *Engine) CreateTarget(width, height uint32, renderTexture bool) *renderer.RenderTarget {
	rt := renderer.NewRenderTarget(renderer.TargetConfig{
		Allocator:     e.allocator,
		Graphics:      e.graphics,
		Events:        e.events,
		RenderTexture: renderTexture,
		Width:         width,
		Height:        height,
	})
	e.mu.Lock()
	e.targets = append(e.targets, rt)
	e.mu.Unlock()
	return rt
}

func (e *Engine) DestroyTarget(id string) error {
	e.mu.Lock()
	var rt *renderer.RenderTarget
	for i, candidate := range e.targets {
		if candidate.ID() == id {
			rt = candidate
			e.targets = append(e.targets[:i], e.targets[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	if rt == nil {
		return fmt.Errorf("render target %s: %w", id, ErrUnknownTarget)
	}
	if rt == e.target {
		e.target = nil
	}
	rt.Destroy()
	return nil
}

func (e *Engine) Targets() []*renderer.RenderTarget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*renderer.RenderTarget(nil), e.targets...)
}

/**
 * @brief Runs one frame: game update, deferred scene changes, descriptor frame start and the
 * render graphs of every target, in creation order.
 */
func (e *Engine) Frame(rec metadata.CommandRecorder) error {
	if e.currentStage < EngineStageInitialized || e.currentStage == EngineStageShuttingDown {
		return ErrNotInitialized
	}
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	frameStartTime := time.Now()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}

	scenes := e.Scenes()
	for _, s := range scenes {
		s.SyncObjects()
		s.HandleFrameStart()
	}
	for _, rt := range e.Targets() {
		rt.Update(float32(delta))
		frame, image := e.frames(rt)
		if err := rt.Render(rec, frame, image); err != nil {
			return fmt.Errorf("render target %s: %w", rt.ID(), err)
		}
	}

	e.metrics.Update(time.Since(frameStartTime).Seconds())
	e.frameCount++
	e.lastTime = currentTime
	return nil
}

// Run renders frames until Stop is called, a quit event is fired or, when
// frames is positive, that many frames were rendered.
func (e *Engine) Run(rec metadata.CommandRecorder, frames uint64) error {
	if e.currentStage != EngineStageInitialized {
		return ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	defer func() {
		if e.currentStage == EngineStageRunning {
			e.currentStage = EngineStageInitialized
		}
	}()

	for e.isRunning.Load() {
		if frames > 0 && e.frameCount >= frames {
			break
		}
		if err := e.Frame(rec); err != nil {
			core.LogError("frame %d failed, shutting down: %s", e.frameCount, err)
			e.isRunning.Store(false)
			return err
		}
	}
	fps, frameTime := e.metrics.Frame()
	core.LogInfo("rendered %d frames (%.1f fps, %.3f ms avg)", e.frameCount, fps, frameTime)
	return nil
}

func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)
	e.clock.Stop()

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil && !errors.Is(err, config.ErrWatcherClosed) {
			return err
		}
	}

	e.mu.Lock()
	targets, scenes := e.targets, e.scenes
	e.targets, e.scenes, e.target = nil, nil, nil
	e.mu.Unlock()

	for _, rt := range targets {
		rt.Destroy()
	}
	for _, s := range scenes {
		s.Destroy()
	}
	e.pipelines.Cleanup()

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	return e.events.Shutdown()
}

// ApplySettings applies new settings the same way a reload of the settings file does.
func (e *Engine) ApplySettings(s *config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	core.SetLogLevel(core.ParseLogLevel(s.Engine.LogLevel))
	prev := e.graphics.Apply(s.Graphics)
	e.onSettingsChanged(prev, s)
	e.events.Fire(core.EVENT_CODE_SETTINGS_CHANGED, e, s)
	return nil
}

func (e *Engine) onSettingsChanged(prev config.GraphicsValues, next *config.Settings) {
	e.mu.Lock()
	e.settings = next
	targets := append([]*renderer.RenderTarget(nil), e.targets...)
	e.mu.Unlock()

	if prev.ShadowMapResolution == next.Graphics.ShadowMapResolution {
		return
	}
	for _, rt := range targets {
		n := rt.InvalidateShadows()
		core.LogDebug("invalidated %d shadow maps of target %s", n, rt.ID())
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	re, ok := context.Data.(core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", code)
		return false
	}
	if re.Width == 0 || re.Height == 0 {
		core.LogDebug("window minimized, keeping the render target size")
		return false
	}
	e.width, e.height = re.Width, re.Height
	if e.target != nil {
		e.target.Resize(re.Width, re.Height)
	}
	// other listeners may want to know as well
	return false
}

// GetFramebufferSize returns the width and height (in this order) of the default target.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}
