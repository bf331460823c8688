package renderer

import (
	"errors"
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-render/engine/config"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph/assets"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

var (
	ErrSceneAlreadyPushed = errors.New("scene already rendered by target")
	ErrSceneNotPushed     = errors.New("scene not rendered by target")
)

// ObservedScene is a scene a render target can observe.
type ObservedScene interface {
	graph.Scene
	RegisterObserver() (uint32, error)
	UnregisterObserver(index uint32) error
}

type TargetConfig struct {
	Allocator assets.Allocator
	Graphics  *config.GraphicsSettings
	Events    *core.EventSystem
	// Renders into a texture instead of a swapchain image.
	RenderTexture bool
	Width         uint32
	Height        uint32
}

type sceneView struct {
	scene    ObservedScene
	input    *assets.SceneInputAsset
	observer uint32
	graph    *graph.RenderGraph
}

/**
 * @brief An observer of one or more scenes. The target owns the asset pool its graphs share
 * and renders every pushed scene, in push order, into its swapframe.
 */
type RenderTarget struct {
	id            string
	events        *core.EventSystem
	pool          *graph.AssetPool
	swapframe     *assets.SwapframeAsset
	renderTexture bool

	mu    sync.Mutex
	views []*sceneView
}

func NewRenderTarget(cfg TargetConfig) *RenderTarget {
	if cfg.Allocator == nil {
		cfg.Allocator = assets.NewHeadlessAllocator()
	}
	if cfg.Graphics == nil {
		cfg.Graphics = config.NewGraphicsSettings(config.Default().Graphics)
	}
	id := uuid.NewString()
	factory := graph.NewAssetFactory()
	assets.RegisterProviders(factory, cfg.Allocator, cfg.Graphics)

	rt := &RenderTarget{
		id:            id,
		events:        cfg.Events,
		pool:          graph.NewAssetPool(factory, id),
		swapframe:     assets.NewSwapframeAsset(),
		renderTexture: cfg.RenderTexture,
	}
	rt.pool.PutAsset(rt.swapframe)
	if cfg.Width > 0 && cfg.Height > 0 {
		rt.pool.NotifyResize(cfg.Width, cfg.Height)
	}
	return rt
}

func (rt *RenderTarget) ID() string {
	return rt.id
}

func (rt *RenderTarget) AssetPool() *graph.AssetPool {
	return rt.pool
}

func (rt *RenderTarget) Swapframe() *assets.SwapframeAsset {
	return rt.swapframe
}

func (rt *RenderTarget) find(sceneID string) int {
	for i, v := range rt.views {
		if v.scene.ID() == sceneID {
			return i
		}
	}
	return -1
}

// PushScene registers the target as an observer of s and creates its graph.
func (rt *RenderTarget) PushScene(s ObservedScene) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.find(s.ID()) >= 0 {
		return fmt.Errorf("scene %s: %w", s.ID(), ErrSceneAlreadyPushed)
	}
	observer, err := s.RegisterObserver()
	if err != nil {
		return err
	}
	input := assets.NewSceneInputAsset(s)
	rt.pool.PutAsset(input)
	rt.views = append(rt.views, &sceneView{
		scene:    s,
		input:    input,
		observer: observer,
		graph:    graph.NewRenderGraph(rt.pool, s, rt.events),
	})
	core.LogDebug("render target %s observes scene %s as observer %d", rt.id, s.ID(), observer)
	return nil
}

// RemoveScene destroys the graph of the scene and releases the assets only it used.
func (rt *RenderTarget) RemoveScene(sceneID string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	i := rt.find(sceneID)
	if i < 0 {
		return fmt.Errorf("scene %s: %w", sceneID, ErrSceneNotPushed)
	}
	v := rt.views[i]
	rt.views = append(rt.views[:i], rt.views[i+1:]...)

	v.graph.Destroy()
	rt.pool.RemoveAsset(v.input)
	released := rt.pool.ReleaseUnused()
	core.LogDebug("render target %s dropped scene %s, released %d assets", rt.id, sceneID, released)
	return v.scene.UnregisterObserver(v.observer)
}

// Graph returns the graph rendering the scene, or nil.
func (rt *RenderTarget) Graph(sceneID string) *graph.RenderGraph {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if i := rt.find(sceneID); i >= 0 {
		return rt.views[i].graph
	}
	return nil
}

// Observer returns the observer index the target holds in the scene.
func (rt *RenderTarget) Observer(sceneID string) (uint32, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if i := rt.find(sceneID); i >= 0 {
		return rt.views[i].observer, true
	}
	return 0, false
}

// Scenes returns the ids of the observed scenes in render order.
func (rt *RenderTarget) Scenes() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	ids := make([]string, len(rt.views))
	for i, v := range rt.views {
		ids[i] = v.scene.ID()
	}
	return ids
}

func (rt *RenderTarget) Resize(width, height uint32) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pool.NotifyResize(width, height)
}

// InvalidateShadows recreates the shadow maps on the next frame.
func (rt *RenderTarget) InvalidateShadows() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.pool.Invalidate(graph.TagShadowMap)
}

func (rt *RenderTarget) Update(dt float32) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, v := range rt.views {
		v.graph.Update(dt)
	}
}

/**
 * @brief Records one frame. Graphs whose scene strategy changed are populated again, then
 * each graph runs its offscreen groups followed by the groups writing the frame image.
 */
func (rt *RenderTarget) Render(rec metadata.CommandRecorder, frame metadata.RenderPassTarget, image vk.Image) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.pool.StartFrame()
	rt.swapframe.SetFrame(frame, image)

	for _, v := range rt.views {
		if v.graph.NeedsRepopulation() || len(v.graph.Tasks()) == 0 {
			if err := v.graph.Populate(); err != nil {
				return fmt.Errorf("populate graph of scene %s: %w", v.scene.ID(), err)
			}
			core.LogDebug("render target %s populated %d tasks for scene %s", rt.id, len(v.graph.Tasks()), v.scene.ID())
		}
		ctx := graph.NewExecutionContext(rec, v.observer, rt.renderTexture)
		if err := v.graph.Execute(ctx); err != nil {
			return fmt.Errorf("render scene %s: %w", v.scene.ID(), err)
		}
		if err := v.graph.ExecuteFinal(ctx); err != nil {
			return fmt.Errorf("render scene %s: %w", v.scene.ID(), err)
		}
	}
	return nil
}

// Destroy stops observing every scene and frees every asset.
func (rt *RenderTarget) Destroy() {
	rt.mu.Lock()
	views := rt.views
	rt.views = nil
	rt.mu.Unlock()

	for _, v := range views {
		v.graph.Destroy()
		if err := v.scene.UnregisterObserver(v.observer); err != nil {
			core.LogWarn("render target %s: %s", rt.id, err.Error())
		}
	}
	rt.pool.Cleanup()
}
