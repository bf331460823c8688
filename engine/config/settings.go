package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalidCapacity   = errors.New("scene object capacity must be positive")
	ErrInvalidObservers  = errors.New("max scene observers must be positive")
	ErrInvalidResolution = errors.New("shadow map resolution must be positive")
)

type EngineSettings struct {
	LogLevel string `toml:"log_level"`
}

type RendererSettings struct {
	DefaultSceneObjectCapacity uint32 `toml:"default_scene_object_capacity"`
	MaxSceneObservers          uint32 `toml:"max_scene_observers"`
}

// GraphicsValues is the plain, serializable part of the graphics settings.
type GraphicsValues struct {
	ShadowsEnabled      bool    `toml:"shadows_enabled"`
	ShadowMapResolution uint32  `toml:"shadow_map_resolution"`
	BloomEnabled        bool    `toml:"bloom_enabled"`
	PostFXEnabled       bool    `toml:"post_fx_enabled"`
	PostFXPasses        uint32  `toml:"post_fx_passes"`
	FadeInSeconds       float32 `toml:"fade_in_seconds"`
}

// GraphicsSettings wraps GraphicsValues with a version that changes every time
// the values are applied, so render strategies can tell when to repopulate.
type GraphicsSettings struct {
	mu      sync.RWMutex
	values  GraphicsValues
	version uint32
}

func NewGraphicsSettings(v GraphicsValues) *GraphicsSettings {
	return &GraphicsSettings{values: v}
}

func (g *GraphicsSettings) Values() GraphicsValues {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values
}

func (g *GraphicsSettings) Version() uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Apply replaces the values and bumps the version. It returns the previous values.
func (g *GraphicsSettings) Apply(v GraphicsValues) GraphicsValues {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.values
	g.values = v
	g.version++
	return prev
}

func (g *GraphicsSettings) SetShadowsEnabled(enabled bool) {
	v := g.Values()
	v.ShadowsEnabled = enabled
	g.Apply(v)
}

func (g *GraphicsSettings) SetBloomEnabled(enabled bool) {
	v := g.Values()
	v.BloomEnabled = enabled
	g.Apply(v)
}

func (g *GraphicsSettings) SetPostFXPasses(passes uint32) {
	v := g.Values()
	v.PostFXPasses = passes
	v.PostFXEnabled = passes > 0
	g.Apply(v)
}

// Settings is the on-disk settings file.
type Settings struct {
	Engine   EngineSettings   `toml:"engine"`
	Renderer RendererSettings `toml:"renderer"`
	Graphics GraphicsValues   `toml:"graphics"`
}

func Default() *Settings {
	return &Settings{
		Engine: EngineSettings{
			LogLevel: "info",
		},
		Renderer: RendererSettings{
			DefaultSceneObjectCapacity: 128,
			MaxSceneObservers:          16,
		},
		Graphics: GraphicsValues{
			ShadowsEnabled:      true,
			ShadowMapResolution: 2048,
			BloomEnabled:        false,
			PostFXEnabled:       true,
			PostFXPasses:        1,
			FadeInSeconds:       0,
		},
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep their default value.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Settings) Validate() error {
	if s.Renderer.DefaultSceneObjectCapacity == 0 {
		return ErrInvalidCapacity
	}
	if s.Renderer.MaxSceneObservers == 0 {
		return ErrInvalidObservers
	}
	if s.Graphics.ShadowMapResolution == 0 {
		return ErrInvalidResolution
	}
	if s.Graphics.FadeInSeconds < 0 {
		return fmt.Errorf("fade in seconds must not be negative: %v", s.Graphics.FadeInSeconds)
	}
	return nil
}
