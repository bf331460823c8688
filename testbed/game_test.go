package testbed

import (
	"testing"

	"github.com/spaghettifunk/anima-render/engine"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/scene"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRun(t *testing.T) {
	rec := vulkan.NewHeadlessRecorder(false)
	tg := NewTestGame(Options{Objects: 8, Recorder: rec})
	e, err := engine.New(tg.Game)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	require.NoError(t, e.Run(rec, 4))
	s := tg.Scene()
	assert.Equal(t, 8, s.ObjectCount())
	assert.Equal(t, 5, e.Pipelines().Len())

	cubes := tg.Cubes()
	link := ecs.Get[scene.BatchSceneLink](e.Registry(), cubes[0])
	require.NotNil(t, link)
	assert.Equal(t, []ecs.Entity{cubes[1]}, link.Children)

	var transparent, highlighted bool
	for _, b := range s.Buckets() {
		transparent = transparent || b.Transparent
		highlighted = highlighted || b.Specialization == SpecializationHighlight
	}
	assert.True(t, transparent)
	assert.True(t, highlighted)

	commands, passes := tg.Stats()
	assert.Greater(t, commands, 0)
	// shadow map, scene and post fx
	assert.Equal(t, 3, passes)

	require.NoError(t, s.RemoveEntity(cubes[0]))
	require.NoError(t, e.Frame(rec))
	assert.Equal(t, 5, s.ObjectCount())

	require.NoError(t, e.Shutdown())
	assert.Zero(t, s.ObjectCount())
}
