package assets

import "github.com/spaghettifunk/anima-render/engine/renderer/graph"

// SceneInputAsset exposes a scene to the tasks of the graph rendering it. Its
// purpose is the scene id, so one pool can hold the input of several scenes.
type SceneInputAsset struct {
	graph.AssetBase
	scene graph.Scene
}

func NewSceneInputAsset(scene graph.Scene) *SceneInputAsset {
	return &SceneInputAsset{
		AssetBase: graph.NewPurposeAssetBase(graph.TagSceneInput, scene.ID(), false),
		scene:     scene,
	}
}

func (s *SceneInputAsset) Scene() graph.Scene {
	return s.scene
}

func (s *SceneInputAsset) DoCreate(ctx graph.InitContext) error                { return nil }
func (s *SceneInputAsset) DoPrepareForInput(ctx *graph.ExecutionContext) error { return nil }
func (s *SceneInputAsset) DoStartOutput(ctx *graph.ExecutionContext) error     { return nil }
func (s *SceneInputAsset) DoEndOutput(ctx *graph.ExecutionContext) error       { return nil }
