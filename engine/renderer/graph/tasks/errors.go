package tasks

import "errors"

var (
	ErrNoSceneInput       = errors.New("task input is not a scene input asset")
	ErrSceneNotRenderable = errors.New("scene cannot be rendered by tasks")
)
