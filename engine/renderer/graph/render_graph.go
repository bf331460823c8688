package graph

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-render/engine/core"
)

/**
 * @brief Resolves a flat list of tasks into linked assets and an ordered timeline. There is
 * one graph per observer and scene pairing.
 */
type RenderGraph struct {
	targetID        string
	scene           Scene
	events          *core.EventSystem
	assets          *GraphAssetPool
	tasks           []Task
	timeline        Timeline
	strategy        Strategy
	strategyVersion uint32
	needsRebuild    bool
	needsReset      bool
}

func NewRenderGraph(pool *AssetPool, scene Scene, events *core.EventSystem) *RenderGraph {
	g := &RenderGraph{
		targetID: pool.TargetID(),
		scene:    scene,
		events:   events,
	}
	g.assets = newGraphAssetPool(pool, g.MarkDirty)
	return g
}

func (g *RenderGraph) Scene() Scene {
	return g.scene
}

func (g *RenderGraph) AssetPool() *AssetPool {
	return g.assets.pool
}

// Tasks returns the tasks in insertion order.
func (g *RenderGraph) Tasks() []Task {
	return g.tasks
}

func (g *RenderGraph) Timeline() *Timeline {
	return &g.timeline
}

func (g *RenderGraph) NeedsRebuild() bool {
	return g.needsRebuild
}

// PutTask adds t to the graph and calls its Create hook.
func (g *RenderGraph) PutTask(t Task) (Task, error) {
	if err := t.Create(TaskContext{TargetID: g.targetID, Scene: g.scene, Events: g.events}); err != nil {
		return nil, fmt.Errorf("failed to create task %s: %w", t.ID(), err)
	}
	g.tasks = append(g.tasks, t)
	g.needsRebuild = true
	return t, nil
}

// PutUniqueTask adds the task returned by create unless a task of type T exists.
func PutUniqueTask[T Task](g *RenderGraph, create func() T) (T, error) {
	if t, ok := FindTask[T](g); ok {
		return t, nil
	}
	t := create()
	if _, err := g.PutTask(t); err != nil {
		var zero T
		return zero, err
	}
	return t, nil
}

// FindTask returns the first task of type T.
func FindTask[T Task](g *RenderGraph) (T, bool) {
	for _, t := range g.tasks {
		if typed, ok := t.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

func HasTask[T Task](g *RenderGraph) bool {
	_, ok := FindTask[T](g)
	return ok
}

// RemoveTask removes the first task of type T.
func RemoveTask[T Task](g *RenderGraph) bool {
	for i, t := range g.tasks {
		if _, ok := t.(T); ok {
			g.tasks = append(g.tasks[:i], g.tasks[i+1:]...)
			g.needsRebuild = true
			return true
		}
	}
	return false
}

// RemoveTasks removes every task of type T.
func RemoveTasks[T Task](g *RenderGraph) bool {
	removed := false
	for RemoveTask[T](g) {
		removed = true
	}
	return removed
}

func (g *RenderGraph) MarkDirty() {
	g.needsRebuild = true
}

// Reset requests a repopulation on the next NeedsRepopulation check.
func (g *RenderGraph) Reset() {
	g.needsReset = true
}

// NeedsRepopulation reports whether the scene strategy changed since the last Populate.
func (g *RenderGraph) NeedsRepopulation() bool {
	if g.needsReset {
		return true
	}
	s := g.scene.RenderStrategy()
	return s != g.strategy || (s != nil && s.Version() != g.strategyVersion)
}

// Populate clears the graph and asks the scene strategy for the tasks.
func (g *RenderGraph) Populate() error {
	s := g.scene.RenderStrategy()
	if s == nil {
		return fmt.Errorf("scene %s: %w", g.scene.ID(), ErrNoStrategy)
	}
	g.tasks = nil
	g.needsRebuild = true
	g.needsReset = false
	g.strategy = s
	g.strategyVersion = s.Version()
	return s.Populate(g)
}

// Update forwards frame time to every task.
func (g *RenderGraph) Update(dt float32) {
	for _, t := range g.tasks {
		t.Update(dt)
	}
}

// Execute rebuilds the graph if needed and runs every group not writing the final output.
func (g *RenderGraph) Execute(ctx *ExecutionContext) error {
	if g.needsRebuild {
		if err := g.Build(); err != nil {
			return err
		}
	}
	return g.timeline.execute(ctx)
}

// ExecuteFinal runs the groups writing the final output. Called after Execute.
func (g *RenderGraph) ExecuteFinal(ctx *ExecutionContext) error {
	if g.needsRebuild {
		if err := g.Build(); err != nil {
			return err
		}
	}
	return g.timeline.executeFinal(ctx)
}

// Destroy drops every asset link the graph holds.
func (g *RenderGraph) Destroy() {
	g.assets.reset()
	g.tasks = nil
	g.timeline = Timeline{}
}

func describeInput(in TaskInput) string {
	return strings.Join(in.Options, "|")
}

// Build resolves every task slot and builds the timeline.
func (g *RenderGraph) Build() error {
	g.needsRebuild = false
	for _, t := range g.tasks {
		b := t.base()
		b.Assets.init(&b.AssetTags)
	}
	g.assets.reset()

	var missingInputs []Task
	addMissing := func(t Task) {
		for _, m := range missingInputs {
			if m == t {
				return
			}
		}
		missingInputs = append(missingInputs, t)
	}

	// link every input provided externally
	for _, t := range g.tasks {
		b := t.base()
		link := func(in TaskInput, slot **GraphAsset) {
			for _, tag := range in.Options {
				if ga := g.assets.getAssetForInput(tag, in.Purpose); ga != nil {
					ga.addConsumer(t, in.ShareMode == Exclusive)
					*slot = ga
					return
				}
			}
			addMissing(t)
		}
		for i, in := range b.AssetTags.RequiredInputs {
			link(in, &b.Assets.RequiredInputs[i])
		}
		for i, in := range b.AssetTags.OptionalInputs {
			link(in, &b.Assets.OptionalInputs[i])
		}
	}

	// find tasks able to create the missing inputs
	for _, t := range missingInputs {
		b := t.base()
		for i, in := range b.AssetTags.RequiredInputs {
			if b.Assets.RequiredInputs[i] != nil {
				continue
			}
			ga, err := g.findAssetCreator(t, in)
			if err != nil {
				return err
			}
			if ga == nil {
				return fmt.Errorf("task %s input %s: %w", t.ID(), describeInput(in), ErrRequiredInputUnresolved)
			}
			b.Assets.RequiredInputs[i] = ga
		}
		for i, in := range b.AssetTags.OptionalInputs {
			if b.Assets.OptionalInputs[i] != nil {
				continue
			}
			ga, err := g.findAssetCreator(t, in)
			if err != nil {
				return err
			}
			b.Assets.OptionalInputs[i] = ga
		}
	}

	// link outputs until every task is linked or no progress is made
	pending := append([]Task(nil), g.tasks...)
	for len(pending) > 0 {
		var remaining []Task
		for _, t := range pending {
			g.linkOutputs(t)
			if !t.base().Assets.outputsLinked() {
				remaining = append(remaining, t)
			}
		}
		if len(remaining) == len(pending) {
			ids := make([]string, len(remaining))
			for i, t := range remaining {
				ids[i] = t.ID()
			}
			return fmt.Errorf("tasks [%s]: %w", strings.Join(ids, ", "), ErrOutputsUnlinked)
		}
		pending = remaining
	}

	if err := g.timeline.build(g.tasks, g.assets.finalOutput(), g.assets, g.onAssetCreated); err != nil {
		return err
	}

	inited := make(map[Task]bool, len(g.tasks))
	for _, t := range g.timeline.Order() {
		inited[t] = true
		t.OnGraphInit()
	}
	for _, t := range g.tasks {
		if !inited[t] {
			t.OnGraphInit()
		}
	}
	core.LogDebug("render graph for scene %s built with %d tasks in %d stages", g.scene.ID(), len(g.tasks), len(g.timeline.stages))
	return nil
}

func (g *RenderGraph) onAssetCreated(a Asset) {
	g.events.Fire(core.EVENT_CODE_GRAPH_ASSET_INITIALIZED, g, core.GraphAssetInitialized{
		Target:  g.targetID,
		Tag:     a.Tag(),
		Purpose: a.Purpose(),
	})
}

/**
 * @brief Searches the other tasks for an output able to provide the input. Unlinked producer
 * slots get a new asset. Linked ones are shared only if both sides are shared and nobody
 * reads the asset exclusively.
 */
func (g *RenderGraph) findAssetCreator(consumer Task, in TaskInput) (*GraphAsset, error) {
	exclusive := in.ShareMode == Exclusive
	for _, tag := range in.Options {
		for _, producer := range g.tasks {
			if producer == consumer {
				continue
			}
			pb := producer.base()
			for j, out := range pb.AssetTags.Outputs {
				if in.Purpose != "" && out.Purpose != in.Purpose {
					continue
				}
				for _, opt := range out.Options {
					if opt.Tag != tag || opt.CreateMode != CreatedByTask {
						continue
					}
					linked := pb.Assets.Outputs[j]
					if linked == nil {
						ga, err := g.assets.createAsset(tag, out.Purpose)
						if err != nil {
							return nil, fmt.Errorf("task %s output %s: %w", producer.ID(), tag, err)
						}
						ga.addOutputter(producer, opt.ShareMode == Exclusive)
						ga.addConsumer(consumer, exclusive)
						pb.Assets.Outputs[j] = ga
						return ga, nil
					}
					if linked.Asset.Tag() == tag && !exclusive && opt.ShareMode == Shared && !linked.exclusiveInput {
						linked.addConsumer(consumer, false)
						return linked, nil
					}
				}
			}
		}
	}
	return nil, nil
}

// linkOutputs links every unlinked output slot of t it can.
func (g *RenderGraph) linkOutputs(t Task) {
	b := t.base()
	for j, out := range b.AssetTags.Outputs {
		if b.Assets.Outputs[j] != nil {
			continue
		}
		for _, opt := range out.Options {
			var ga *GraphAsset
			if opt.ShareMode == Shared && len(out.SharedWith) > 0 {
				ga = g.assets.getAssetForSharedOutput(opt.Tag, out.Purpose, out.SharedWith)
			} else {
				ga = g.assets.getAssetForOutput(opt, out.Purpose)
			}
			if ga != nil {
				ga.addOutputter(t, opt.ShareMode == Exclusive)
				b.Assets.Outputs[j] = ga
				break
			}
		}
	}
}
