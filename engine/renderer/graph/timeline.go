package graph

import (
	"fmt"

	"github.com/spaghettifunk/anima-render/engine/core"
)

type groupTask struct {
	task  Task
	order Order
}

// TaskGroup is the set of tasks writing one output within a stage.
type TaskGroup struct {
	output *GraphAsset
	tasks  []groupTask
}

// addTask keeps tasks sorted by order. Equal orders keep insertion order.
func (g *TaskGroup) addTask(t Task, order Order) {
	for i, gt := range g.tasks {
		if gt.order > order {
			g.tasks = append(g.tasks, groupTask{})
			copy(g.tasks[i+1:], g.tasks[i:])
			g.tasks[i] = groupTask{task: t, order: order}
			return
		}
	}
	g.tasks = append(g.tasks, groupTask{task: t, order: order})
}

func (g *TaskGroup) Output() *GraphAsset {
	return g.output
}

// Tasks returns the tasks of the group in execution order.
func (g *TaskGroup) Tasks() []Task {
	out := make([]Task, len(g.tasks))
	for i, gt := range g.tasks {
		out[i] = gt.task
	}
	return out
}

func (g *TaskGroup) execute(ctx *ExecutionContext) error {
	if err := startOutput(g.output.Asset, ctx); err != nil {
		return err
	}
	for _, gt := range g.tasks {
		if err := gt.task.Execute(ctx, g.output.Asset); err != nil {
			return fmt.Errorf("task %s: %w", gt.task.ID(), err)
		}
	}
	return endOutput(g.output.Asset, ctx)
}

// TimelineStage holds the groups that may run once every earlier stage ran.
type TimelineStage struct {
	groups []*TaskGroup
}

func (s *TimelineStage) groupFor(output *GraphAsset) *TaskGroup {
	for _, g := range s.groups {
		if g.output == output {
			return g
		}
	}
	g := &TaskGroup{output: output}
	s.groups = append(s.groups, g)
	return g
}

func (s *TimelineStage) Groups() []*TaskGroup {
	return s.groups
}

// execute prepares the inputs of every selected group first, then runs the groups.
func (s *TimelineStage) execute(ctx *ExecutionContext, selected func(*TaskGroup) bool) error {
	for _, g := range s.groups {
		if !selected(g) {
			continue
		}
		for _, gt := range g.tasks {
			if err := prepareInputs(gt.task, ctx); err != nil {
				return err
			}
		}
	}
	for _, g := range s.groups {
		if !selected(g) {
			continue
		}
		if err := g.execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Timeline is the ordered execution plan of a built graph.
type Timeline struct {
	stages []*TimelineStage
	final  *GraphAsset
}

func (tl *Timeline) Stages() []*TimelineStage {
	return tl.stages
}

type visitStep struct {
	task Task
	step int
}

/**
 * @brief Assigns every asset the first stage it can be written in and groups the tasks
 * by output. Assets are created as the traversal reaches them.
 */
func (tl *Timeline) build(tasks []Task, final *GraphAsset, pool *GraphAssetPool, onCreated func(Asset)) error {
	tl.stages = nil
	tl.final = final
	if final == nil || len(final.OutputtedBy) == 0 {
		return ErrFinalOutputUnreached
	}

	taskIsFirst := func(t Task) bool {
		b := t.base()
		for _, in := range b.Assets.RequiredInputs {
			if len(in.OutputtedBy) > 0 {
				return false
			}
		}
		for _, in := range b.Assets.OptionalInputs {
			if in != nil && len(in.OutputtedBy) > 0 {
				return false
			}
		}
		return true
	}

	createAll := func(t Task) error {
		b := t.base()
		var linked []*GraphAsset
		linked = append(linked, b.Assets.RequiredInputs...)
		linked = append(linked, b.Assets.OptionalInputs...)
		linked = append(linked, b.Assets.Outputs...)
		for _, ga := range linked {
			if ga == nil {
				continue
			}
			created, err := createAsset(ga.Asset, pool.pool.initContext(), pool)
			if err != nil {
				return err
			}
			if created && onCreated != nil {
				onCreated(ga.Asset)
			}
		}
		return nil
	}

	for _, ga := range pool.assets {
		ga.firstAvailableStep = unsetStep
	}

	var toVisit []visitStep
	for _, t := range tasks {
		if taskIsFirst(t) {
			toVisit = append(toVisit, visitStep{task: t, step: 0})
		}
	}

	maxStep := 0
	for len(toVisit) > 0 {
		current := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]

		if current.step > len(tasks) {
			return fmt.Errorf("task %s: %w", current.task.ID(), ErrGraphCycle)
		}
		if err := createAll(current.task); err != nil {
			return err
		}
		if current.step > maxStep {
			maxStep = current.step
		}

		for _, out := range current.task.base().Assets.Outputs {
			if out.firstAvailableStep != unsetStep && out.firstAvailableStep >= current.step {
				continue
			}
			out.firstAvailableStep = current.step
			for _, t := range tasks {
				if t.base().Assets.isInput(out) {
					toVisit = append(toVisit, visitStep{task: t, step: current.step + 1})
				}
			}
		}
	}

	if final.firstAvailableStep == unsetStep {
		return ErrFinalOutputUnreached
	}

	tl.stages = make([]*TimelineStage, maxStep+1)
	for i := range tl.stages {
		tl.stages[i] = &TimelineStage{}
	}
	for _, t := range tasks {
		b := t.base()
		for i, out := range b.Assets.Outputs {
			if out.firstAvailableStep == unsetStep {
				core.LogWarn("task %s output %s is unreachable and will not execute", t.ID(), out.Asset.Tag())
				continue
			}
			tl.stages[out.firstAvailableStep].groupFor(out).addTask(t, b.AssetTags.Outputs[i].Order)
		}
	}
	return nil
}

// execute runs every group except the ones writing the final output.
func (tl *Timeline) execute(ctx *ExecutionContext) error {
	for _, s := range tl.stages {
		if err := s.execute(ctx, func(g *TaskGroup) bool { return g.output != tl.final }); err != nil {
			return err
		}
	}
	return nil
}

// executeFinal runs only the groups writing the final output.
func (tl *Timeline) executeFinal(ctx *ExecutionContext) error {
	for _, s := range tl.stages {
		if err := s.execute(ctx, func(g *TaskGroup) bool { return g.output == tl.final }); err != nil {
			return err
		}
	}
	return nil
}

// Order returns every task in the order the timeline runs them, final groups included.
func (tl *Timeline) Order() []Task {
	var out []Task
	seen := make(map[Task]bool)
	for _, s := range tl.stages {
		for _, g := range s.groups {
			for _, gt := range g.tasks {
				if !seen[gt.task] {
					seen[gt.task] = true
					out = append(out, gt.task)
				}
			}
		}
	}
	return out
}
