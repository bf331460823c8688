package graph

import "github.com/google/uuid"

/**
 * @brief A unit of per frame GPU work. Tasks declare their slots once when constructed
 * and embed BaseTask. The graph resolves the slots to assets before OnGraphInit.
 */
type Task interface {
	/** @brief Id used for diagnostics and SharedWith lists. Not unique per instance. */
	ID() string
	/** @brief Called once when the task is added to a graph. */
	Create(ctx TaskContext) error
	/** @brief Called after every successful build, in timeline order. */
	OnGraphInit()
	/** @brief Called once per frame per output group the task writes, with that group's output. */
	Execute(ctx *ExecutionContext, output Asset) error
	/** @brief Called once per frame before any Execute. */
	Update(dt float32)

	base() *BaseTask
}

// BaseTask holds the declared and resolved slots of a task.
type BaseTask struct {
	id         string
	instanceID uuid.UUID
	AssetTags  TaskAssetTags
	Assets     TaskAssets
}

func NewBaseTask(id string) BaseTask {
	return BaseTask{id: id, instanceID: uuid.New()}
}

func (t *BaseTask) base() *BaseTask { return t }

func (t *BaseTask) ID() string { return t.id }

// InstanceID distinguishes several tasks of the same kind in logs.
func (t *BaseTask) InstanceID() uuid.UUID { return t.instanceID }

func (t *BaseTask) Create(ctx TaskContext) error { return nil }

func (t *BaseTask) OnGraphInit() {}

func (t *BaseTask) Update(dt float32) {}

// Slots returns the declared and resolved slots of any task.
func Slots(t Task) (*TaskAssetTags, *TaskAssets) {
	b := t.base()
	return &b.AssetTags, &b.Assets
}

func prepareInputs(t Task, ctx *ExecutionContext) error {
	b := t.base()
	for _, in := range b.Assets.RequiredInputs {
		if err := prepareForInput(in.Asset, ctx); err != nil {
			return err
		}
	}
	for _, in := range b.Assets.OptionalInputs {
		if in == nil {
			continue
		}
		if err := prepareForInput(in.Asset, ctx); err != nil {
			return err
		}
	}
	return nil
}
