package graph

// CreateMode says who may create the asset behind an output option.
type CreateMode uint8

const (
	// The output is created by this task, or joins one created by another task.
	CreatedByTask CreateMode = iota
	// The output may only be created by another task.
	CreatedByOtherTask
	// The output is external to the render graph, eg the swapframe.
	CreatedExternally
)

// ShareMode says whether other tasks may use the same asset.
type ShareMode uint8

const (
	Exclusive ShareMode = iota
	Shared
)

// Order positions a task among the tasks writing the same output.
// Values between the named ones are allowed.
type Order int

const (
	OrderFirst  Order = 0
	OrderMiddle Order = 10
	OrderLast   Order = 20
)

type OutputOption struct {
	Tag        string
	ShareMode  ShareMode
	CreateMode CreateMode
}

// TaskOutput is one output slot. Options are tried in order.
type TaskOutput struct {
	Options    []OutputOption
	Order      Order
	SharedWith []string
	Purpose    string
}

func NewTaskOutput(tag string, createMode CreateMode, shareMode ShareMode) TaskOutput {
	return TaskOutput{
		Options: []OutputOption{{Tag: tag, ShareMode: shareMode, CreateMode: createMode}},
		Order:   OrderMiddle,
	}
}

func (o TaskOutput) AddOption(tag string, shareMode ShareMode, createMode CreateMode) TaskOutput {
	o.Options = append(append([]OutputOption(nil), o.Options...), OutputOption{
		Tag:        tag,
		ShareMode:  shareMode,
		CreateMode: createMode,
	})
	return o
}

func (o TaskOutput) WithOrder(order Order) TaskOutput {
	o.Order = order
	return o
}

// WithSharedWith restricts shared options to assets written by the given task ids.
func (o TaskOutput) WithSharedWith(taskIDs ...string) TaskOutput {
	o.SharedWith = append(append([]string(nil), o.SharedWith...), taskIDs...)
	return o
}

func (o TaskOutput) WithPurpose(purpose string) TaskOutput {
	o.Purpose = purpose
	return o
}

// TaskInput is one input slot. Options are tried in order.
type TaskInput struct {
	Options   []string
	ShareMode ShareMode
	Purpose   string
}

// NewTaskInput returns an exclusive input accepting any of the tags.
func NewTaskInput(tags ...string) TaskInput {
	return TaskInput{Options: tags, ShareMode: Exclusive}
}

// NewSharedTaskInput returns an input that may alias an asset other tasks also read.
func NewSharedTaskInput(tags ...string) TaskInput {
	return TaskInput{Options: tags, ShareMode: Shared}
}

func (i TaskInput) WithPurpose(purpose string) TaskInput {
	i.Purpose = purpose
	return i
}

// TaskAssetTags is the static declaration of a task's slots.
type TaskAssetTags struct {
	Outputs        []TaskOutput
	RequiredInputs []TaskInput
	OptionalInputs []TaskInput
}

// TaskAssets holds the resolved assets, parallel to TaskAssetTags.
type TaskAssets struct {
	Outputs        []*GraphAsset
	RequiredInputs []*GraphAsset
	OptionalInputs []*GraphAsset
}

func (ta *TaskAssets) init(tags *TaskAssetTags) {
	ta.Outputs = make([]*GraphAsset, len(tags.Outputs))
	ta.RequiredInputs = make([]*GraphAsset, len(tags.RequiredInputs))
	ta.OptionalInputs = make([]*GraphAsset, len(tags.OptionalInputs))
}

func (ta *TaskAssets) outputsLinked() bool {
	for _, o := range ta.Outputs {
		if o == nil {
			return false
		}
	}
	return true
}

func (ta *TaskAssets) isInput(ga *GraphAsset) bool {
	for _, i := range ta.RequiredInputs {
		if i == ga {
			return true
		}
	}
	for _, i := range ta.OptionalInputs {
		if i == ga {
			return true
		}
	}
	return false
}

// Output returns the asset linked to output slot i, or nil.
func (ta *TaskAssets) Output(i int) Asset {
	if i >= len(ta.Outputs) || ta.Outputs[i] == nil {
		return nil
	}
	return ta.Outputs[i].Asset
}

// RequiredInput returns the asset linked to required input slot i, or nil.
func (ta *TaskAssets) RequiredInput(i int) Asset {
	if i >= len(ta.RequiredInputs) || ta.RequiredInputs[i] == nil {
		return nil
	}
	return ta.RequiredInputs[i].Asset
}

// OptionalInput returns the asset linked to optional input slot i, or nil.
func (ta *TaskAssets) OptionalInput(i int) Asset {
	if i >= len(ta.OptionalInputs) || ta.OptionalInputs[i] == nil {
		return nil
	}
	return ta.OptionalInputs[i].Asset
}
