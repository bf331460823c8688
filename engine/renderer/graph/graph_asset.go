package graph

const unsetStep = -1

// GraphAsset is an asset as linked into one graph: who writes it, who reads it
// and when it first becomes available on the timeline.
type GraphAsset struct {
	Asset       Asset
	OutputtedBy []Task
	InputTo     []Task

	exclusiveOutput    bool
	exclusiveInput     bool
	firstAvailableStep int
}

func newGraphAsset(a Asset) *GraphAsset {
	return &GraphAsset{Asset: a, firstAvailableStep: unsetStep}
}

func (ga *GraphAsset) outputtedByAny(ids []string) bool {
	for _, t := range ga.OutputtedBy {
		for _, id := range ids {
			if t.ID() == id {
				return true
			}
		}
	}
	return false
}

func (ga *GraphAsset) addOutputter(t Task, exclusive bool) {
	ga.OutputtedBy = append(ga.OutputtedBy, t)
	if exclusive {
		ga.exclusiveOutput = true
	}
}

func (ga *GraphAsset) addConsumer(t Task, exclusive bool) {
	ga.InputTo = append(ga.InputTo, t)
	if exclusive {
		ga.exclusiveInput = true
	}
}

// HasExclusiveConsumer reports whether a task reads the asset through an exclusive slot.
func (ga *GraphAsset) HasExclusiveConsumer() bool {
	return ga.exclusiveInput
}

// FirstAvailableStep is the timeline stage the asset is written in, or -1.
func (ga *GraphAsset) FirstAvailableStep() int {
	return ga.firstAvailableStep
}
