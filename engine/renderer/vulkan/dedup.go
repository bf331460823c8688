package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

const maxTrackedSets = 8

/**
 * @brief Wraps a recorder and drops pipeline and descriptor set binds that would not change
 * the bound state. Bind state is forgotten at render pass boundaries.
 */
type DedupRecorder struct {
	metadata.CommandRecorder
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
	sets     [maxTrackedSets]vk.DescriptorSet
	skipped  int
}

func NewDedupRecorder(inner metadata.CommandRecorder) *DedupRecorder {
	return &DedupRecorder{CommandRecorder: inner}
}

// Skipped returns the number of binds dropped so far.
func (d *DedupRecorder) Skipped() int {
	return d.skipped
}

func (d *DedupRecorder) forget() {
	d.pipeline = nil
	d.layout = nil
	d.sets = [maxTrackedSets]vk.DescriptorSet{}
}

func (d *DedupRecorder) BeginRenderPass(target metadata.RenderPassTarget) {
	d.forget()
	d.CommandRecorder.BeginRenderPass(target)
}

func (d *DedupRecorder) EndRenderPass() {
	d.forget()
	d.CommandRecorder.EndRenderPass()
}

func (d *DedupRecorder) BindPipeline(pipeline vk.Pipeline) {
	if pipeline != nil && pipeline == d.pipeline {
		d.skipped++
		return
	}
	d.pipeline = pipeline
	d.CommandRecorder.BindPipeline(pipeline)
}

func (d *DedupRecorder) BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	if layout != d.layout {
		d.layout = layout
		d.sets = [maxTrackedSets]vk.DescriptorSet{}
	}
	if int(firstSet)+len(sets) > maxTrackedSets {
		d.CommandRecorder.BindDescriptorSets(layout, firstSet, sets)
		return
	}
	same := len(sets) > 0
	for i, s := range sets {
		if s == nil || d.sets[int(firstSet)+i] != s {
			same = false
			break
		}
	}
	if same {
		d.skipped++
		return
	}
	copy(d.sets[firstSet:], sets)
	d.CommandRecorder.BindDescriptorSets(layout, firstSet, sets)
}
