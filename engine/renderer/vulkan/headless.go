package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

type Op uint8

const (
	OpBeginRenderPass Op = iota
	OpEndRenderPass
	OpImageBarrier
	OpBindPipeline
	OpBindDescriptorSets
	OpDraw
	OpDrawIndexed
)

func (o Op) String() string {
	switch o {
	case OpBeginRenderPass:
		return "begin-render-pass"
	case OpEndRenderPass:
		return "end-render-pass"
	case OpImageBarrier:
		return "image-barrier"
	case OpBindPipeline:
		return "bind-pipeline"
	case OpBindDescriptorSets:
		return "bind-descriptor-sets"
	case OpDraw:
		return "draw"
	case OpDrawIndexed:
		return "draw-indexed"
	default:
		return "unknown"
	}
}

// Command is one recorded command. Only the fields relevant to Op are set.
type Command struct {
	Op       Op
	Target   metadata.RenderPassTarget
	From, To vk.ImageLayout
	Pipeline vk.Pipeline
	FirstSet uint32
	Sets     []vk.DescriptorSet
	Count    uint32
}

/**
 * @brief Records commands into memory instead of a command buffer. Used by the dry run
 * and wherever no device exists. Render pass nesting is checked as commands arrive.
 */
type HeadlessRecorder struct {
	Commands []Command
	depth    int
	verbose  bool
}

func NewHeadlessRecorder(verbose bool) *HeadlessRecorder {
	return &HeadlessRecorder{verbose: verbose}
}

func (h *HeadlessRecorder) record(c Command) {
	if h.verbose {
		core.LogDebug("cmd %s", c.Op)
	}
	h.Commands = append(h.Commands, c)
}

// Count returns how many commands of op were recorded.
func (h *HeadlessRecorder) Count(op Op) int {
	n := 0
	for _, c := range h.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded operations in order.
func (h *HeadlessRecorder) Ops() []Op {
	out := make([]Op, len(h.Commands))
	for i, c := range h.Commands {
		out[i] = c.Op
	}
	return out
}

// Balanced reports whether every render pass begun was also ended.
func (h *HeadlessRecorder) Balanced() bool {
	return h.depth == 0
}

func (h *HeadlessRecorder) Reset() {
	h.Commands = h.Commands[:0]
	h.depth = 0
}

func (h *HeadlessRecorder) BeginRenderPass(target metadata.RenderPassTarget) {
	if h.depth != 0 {
		core.LogWarn("render pass begun inside another render pass")
	}
	h.depth++
	h.record(Command{Op: OpBeginRenderPass, Target: target})
}

func (h *HeadlessRecorder) EndRenderPass() {
	if h.depth == 0 {
		core.LogWarn("render pass ended without being begun")
	} else {
		h.depth--
	}
	h.record(Command{Op: OpEndRenderPass})
}

func (h *HeadlessRecorder) ImageBarrier(image vk.Image, from, to vk.ImageLayout) {
	h.record(Command{Op: OpImageBarrier, From: from, To: to})
}

func (h *HeadlessRecorder) BindPipeline(pipeline vk.Pipeline) {
	h.record(Command{Op: OpBindPipeline, Pipeline: pipeline})
}

func (h *HeadlessRecorder) BindDescriptorSets(layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	h.record(Command{Op: OpBindDescriptorSets, FirstSet: firstSet, Sets: append([]vk.DescriptorSet(nil), sets...)})
}

func (h *HeadlessRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	h.record(Command{Op: OpDraw, Count: vertexCount})
}

func (h *HeadlessRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	h.record(Command{Op: OpDrawIndexed, Count: indexCount})
}
