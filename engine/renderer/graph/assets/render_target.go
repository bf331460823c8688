package assets

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/graph"
)

// RenderTargetConfig configures a RenderTargetAsset.
type RenderTargetConfig struct {
	// Number of attachments. Two gives a ping-pong pair.
	Count int
	// Size relative to the observer. Zero means 1.
	Scale float32
	Depth bool
	// When set the target is square with this size and ignores observer resizes.
	Resolution  func() uint32
	ClearColour [4]float32
}

/**
 * @brief An offscreen color or depth target created by a task. Tracks the layout of every
 * attachment so transitions between being written and being sampled are recorded once.
 */
type RenderTargetAsset struct {
	graph.AssetBase
	alloc       Allocator
	cfg         RenderTargetConfig
	attachments []*Attachment
	layouts     []vk.ImageLayout
	current     int
	width       uint32
	height      uint32
}

func NewRenderTargetAsset(tag string, alloc Allocator, cfg RenderTargetConfig) *RenderTargetAsset {
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	return &RenderTargetAsset{
		AssetBase: graph.NewAssetBase(tag, false),
		alloc:     alloc,
		cfg:       cfg,
	}
}

func (r *RenderTargetAsset) Size() (uint32, uint32) {
	return r.width, r.height
}

// Attachment returns attachment i, or nil before creation.
func (r *RenderTargetAsset) Attachment(i int) *Attachment {
	if i >= len(r.attachments) {
		return nil
	}
	return r.attachments[i]
}

// Current returns the attachment being written.
func (r *RenderTargetAsset) Current() *Attachment {
	return r.Attachment(r.current)
}

func (r *RenderTargetAsset) attachmentLayout() vk.ImageLayout {
	if r.cfg.Depth {
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	}
	return vk.ImageLayoutColorAttachmentOptimal
}

func (r *RenderTargetAsset) size(width, height uint32) (uint32, uint32) {
	if r.cfg.Resolution != nil {
		res := r.cfg.Resolution()
		return res, res
	}
	w := uint32(float32(width) * r.cfg.Scale)
	h := uint32(float32(height) * r.cfg.Scale)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return w, h
}

func (r *RenderTargetAsset) allocate(width, height uint32) error {
	r.width, r.height = r.size(width, height)
	for i := 0; i < r.cfg.Count; i++ {
		a, err := r.alloc.Allocate(AttachmentDesc{
			Width:       r.width,
			Height:      r.height,
			Depth:       r.cfg.Depth,
			ClearColour: r.cfg.ClearColour,
		})
		if err != nil {
			r.free()
			return fmt.Errorf("attachment %d of %s: %w", i, r.Tag(), err)
		}
		r.attachments = append(r.attachments, a)
		r.layouts = append(r.layouts, vk.ImageLayoutUndefined)
	}
	r.current = 0
	return nil
}

func (r *RenderTargetAsset) free() {
	for _, a := range r.attachments {
		r.alloc.Free(a)
	}
	r.attachments = nil
	r.layouts = nil
}

func (r *RenderTargetAsset) transition(ctx *graph.ExecutionContext, i int, to vk.ImageLayout) {
	if r.layouts[i] == to {
		return
	}
	ctx.Recorder.ImageBarrier(r.attachments[i].Image, r.layouts[i], to)
	r.layouts[i] = to
}

func (r *RenderTargetAsset) DoCreate(ctx graph.InitContext) error {
	return r.allocate(ctx.Width, ctx.Height)
}

func (r *RenderTargetAsset) DoPrepareForInput(ctx *graph.ExecutionContext) error {
	for i := range r.attachments {
		if r.layouts[i] == vk.ImageLayoutUndefined {
			continue
		}
		r.transition(ctx, i, vk.ImageLayoutShaderReadOnlyOptimal)
	}
	return nil
}

func (r *RenderTargetAsset) DoStartOutput(ctx *graph.ExecutionContext) error {
	if len(r.attachments) == 0 {
		return fmt.Errorf("%s: %w", r.Tag(), ErrNoAttachments)
	}
	r.transition(ctx, r.current, r.attachmentLayout())
	ctx.Recorder.BeginRenderPass(r.attachments[r.current].Target)
	return nil
}

func (r *RenderTargetAsset) DoEndOutput(ctx *graph.ExecutionContext) error {
	ctx.Recorder.EndRenderPass()
	return nil
}

/**
 * @brief Ends the pass on the current attachment, makes it readable and starts a pass on
 * the next one. Used by tasks blurring back and forth between a ping-pong pair.
 */
func (r *RenderTargetAsset) Swap(ctx *graph.ExecutionContext) error {
	if len(r.attachments) < 2 {
		return fmt.Errorf("%s: %w", r.Tag(), ErrNotPingPong)
	}
	ctx.Recorder.EndRenderPass()
	r.transition(ctx, r.current, vk.ImageLayoutShaderReadOnlyOptimal)
	r.current = (r.current + 1) % len(r.attachments)
	return r.DoStartOutput(ctx)
}

func (r *RenderTargetAsset) OnResize(width, height uint32) {
	if r.cfg.Resolution != nil || len(r.attachments) == 0 {
		return
	}
	r.free()
	if err := r.allocate(width, height); err != nil {
		core.LogError("failed to resize %s: %s", r.Tag(), err)
	}
}

func (r *RenderTargetAsset) OnReset() {
	r.free()
}
