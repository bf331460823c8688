package assets

import (
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

// AttachmentDesc describes one image a render target asset renders into.
type AttachmentDesc struct {
	Width       uint32
	Height      uint32
	Depth       bool
	ClearColour [4]float32
}

// Attachment is an allocated image together with the render pass instance writing it.
type Attachment struct {
	Image  vk.Image
	View   vk.ImageView
	Target metadata.RenderPassTarget
	Desc   AttachmentDesc
}

// Allocator creates and destroys the GPU side of render target assets.
type Allocator interface {
	Allocate(desc AttachmentDesc) (*Attachment, error)
	Free(a *Attachment)
}

// HeadlessAllocator hands out attachments without GPU memory. Used for dry runs
// and wherever no device exists.
type HeadlessAllocator struct {
	mu   sync.Mutex
	live map[*Attachment]struct{}
}

func NewHeadlessAllocator() *HeadlessAllocator {
	return &HeadlessAllocator{live: make(map[*Attachment]struct{})}
}

func (h *HeadlessAllocator) Allocate(desc AttachmentDesc) (*Attachment, error) {
	a := &Attachment{
		Desc: desc,
		Target: metadata.RenderPassTarget{
			Width:       desc.Width,
			Height:      desc.Height,
			ClearColour: desc.ClearColour,
			Depth:       1.0,
		},
	}
	h.mu.Lock()
	h.live[a] = struct{}{}
	h.mu.Unlock()
	core.LogDebug("allocated %dx%d attachment (depth=%t)", desc.Width, desc.Height, desc.Depth)
	return a, nil
}

func (h *HeadlessAllocator) Free(a *Attachment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.live, a)
}

// Live returns the number of attachments allocated and not freed yet.
func (h *HeadlessAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
