package graph

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-render/engine/core"
)

/**
 * @brief Owns the assets of one observer. External assets are put in by the owner of
 * the pool; everything else is created on demand through the factory while graphs build.
 * Several graphs (one per scene the observer renders) may share one pool.
 */
type AssetPool struct {
	mu       sync.Mutex
	factory  *AssetFactory
	targetID string
	width    uint32
	height   uint32
	assets   map[string][]Asset
	tags     []string
}

func NewAssetPool(factory *AssetFactory, targetID string) *AssetPool {
	return &AssetPool{
		factory:  factory,
		targetID: targetID,
		assets:   make(map[string][]Asset),
	}
}

func (p *AssetPool) TargetID() string {
	return p.targetID
}

func (p *AssetPool) Size() (uint32, uint32) {
	return p.width, p.height
}

func (p *AssetPool) initContext() InitContext {
	return InitContext{TargetID: p.targetID, Width: p.width, Height: p.height}
}

func (p *AssetPool) add(a Asset) {
	tag := a.Tag()
	if _, ok := p.assets[tag]; !ok {
		p.tags = append(p.tags, tag)
	}
	p.assets[tag] = append(p.assets[tag], a)
}

// PutAsset adds an externally provided asset.
func (p *AssetPool) PutAsset(a Asset) Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	a.base().external = true
	p.add(a)
	return a
}

/**
 * @brief Puts an external asset, replacing the existing instance with the same tag.
 * Graphs linked to the replaced instance are marked dirty and relink on their next execution.
 * @returns ErrReplaceMultiple if more than one instance exists for the tag.
 */
func (p *AssetPool) ReplaceAsset(a Asset) (Asset, error) {
	p.mu.Lock()
	tag := a.Tag()
	existing := p.assets[tag]
	if len(existing) > 1 {
		p.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", tag, ErrReplaceMultiple)
	}
	a.base().external = true
	if len(existing) == 0 {
		p.add(a)
		p.mu.Unlock()
		return a, nil
	}
	old := existing[0]
	p.assets[tag] = []Asset{a}
	owners := append([]*GraphAssetPool(nil), old.base().owners...)
	old.base().owners = nil
	p.mu.Unlock()

	resetAsset(old)
	for _, o := range owners {
		o.invalidate()
	}
	return a, nil
}

// RemoveAsset drops a from the pool and resets it. Graphs linking it rebuild
// on their next execution.
func (p *AssetPool) RemoveAsset(a Asset) bool {
	p.mu.Lock()
	tag := a.Tag()
	idx := -1
	for i, e := range p.assets[tag] {
		if e == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return false
	}
	p.assets[tag] = append(p.assets[tag][:idx], p.assets[tag][idx+1:]...)
	owners := append([]*GraphAssetPool(nil), a.base().owners...)
	a.base().owners = nil
	p.mu.Unlock()

	resetAsset(a)
	for _, o := range owners {
		o.invalidate()
	}
	return true
}

// GetAsset returns an existing asset for tag, external ones first, or nil.
func (p *AssetPool) GetAsset(tag string) Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	var found Asset
	for _, a := range p.assets[tag] {
		if a.base().external {
			return a
		}
		if found == nil {
			found = a
		}
	}
	return found
}

func (p *AssetPool) getExternal(tag, purpose string) Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.assets[tag] {
		b := a.base()
		if b.external && (purpose == "" || b.purpose == purpose) {
			return a
		}
	}
	return nil
}

/**
 * @brief Returns an asset for a task output, reusing an instance the requester does not
 * link yet so graphs of the same observer share memory, or creating one.
 */
func (p *AssetPool) GetOrCreateAsset(tag, purpose string, requester *GraphAssetPool) (Asset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.assets[tag] {
		b := a.base()
		if !b.external && b.purpose == purpose && !b.isOwnedBy(requester) {
			return a, nil
		}
	}
	a, err := p.factory.CreateAsset(tag)
	if err != nil {
		return nil, err
	}
	a.base().purpose = purpose
	p.add(a)
	core.LogDebug("asset pool %s created asset %s", p.targetID, tag)
	return a, nil
}

func (p *AssetPool) dependency(tag string) (Asset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing := p.assets[tag]; len(existing) > 0 {
		return existing[0], nil
	}
	a, err := p.factory.CreateAsset(tag)
	if err != nil {
		return nil, err
	}
	p.add(a)
	return a, nil
}

// ReleaseUnused destroys created assets no graph links anymore. External assets are kept.
func (p *AssetPool) ReleaseUnused() int {
	p.mu.Lock()
	var released []Asset
	for _, tag := range p.tags {
		kept := p.assets[tag][:0]
		for _, a := range p.assets[tag] {
			b := a.base()
			if !b.external && len(b.owners) == 0 {
				released = append(released, a)
				continue
			}
			kept = append(kept, a)
		}
		p.assets[tag] = kept
	}
	p.mu.Unlock()

	for _, a := range released {
		resetAsset(a)
	}
	return len(released)
}

/**
 * @brief Resets every asset with the given tag so it is created again, eg after the shadow
 * map resolution changed. Graphs linking the assets rebuild on their next execution.
 */
func (p *AssetPool) Invalidate(tag string) int {
	p.mu.Lock()
	assets := append([]Asset(nil), p.assets[tag]...)
	p.mu.Unlock()

	var owners []*GraphAssetPool
	for _, a := range assets {
		resetAsset(a)
		for _, o := range a.base().owners {
			found := false
			for _, e := range owners {
				if e == o {
					found = true
					break
				}
			}
			if !found {
				owners = append(owners, o)
			}
		}
	}
	for _, o := range owners {
		o.invalidate()
	}
	return len(assets)
}

// NotifyResize forwards the new observer size to every created asset.
func (p *AssetPool) NotifyResize(width, height uint32) {
	p.mu.Lock()
	p.width = width
	p.height = height
	all := p.all()
	p.mu.Unlock()

	for _, a := range all {
		if a.base().created {
			a.OnResize(width, height)
		}
	}
}

// StartFrame clears the per frame input/output state of every asset.
func (p *AssetPool) StartFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.all() {
		a.base().mode = assetModeUnset
	}
}

// Reset drops every link the given graph pool holds.
func (p *AssetPool) Reset(requester *GraphAssetPool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.all() {
		a.base().removeOwner(requester)
	}
}

// Cleanup destroys every asset, external ones included.
func (p *AssetPool) Cleanup() {
	p.mu.Lock()
	all := p.all()
	p.assets = make(map[string][]Asset)
	p.tags = nil
	p.mu.Unlock()

	for _, a := range all {
		resetAsset(a)
		a.base().owners = nil
	}
}

// Count returns the number of assets held for tag.
func (p *AssetPool) Count(tag string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assets[tag])
}

func (p *AssetPool) all() []Asset {
	var out []Asset
	for _, tag := range p.tags {
		out = append(out, p.assets[tag]...)
	}
	return out
}
