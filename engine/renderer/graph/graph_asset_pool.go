package graph

// GraphAssetPool is the per graph link cache in front of an AssetPool.
type GraphAssetPool struct {
	pool         *AssetPool
	assets       []*GraphAsset
	byAsset      map[Asset]*GraphAsset
	onInvalidate func()
}

func newGraphAssetPool(pool *AssetPool, onInvalidate func()) *GraphAssetPool {
	return &GraphAssetPool{
		pool:         pool,
		byAsset:      make(map[Asset]*GraphAsset),
		onInvalidate: onInvalidate,
	}
}

func (gp *GraphAssetPool) Pool() *AssetPool {
	return gp.pool
}

// Assets returns every linked asset in link order.
func (gp *GraphAssetPool) Assets() []*GraphAsset {
	return gp.assets
}

func (gp *GraphAssetPool) invalidate() {
	if gp.onInvalidate != nil {
		gp.onInvalidate()
	}
}

// reset drops every link. Called at the start of every build.
func (gp *GraphAssetPool) reset() {
	gp.pool.Reset(gp)
	gp.assets = nil
	gp.byAsset = make(map[Asset]*GraphAsset)
}

func (gp *GraphAssetPool) link(a Asset) *GraphAsset {
	if ga, ok := gp.byAsset[a]; ok {
		return ga
	}
	gp.pool.mu.Lock()
	a.base().addOwner(gp)
	gp.pool.mu.Unlock()

	ga := newGraphAsset(a)
	gp.byAsset[a] = ga
	gp.assets = append(gp.assets, ga)
	return ga
}

// getAssetForInput links an external asset matching tag and purpose.
func (gp *GraphAssetPool) getAssetForInput(tag, purpose string) *GraphAsset {
	a := gp.pool.getExternal(tag, purpose)
	if a == nil {
		return nil
	}
	return gp.link(a)
}

// createAsset links a task created asset for creator's output.
func (gp *GraphAssetPool) createAsset(tag, purpose string) (*GraphAsset, error) {
	a, err := gp.pool.GetOrCreateAsset(tag, purpose, gp)
	if err != nil {
		return nil, err
	}
	return gp.link(a), nil
}

// getAssetForOutput finds an already linked or external asset a task may write to.
func (gp *GraphAssetPool) getAssetForOutput(opt OutputOption, purpose string) *GraphAsset {
	switch opt.CreateMode {
	case CreatedExternally:
		a := gp.pool.getExternal(opt.Tag, purpose)
		if a == nil {
			return nil
		}
		if ga, ok := gp.byAsset[a]; ok && !canJoinOutput(ga, opt.ShareMode) {
			return nil
		}
		return gp.link(a)

	default:
		for _, ga := range gp.assets {
			b := ga.Asset.base()
			if b.external || ga.Asset.Tag() != opt.Tag || len(ga.OutputtedBy) == 0 {
				continue
			}
			if purpose != "" && b.purpose != purpose {
				continue
			}
			if canJoinOutput(ga, opt.ShareMode) {
				return ga
			}
		}
		return nil
	}
}

// getAssetForSharedOutput finds a linked asset written by one of the given tasks.
func (gp *GraphAssetPool) getAssetForSharedOutput(tag, purpose string, sharedWith []string) *GraphAsset {
	for _, ga := range gp.assets {
		if ga.Asset.Tag() != tag || ga.exclusiveOutput || ga.exclusiveInput {
			continue
		}
		if purpose != "" && ga.Asset.Purpose() != purpose {
			continue
		}
		if ga.outputtedByAny(sharedWith) {
			return ga
		}
	}
	return nil
}

// finalOutput returns the linked final frame output, or nil.
func (gp *GraphAssetPool) finalOutput() *GraphAsset {
	for _, ga := range gp.assets {
		if ga.Asset.Tag() == TagFinalFrameOutput && ga.Asset.base().external {
			return ga
		}
	}
	return nil
}

// canJoinOutput reports whether another task may write to ga with the given mode.
// An asset read through an exclusive input keeps a single writer.
func canJoinOutput(ga *GraphAsset, mode ShareMode) bool {
	if ga.exclusiveOutput {
		return false
	}
	if ga.exclusiveInput && len(ga.OutputtedBy) > 0 {
		return false
	}
	if mode == Exclusive && len(ga.OutputtedBy) > 0 {
		return false
	}
	return true
}
