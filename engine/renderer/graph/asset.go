package graph

import "fmt"

type assetMode uint8

const (
	assetModeUnset assetMode = iota
	assetModeInput
	assetModeOutputStart
	assetModeOutputEnd
)

/**
 * @brief A named, lazily created GPU resource read and written by tasks. Implementations
 * embed AssetBase and provide the Do* hooks; the graph drives the lifecycle.
 */
type Asset interface {
	Tag() string
	Purpose() string
	/** @brief Creates the underlying resources. Called at most once until the asset is reset. */
	DoCreate(ctx InitContext) error
	/** @brief Makes the asset ready to be read from. */
	DoPrepareForInput(ctx *ExecutionContext) error
	/** @brief Makes the asset ready to be written to, eg by beginning a render pass. */
	DoStartOutput(ctx *ExecutionContext) error
	/** @brief Finishes writing, eg by ending a render pass. */
	DoEndOutput(ctx *ExecutionContext) error
	/** @brief Called when the observer changes size. */
	OnResize(width, height uint32)
	/** @brief Called when the asset is released or invalidated. */
	OnReset()

	base() *AssetBase
}

// AssetBase holds the state shared by every asset.
type AssetBase struct {
	tag          string
	purpose      string
	terminal     bool
	external     bool
	created      bool
	mode         assetMode
	owners       []*GraphAssetPool
	depTags      []string
	dependencies []Asset
}

// NewAssetBase returns the base of an asset. Terminal assets are only ever
// written to, like the swapchain image.
func NewAssetBase(tag string, terminal bool) AssetBase {
	return AssetBase{tag: tag, terminal: terminal}
}

// NewPurposeAssetBase returns the base of an asset that only links to slots
// asking for the given purpose.
func NewPurposeAssetBase(tag, purpose string, terminal bool) AssetBase {
	return AssetBase{tag: tag, purpose: purpose, terminal: terminal}
}

func (a *AssetBase) base() *AssetBase { return a }

func (a *AssetBase) Tag() string { return a.tag }

func (a *AssetBase) Purpose() string { return a.purpose }

func (a *AssetBase) IsExternal() bool { return a.external }

func (a *AssetBase) IsTerminal() bool { return a.terminal }

func (a *AssetBase) IsCreated() bool { return a.created }

func (a *AssetBase) OnResize(width, height uint32) {}

func (a *AssetBase) OnReset() {}

// AddDependency declares another asset that must exist before this one is created.
func (a *AssetBase) AddDependency(tag string) {
	a.depTags = append(a.depTags, tag)
}

// Dependency returns the created dependency with the given tag, or nil.
func (a *AssetBase) Dependency(tag string) Asset {
	for i, t := range a.depTags {
		if t == tag && i < len(a.dependencies) {
			return a.dependencies[i]
		}
	}
	return nil
}

// OwnerForLastCreate returns the graph pool that linked the asset most recently.
func (a *AssetBase) OwnerForLastCreate() *GraphAssetPool {
	if len(a.owners) == 0 {
		return nil
	}
	return a.owners[len(a.owners)-1]
}

func (a *AssetBase) isOwnedBy(pool *GraphAssetPool) bool {
	for _, o := range a.owners {
		if o == pool {
			return true
		}
	}
	return false
}

func (a *AssetBase) addOwner(pool *GraphAssetPool) {
	if !a.isOwnedBy(pool) {
		a.owners = append(a.owners, pool)
	}
}

func (a *AssetBase) removeOwner(pool *GraphAssetPool) {
	for i, o := range a.owners {
		if o == pool {
			a.owners = append(a.owners[:i], a.owners[i+1:]...)
			return
		}
	}
}

// createAsset creates the asset and its dependencies. Reports whether the
// asset was created by this call.
func createAsset(a Asset, ctx InitContext, pool *GraphAssetPool) (bool, error) {
	b := a.base()
	if b.created {
		return false, nil
	}
	b.dependencies = b.dependencies[:0]
	for _, tag := range b.depTags {
		dep, err := pool.pool.dependency(tag)
		if err != nil {
			return false, fmt.Errorf("dependency %s of %s: %w", tag, b.tag, err)
		}
		dep.base().addOwner(pool)
		if _, err := createAsset(dep, ctx, pool); err != nil {
			return false, err
		}
		b.dependencies = append(b.dependencies, dep)
	}
	if err := a.DoCreate(ctx); err != nil {
		return false, fmt.Errorf("failed to create asset %s: %w", b.tag, err)
	}
	b.created = true
	b.mode = assetModeUnset
	return true, nil
}

func prepareForInput(a Asset, ctx *ExecutionContext) error {
	b := a.base()
	if !b.created {
		return fmt.Errorf("%s: %w", b.tag, ErrAssetNotCreated)
	}
	if b.mode != assetModeInput {
		if err := a.DoPrepareForInput(ctx); err != nil {
			return err
		}
		b.mode = assetModeInput
	}
	return nil
}

func startOutput(a Asset, ctx *ExecutionContext) error {
	b := a.base()
	if !b.created {
		return fmt.Errorf("%s: %w", b.tag, ErrAssetNotCreated)
	}
	if b.mode != assetModeOutputStart {
		if err := a.DoStartOutput(ctx); err != nil {
			return err
		}
		b.mode = assetModeOutputStart
	}
	return nil
}

func endOutput(a Asset, ctx *ExecutionContext) error {
	b := a.base()
	if b.mode != assetModeOutputStart {
		return fmt.Errorf("%s: %w", b.tag, ErrOutputNotStarted)
	}
	if err := a.DoEndOutput(ctx); err != nil {
		return err
	}
	b.mode = assetModeOutputEnd
	return nil
}

func resetAsset(a Asset) {
	b := a.base()
	if b.created {
		a.OnReset()
	}
	b.created = false
	b.mode = assetModeUnset
	b.dependencies = b.dependencies[:0]
}
