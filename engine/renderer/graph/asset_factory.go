package graph

import (
	"fmt"
	"sync"
)

// AssetProvider creates new assets for a tag.
type AssetProvider interface {
	Create(tag string) Asset
}

// ProviderFunc adapts a function to an AssetProvider.
type ProviderFunc func(tag string) Asset

func (f ProviderFunc) Create(tag string) Asset {
	return f(tag)
}

// AssetFactory maps asset tags to the providers able to create them.
type AssetFactory struct {
	mu        sync.RWMutex
	providers map[string]AssetProvider
}

func NewAssetFactory() *AssetFactory {
	return &AssetFactory{
		providers: make(map[string]AssetProvider),
	}
}

// AddProvider registers p for tag, replacing any previous provider.
func (f *AssetFactory) AddProvider(tag string, p AssetProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[tag] = p
}

func (f *AssetFactory) HasProvider(tag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.providers[tag]
	return ok
}

func (f *AssetFactory) CreateAsset(tag string) (Asset, error) {
	f.mu.RLock()
	p, ok := f.providers[tag]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", tag, ErrNoProvider)
	}
	return p.Create(tag), nil
}
