package materials

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-render/engine/core"
)

// PipelineCache owns material pipelines by id. Pointers returned stay valid
// until the cache is cleaned up.
type PipelineCache struct {
	mu        sync.RWMutex
	pipelines map[uint32]*MaterialPipeline
}

func NewPipelineCache() *PipelineCache {
	return &PipelineCache{
		pipelines: make(map[uint32]*MaterialPipeline),
	}
}

func (pc *PipelineCache) Create(config MaterialPipelineConfig) (*MaterialPipeline, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, ok := pc.pipelines[config.ID]; ok {
		return nil, fmt.Errorf("id %d: %w", config.ID, ErrPipelineExists)
	}
	mp, err := NewMaterialPipeline(config)
	if err != nil {
		return nil, err
	}
	pc.pipelines[config.ID] = mp
	core.LogDebug("created material pipeline %s (%d)", mp.name, mp.id)
	return mp, nil
}

func (pc *PipelineCache) Get(id uint32) (*MaterialPipeline, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	mp, ok := pc.pipelines[id]
	return mp, ok
}

func (pc *PipelineCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.pipelines)
}

func (pc *PipelineCache) Cleanup() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.pipelines = make(map[uint32]*MaterialPipeline)
}
