package materials

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
)

var (
	ErrNoVariants       = errors.New("material pipeline has no variants")
	ErrLayoutMismatch   = errors.New("variants of one render phase must share a pipeline layout")
	ErrDuplicateVariant = errors.New("duplicate pipeline variant")
	ErrPipelineExists   = errors.New("material pipeline already exists")
)

/** @brief A pipeline layout and the descriptor set factories of its sets, in set order. */
type PipelineLayout struct {
	Handle    vk.PipelineLayout
	Factories []descriptors.Factory
}

/** @brief One compiled pipeline for a render phase and pass. */
type PipelineVariant struct {
	Phase  metadata.RenderPhase
	Pass   metadata.RenderPassID
	Handle vk.Pipeline
	/** @brief Specialized pipelines keyed by specialization id. Id 0 is always Handle. */
	Specializations map[uint32]vk.Pipeline
	/** @brief Layout of this variant. Nil means the pipeline's layout. */
	Layout *PipelineLayout
}

// Specialized returns the pipeline to bind for a specialization id.
func (v *PipelineVariant) Specialized(id uint32) (vk.Pipeline, bool) {
	if id == 0 {
		return v.Handle, true
	}
	p, ok := v.Specializations[id]
	return p, ok
}

type MaterialPipelineConfig struct {
	ID     uint32
	Name   string
	Layout *PipelineLayout
	// Variants lists every phase/pass the pipeline renders in.
	Variants []PipelineVariant
	// PreserveObjectOrder keeps draw order equal to insertion order within a batch.
	PreserveObjectOrder bool
}

type variantKey struct {
	phase metadata.RenderPhase
	pass  metadata.RenderPassID
}

/**
 * @brief A material pipeline groups the pipeline variants used to render one material
 * across render phases. Instances handed out by a PipelineCache are pointer stable, so
 * batches compare pipelines by pointer.
 */
type MaterialPipeline struct {
	id                  uint32
	name                string
	layout              *PipelineLayout
	variants            map[variantKey]*PipelineVariant
	phaseLayouts        [metadata.RenderPhaseCount]*PipelineLayout
	preserveObjectOrder bool
}

func NewMaterialPipeline(config MaterialPipelineConfig) (*MaterialPipeline, error) {
	if len(config.Variants) == 0 {
		return nil, fmt.Errorf("%s: %w", config.Name, ErrNoVariants)
	}
	mp := &MaterialPipeline{
		id:                  config.ID,
		name:                config.Name,
		layout:              config.Layout,
		variants:            make(map[variantKey]*PipelineVariant, len(config.Variants)),
		preserveObjectOrder: config.PreserveObjectOrder,
	}
	for i := range config.Variants {
		v := config.Variants[i]
		if v.Layout == nil {
			v.Layout = config.Layout
		}
		k := variantKey{phase: v.Phase, pass: v.Pass}
		if _, ok := mp.variants[k]; ok {
			return nil, fmt.Errorf("%s phase %s pass %d: %w", config.Name, v.Phase, v.Pass, ErrDuplicateVariant)
		}
		if existing := mp.phaseLayouts[v.Phase]; existing != nil && existing != v.Layout {
			return nil, fmt.Errorf("%s phase %s: %w", config.Name, v.Phase, ErrLayoutMismatch)
		}
		mp.phaseLayouts[v.Phase] = v.Layout
		mp.variants[k] = &v
	}
	return mp, nil
}

func (mp *MaterialPipeline) ID() uint32 {
	return mp.id
}

func (mp *MaterialPipeline) Name() string {
	return mp.name
}

func (mp *MaterialPipeline) PreserveObjectOrder() bool {
	return mp.preserveObjectOrder
}

// Variant returns the pipeline for a phase and pass, if the material renders there.
func (mp *MaterialPipeline) Variant(phase metadata.RenderPhase, pass metadata.RenderPassID) (*PipelineVariant, bool) {
	v, ok := mp.variants[variantKey{phase: phase, pass: pass}]
	return v, ok
}

// PhaseLayout returns the layout used in a phase, or nil if no variant renders in it.
func (mp *MaterialPipeline) PhaseLayout(phase metadata.RenderPhase) *PipelineLayout {
	if phase >= metadata.RenderPhaseCount {
		return nil
	}
	return mp.phaseLayouts[phase]
}

// Factories returns the descriptor factories of the phase layout, or nil.
func (mp *MaterialPipeline) Factories(phase metadata.RenderPhase) []descriptors.Factory {
	if l := mp.PhaseLayout(phase); l != nil {
		return l.Factories
	}
	return nil
}
