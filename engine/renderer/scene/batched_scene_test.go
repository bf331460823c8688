package scene

import (
	"math/rand"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/ecs"
	"github.com/spaghettifunk/anima-render/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-render/engine/renderer/materials"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePipeline() vk.Pipeline {
	return vk.Pipeline(unsafe.Pointer(new(byte)))
}

func fakeLayout() vk.PipelineLayout {
	return vk.PipelineLayout(unsafe.Pointer(new(byte)))
}

type fixture struct {
	t      *testing.T
	reg    *ecs.Registry
	events *core.EventSystem
	scene  *BatchedScene
}

func newFixture(t *testing.T, cfg Config) *fixture {
	cfg.Registry = ecs.NewRegistry()
	cfg.Events = core.NewEventSystem()
	return &fixture{t: t, reg: cfg.Registry, events: cfg.Events, scene: NewBatchedScene(cfg)}
}

// newPipeline returns a pipeline rendering in the default phase with one extra
// specialization (id 1) and the given set layout.
func newPipeline(t *testing.T, name string, factories ...descriptors.Factory) *materials.MaterialPipeline {
	mp, err := materials.NewMaterialPipeline(materials.MaterialPipelineConfig{
		Name:   name,
		Layout: &materials.PipelineLayout{Handle: fakeLayout(), Factories: factories},
		Variants: []materials.PipelineVariant{{
			Phase:           metadata.RenderPhaseDefault,
			Pass:            metadata.RenderPassStandard,
			Handle:          fakePipeline(),
			Specializations: map[uint32]vk.Pipeline{1: fakePipeline()},
		}},
	})
	require.NoError(t, err)
	return mp
}

func (f *fixture) add(p *materials.MaterialPipeline, speed metadata.UpdateSpeed, mods ...func(*Drawable)) (ecs.Entity, *Drawable) {
	e := f.reg.CreateEntity()
	d := Drawable{Pipeline: p, VertexCount: 3}
	for _, m := range mods {
		m(&d)
	}
	stored := ecs.Emplace(f.reg, e, d)
	f.scene.CreateAndAddObject(e, stored, speed)
	return e, stored
}

func (f *fixture) observer() uint32 {
	idx, err := f.scene.RegisterObserver()
	require.NoError(f.t, err)
	return idx
}

func (f *fixture) render(observer uint32, phase metadata.RenderPhase, fn func(*BatchedScene, *RenderContext)) (*vulkan.HeadlessRecorder, *RenderContext) {
	rec := vulkan.NewHeadlessRecorder(false)
	rc := NewRenderContext(rec, observer, phase, metadata.RenderPassStandard)
	fn(f.scene, rc)
	return rec, rc
}

func builtin(t *testing.T, inst descriptors.SetInstance) *descriptors.BuiltinInstance {
	require.NotNil(t, inst)
	bi, ok := inst.(*descriptors.BuiltinInstance)
	require.True(t, ok)
	return bi
}

// allocated returns the object count of the instance of f serving observer.
func allocated(s *BatchedScene, f descriptors.Factory, observer uint32) int {
	if inst := s.Instances().Find(f, observer); inst != nil {
		return inst.AllocatedCount()
	}
	return 0
}

func TestAddAndRemoveObjects(t *testing.T) {
	f := newFixture(t, Config{})
	sceneSet := descriptors.NewSceneFactory("scene")
	p := newPipeline(t, "lit", sceneSet)
	f.observer()

	e1, d1 := f.add(p, metadata.UpdateSpeedStatic)
	_, d2 := f.add(p, metadata.UpdateSpeedStatic)
	_, d3 := f.add(p, metadata.UpdateSpeedDynamic)
	assert.Equal(t, 0, f.scene.ObjectCount())

	f.scene.SyncObjects()
	assert.Equal(t, 3, f.scene.ObjectCount())
	for _, d := range []*Drawable{d1, d2, d3} {
		key, ok := d.SceneKey()
		require.True(t, ok)
		assert.Same(t, d, f.scene.Object(key).Drawable)
	}
	assert.True(t, ecs.Has[BatchSceneLink](f.reg, e1))
	inst := builtin(t, f.scene.Instances().Find(sceneSet, 0))
	assert.Equal(t, 3, inst.AllocatedCount())

	require.NoError(t, f.scene.RemoveEntity(e1))
	f.scene.SyncObjects()
	assert.Equal(t, 2, f.scene.ObjectCount())
	assert.False(t, ecs.Has[BatchSceneLink](f.reg, e1))
	_, ok := d1.SceneKey()
	assert.False(t, ok)
	assert.Equal(t, 2, inst.AllocatedCount())

	assert.ErrorIs(t, f.scene.RemoveEntity(e1), ErrUnknownObject)
	assert.ErrorIs(t, f.scene.RemoveEntity(f.reg.CreateEntity()), ErrMissingComponent)
}

func TestStorageGrowthKeepsKeys(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2})
	p := newPipeline(t, "lit")

	entities := map[ecs.Entity]*Drawable{}
	for i := 0; i < 10; i++ {
		e, d := f.add(p, metadata.UpdateSpeedStatic)
		entities[e] = d
	}
	f.scene.SyncObjects()
	require.Equal(t, 10, f.scene.ObjectCount())

	seen := map[metadata.SceneKey]bool{}
	for e, d := range entities {
		key, ok := d.SceneKey()
		require.True(t, ok)
		assert.False(t, seen[key])
		seen[key] = true
		obj := f.scene.Object(key)
		require.NotNil(t, obj)
		assert.Equal(t, e, obj.Entity)
	}

	for e := range entities {
		require.NoError(t, f.scene.RemoveEntity(e))
	}
	f.scene.SyncObjects()
	assert.Equal(t, 0, f.scene.ObjectCount())
	assert.Empty(t, f.scene.Buckets())

	// freed slots are reused
	_, d := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()
	key, ok := d.SceneKey()
	require.True(t, ok)
	assert.True(t, seen[key])
}

func TestDuplicateAddIsIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")
	e, d := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.CreateAndAddObject(e, d, metadata.UpdateSpeedDynamic)
	f.scene.SyncObjects()
	assert.Equal(t, 1, f.scene.ObjectCount())
}

func TestRebatchMembershipIsExclusive(t *testing.T) {
	f := newFixture(t, Config{Capacity: 4})
	setA := descriptors.NewObjectFactory("a", 0)
	setB := descriptors.NewObjectFactory("b", 0)
	pipelines := []*materials.MaterialPipeline{newPipeline(t, "a", setA), newPipeline(t, "b", setB)}
	f.observer()

	var drawables []*Drawable
	for i := 0; i < 20; i++ {
		speed := metadata.UpdateSpeed(i % int(metadata.UpdateSpeedCount))
		_, d := f.add(pipelines[0], speed)
		drawables = append(drawables, d)
	}
	f.scene.SyncObjects()

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		for i := 0; i < 8; i++ {
			d := drawables[rng.Intn(len(drawables))]
			switch rng.Intn(3) {
			case 0:
				d.SetPipeline(pipelines[rng.Intn(len(pipelines))])
			case 1:
				d.SetTransparent(rng.Intn(2) == 1)
			case 2:
				d.SetSpecialization(uint32(rng.Intn(2)))
			}
		}
		f.scene.SyncObjects()

		owners := map[metadata.SceneKey]int{}
		for _, b := range f.scene.Buckets() {
			for _, key := range b.Keys {
				owners[key]++
				d := f.scene.Object(key).Drawable
				assert.Same(t, d.Pipeline, b.Pipeline)
				assert.Equal(t, d.Transparent, b.Transparent)
				assert.Equal(t, d.Specialization, b.Specialization)
				assert.Equal(t, key.UpdateFreq, b.Speed)
			}
		}
		require.Len(t, owners, len(drawables))
		for key, n := range owners {
			require.Equal(t, 1, n, "key %v is in %d buckets", key, n)
		}

		onA := 0
		for _, d := range drawables {
			if d.Pipeline == pipelines[0] {
				onA++
			}
		}
		assert.Equal(t, onA, allocated(f.scene, setA, 0))
		assert.Equal(t, len(drawables)-onA, allocated(f.scene, setB, 0))
	}
}

func TestRebatchKeepsObjectWhenDescriptorsAreFull(t *testing.T) {
	f := newFixture(t, Config{})
	roomy := descriptors.NewObjectFactory("roomy", 0)
	tight := descriptors.NewObjectFactory("tight", 1)
	pa := newPipeline(t, "a", roomy)
	pb := newPipeline(t, "b", tight)
	f.observer()

	_, d1 := f.add(pa, metadata.UpdateSpeedStatic)
	_, d2 := f.add(pa, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	d1.SetPipeline(pb)
	d2.SetPipeline(pb)
	f.scene.SyncObjects()

	perPipeline := map[*materials.MaterialPipeline]int{}
	for _, b := range f.scene.Buckets() {
		perPipeline[b.Pipeline] += len(b.Keys)
	}
	assert.Equal(t, 1, perPipeline[pa])
	assert.Equal(t, 1, perPipeline[pb])
	assert.Equal(t, 1, builtin(t, f.scene.Instances().Find(roomy, 0)).AllocatedCount())
	assert.Equal(t, 1, builtin(t, f.scene.Instances().Find(tight, 0)).AllocatedCount())
}

func TestAddFailsWhenDescriptorsAreFull(t *testing.T) {
	f := newFixture(t, Config{})
	tight := descriptors.NewObjectFactory("tight", 1)
	p := newPipeline(t, "a", tight)
	f.observer()

	_, d1 := f.add(p, metadata.UpdateSpeedStatic)
	e2, d2 := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	assert.Equal(t, 1, f.scene.ObjectCount())
	_, ok := d1.SceneKey()
	assert.True(t, ok)
	_, ok = d2.SceneKey()
	assert.False(t, ok)
	assert.False(t, ecs.Has[BatchSceneLink](f.reg, e2))
}

func TestRenderBindlessBindsOncePerSpeed(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "bindless", descriptors.NewSceneFactory("scene"))
	obs := f.observer()

	f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedDynamic, func(d *Drawable) { d.VertexCount = 6 })
	f.scene.SyncObjects()

	rec, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, []vulkan.Op{
		vulkan.OpBindPipeline,
		vulkan.OpBindDescriptorSets, vulkan.OpDraw,
		vulkan.OpBindDescriptorSets, vulkan.OpDraw, vulkan.OpDraw,
	}, rec.Ops())
	// dynamic objects first
	assert.Equal(t, uint32(6), rec.Commands[2].Count)
	assert.Equal(t, 3, rc.Draws())
}

func TestRenderBindfulBindsPerObject(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "bindful", descriptors.NewSceneFactory("scene"), descriptors.NewObjectFactory("object", 0))
	obs := f.observer()

	f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedStatic, func(d *Drawable) { d.IndexCount = 12 })
	f.scene.SyncObjects()

	rec, _ := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderOpaqueObjects)
	assert.Equal(t, []vulkan.Op{
		vulkan.OpBindPipeline,
		vulkan.OpBindDescriptorSets,
		vulkan.OpBindDescriptorSets, vulkan.OpDraw,
		vulkan.OpBindDescriptorSets, vulkan.OpDrawIndexed,
	}, rec.Ops())
	assert.Equal(t, uint32(0), rec.Commands[1].FirstSet)
	assert.Equal(t, uint32(1), rec.Commands[2].FirstSet)
	assert.Equal(t, uint32(1), rec.Commands[4].FirstSet)
}

func TestRenderSkipsPhasesWithoutVariant(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")
	obs := f.observer()
	f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	rec, rc := f.render(obs, metadata.RenderPhaseShadowMap, (*BatchedScene).RenderScene)
	assert.Empty(t, rec.Commands)
	assert.Equal(t, 0, rc.Draws())
}

func TestRenderSpecializationsAndVisibility(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")
	obs := f.observer()

	f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedStatic, func(d *Drawable) { d.Specialization = 1 })
	f.add(p, metadata.UpdateSpeedStatic, func(d *Drawable) { d.Hidden = true })
	f.add(p, metadata.UpdateSpeedStatic, func(d *Drawable) { d.Specialization = 7 })
	f.scene.SyncObjects()

	rec, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 2, rc.Draws())
	require.Equal(t, 2, rec.Count(vulkan.OpBindPipeline))

	variant, _ := p.Variant(metadata.RenderPhaseDefault, metadata.RenderPassStandard)
	var bound []vk.Pipeline
	for _, c := range rec.Commands {
		if c.Op == vulkan.OpBindPipeline {
			bound = append(bound, c.Pipeline)
		}
	}
	assert.Equal(t, []vk.Pipeline{variant.Handle, variant.Specializations[1]}, bound)
}

func TestTransparentObjectsRenderLast(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")
	obs := f.observer()

	f.add(p, metadata.UpdateSpeedStatic, func(d *Drawable) { d.Transparent = true; d.VertexCount = 9 })
	f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	rec, _ := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	var counts []uint32
	for _, c := range rec.Commands {
		if c.Op == vulkan.OpDraw {
			counts = append(counts, c.Count)
		}
	}
	assert.Equal(t, []uint32{3, 9}, counts)

	_, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderTransparentObjects)
	assert.Equal(t, 1, rc.Draws())
}

func TestObserverLateJoinAndLeave(t *testing.T) {
	f := newFixture(t, Config{})
	object := descriptors.NewObjectFactory("object", 0)
	p := newPipeline(t, "lit", object)

	f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedDynamic)
	f.scene.SyncObjects()

	first := f.observer()
	second := f.observer()
	assert.Equal(t, []uint32{first, second}, f.scene.Observers())
	late := builtin(t, f.scene.Instances().Find(object, second))
	assert.Equal(t, 2, late.AllocatedCount())

	_, rc := f.render(second, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 2, rc.Draws())

	require.NoError(t, f.scene.UnregisterObserver(second))
	assert.Equal(t, 0, late.AllocatedCount())
	assert.Nil(t, f.scene.Instances().Find(object, second))

	_, rc = f.render(second, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 0, rc.Draws())
	_, rc = f.render(first, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 2, rc.Draws())

	assert.ErrorIs(t, f.scene.UnregisterObserver(second), ErrUnknownObserver)
}

func TestLateObserverSkipsObjectsWithoutDescriptors(t *testing.T) {
	f := newFixture(t, Config{})
	tight := descriptors.NewObjectFactory("tight", 1)
	p := newPipeline(t, "lit", tight)

	f.add(p, metadata.UpdateSpeedStatic)
	second, _ := f.add(p, metadata.UpdateSpeedStatic)
	f.add(p, metadata.UpdateSpeedDynamic)
	f.scene.SyncObjects()
	require.Equal(t, 3, f.scene.ObjectCount())

	// one slot per update speed
	obs := f.observer()
	assert.Equal(t, 2, allocated(f.scene, tight, obs))
	_, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 2, rc.Draws())

	require.NoError(t, f.scene.RemoveEntity(second))
	f.scene.SyncObjects()
	assert.Equal(t, 2, allocated(f.scene, tight, obs))
	assert.Empty(t, f.scene.opaque.find(p).unallocated[obs])
	_, rc = f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 2, rc.Draws())

	require.NoError(t, f.scene.UnregisterObserver(obs))
	assert.Nil(t, f.scene.opaque.find(p).unallocated[obs])
}

func TestUnallocatedObjectFollowsRebatch(t *testing.T) {
	f := newFixture(t, Config{})
	tight := descriptors.NewObjectFactory("tight", 1)
	p := newPipeline(t, "lit", tight)

	f.add(p, metadata.UpdateSpeedStatic)
	_, d := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()
	obs := f.observer()

	d.SetTransparent(true)
	f.scene.SyncObjects()
	_, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderTransparentObjects)
	assert.Equal(t, 0, rc.Draws())
	_, rc = f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderOpaqueObjects)
	assert.Equal(t, 1, rc.Draws())
}

func TestMaxObservers(t *testing.T) {
	f := newFixture(t, Config{MaxObservers: 2})
	a := f.observer()
	f.observer()
	_, err := f.scene.RegisterObserver()
	assert.ErrorIs(t, err, ErrMaxObservers)

	require.NoError(t, f.scene.UnregisterObserver(a))
	again, err := f.scene.RegisterObserver()
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestChildrenLeaveWithParent(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")

	var removed []uint64
	var listener int
	f.events.Register(core.EVENT_CODE_SCENE_OBJECT_REMOVED, &listener, func(code core.SystemEventCode, sender, l interface{}, ctx core.EventContext) bool {
		ev := ctx.Data.(core.SceneObjectRemoved)
		assert.Equal(t, f.scene.ID(), ev.SceneID)
		removed = append(removed, ev.Entity)
		return false
	})

	parent, _ := f.add(p, metadata.UpdateSpeedStatic)
	child, _ := f.add(p, metadata.UpdateSpeedStatic)
	grandchild, _ := f.add(p, metadata.UpdateSpeedDynamic)
	other, _ := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	require.NoError(t, LinkChild(f.reg, parent, child))
	require.NoError(t, LinkChild(f.reg, child, grandchild))
	assert.ErrorIs(t, LinkChild(f.reg, parent, f.reg.CreateEntity()), ErrMissingComponent)

	require.NoError(t, f.scene.RemoveEntity(parent))
	f.scene.SyncObjects()

	assert.Equal(t, 1, f.scene.ObjectCount())
	assert.ElementsMatch(t, []uint64{uint64(parent), uint64(child), uint64(grandchild)}, removed)
	for _, e := range []ecs.Entity{parent, child, grandchild} {
		assert.False(t, ecs.Has[BatchSceneLink](f.reg, e))
	}
	assert.True(t, ecs.Has[BatchSceneLink](f.reg, other))
}

func TestDestroyedEntityLeavesScene(t *testing.T) {
	f := newFixture(t, Config{})
	object := descriptors.NewObjectFactory("object", 0)
	p := newPipeline(t, "lit", object)
	obs := f.observer()

	var removed []uint64
	var listener int
	f.events.Register(core.EVENT_CODE_SCENE_OBJECT_REMOVED, &listener, func(code core.SystemEventCode, sender, l interface{}, ctx core.EventContext) bool {
		removed = append(removed, ctx.Data.(core.SceneObjectRemoved).Entity)
		return false
	})

	parent, _ := f.add(p, metadata.UpdateSpeedStatic)
	child, _ := f.add(p, metadata.UpdateSpeedStatic)
	other, _ := f.add(p, metadata.UpdateSpeedDynamic)
	f.scene.SyncObjects()
	require.NoError(t, LinkChild(f.reg, parent, child))
	require.Equal(t, 3, allocated(f.scene, object, obs))

	f.reg.DestroyEntity(parent)
	assert.Equal(t, 3, f.scene.ObjectCount())
	f.scene.SyncObjects()

	assert.Equal(t, 1, f.scene.ObjectCount())
	assert.Equal(t, 1, allocated(f.scene, object, obs))
	assert.ElementsMatch(t, []uint64{uint64(parent), uint64(child)}, removed)
	assert.False(t, ecs.Has[BatchSceneLink](f.reg, child))
	assert.True(t, ecs.Has[BatchSceneLink](f.reg, other))
	_, rc := f.render(obs, metadata.RenderPhaseDefault, (*BatchedScene).RenderScene)
	assert.Equal(t, 1, rc.Draws())

	f.scene.Destroy()
	assert.False(t, f.reg.RemoveDestroyListener(f.scene.destroyListener))
	f.reg.DestroyEntity(other)
	assert.True(t, f.scene.queuedRemoves.IsEmpty())
}

func TestRemovingChildDetachesIt(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")
	parent, _ := f.add(p, metadata.UpdateSpeedStatic)
	child, _ := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()
	require.NoError(t, LinkChild(f.reg, parent, child))

	require.NoError(t, f.scene.RemoveEntity(child))
	f.scene.SyncObjects()
	assert.Empty(t, ecs.Get[BatchSceneLink](f.reg, parent).Children)
	assert.Equal(t, 1, f.scene.ObjectCount())
}

func TestDeferredAddSkipsInvalidEntities(t *testing.T) {
	f := newFixture(t, Config{})
	p := newPipeline(t, "lit")

	destroyed, _ := f.add(p, metadata.UpdateSpeedStatic)
	f.reg.DestroyEntity(destroyed)
	f.add(nil, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()
	assert.Equal(t, 0, f.scene.ObjectCount())
}

func TestRebatchThenRemoveInOneSync(t *testing.T) {
	f := newFixture(t, Config{})
	pa, pb := newPipeline(t, "a"), newPipeline(t, "b")
	e, d := f.add(pa, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()

	d.SetPipeline(pb)
	require.NoError(t, f.scene.RemoveEntity(e))
	f.scene.SyncObjects()
	assert.Equal(t, 0, f.scene.ObjectCount())

	// unlinked drawables no longer queue changes
	d.SetTransparent(true)
	f.scene.SyncObjects()
	assert.Empty(t, f.scene.Buckets())
}

func TestDestroyReleasesEverything(t *testing.T) {
	f := newFixture(t, Config{})
	object := descriptors.NewObjectFactory("object", 0)
	p := newPipeline(t, "lit", object)
	f.observer()
	e, d := f.add(p, metadata.UpdateSpeedStatic)
	f.scene.SyncObjects()
	inst := builtin(t, f.scene.Instances().Find(object, 0))
	require.Equal(t, 1, inst.AllocatedCount())

	f.scene.Destroy()
	assert.Equal(t, 0, inst.AllocatedCount())
	assert.Equal(t, 0, f.scene.ObjectCount())
	assert.False(t, ecs.Has[BatchSceneLink](f.reg, e))
	_, ok := d.SceneKey()
	assert.False(t, ok)
}
