package descriptors

// InstanceTable maps observer indices to the instances bound for each set of
// one pipeline layout.
type InstanceTable struct {
	factories   []Factory
	sets        [][]SetInstance
	bindless    bool
	perObjStart uint32
}

// Init assigns the layout factories. A table without factories binds nothing.
func (t *InstanceTable) Init(factories []Factory) {
	t.factories = factories
	t.sets = nil
	t.bindless = true
	t.perObjStart = uint32(len(factories))
	for i, f := range factories {
		if !f.Bindless() {
			t.bindless = false
			if uint32(i) < t.perObjStart {
				t.perObjStart = uint32(i)
			}
		}
	}
}

// AddObserver creates or fetches the instances serving observer.
func (t *InstanceTable) AddObserver(index uint32, cache *InstanceCache) []SetInstance {
	for uint32(len(t.sets)) <= index {
		t.sets = append(t.sets, nil)
	}
	sets := make([]SetInstance, len(t.factories))
	for i, f := range t.factories {
		sets[i] = cache.GetOrCreate(f, index)
	}
	t.sets[index] = sets
	return sets
}

func (t *InstanceTable) RemoveObserver(index uint32) []SetInstance {
	if index >= uint32(len(t.sets)) {
		return nil
	}
	sets := t.sets[index]
	t.sets[index] = nil
	return sets
}

// Get returns the instances for observer, or nil if the observer is unknown.
func (t *InstanceTable) Get(index uint32) []SetInstance {
	if index >= uint32(len(t.sets)) {
		return nil
	}
	return t.sets[index]
}

func (t *InstanceTable) Bindless() bool {
	return t.bindless
}

// PerObjectStart is the first set index that needs a bind per object.
func (t *InstanceTable) PerObjectStart() uint32 {
	return t.perObjStart
}

func (t *InstanceTable) DescriptorSetCount() uint32 {
	return uint32(len(t.factories))
}

// Observers returns the observer indices currently present in the table.
func (t *InstanceTable) Observers() []uint32 {
	var out []uint32
	for i, s := range t.sets {
		if s != nil {
			out = append(out, uint32(i))
		}
	}
	return out
}
