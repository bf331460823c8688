package scene

import "github.com/spaghettifunk/anima-render/engine/renderer/metadata"

// objectSettings is what an object was last batched with, so a later rebatch
// can find the bucket it leaves.
type objectSettings struct {
	transparent    bool
	specialization uint32
}

// settingsCache holds the settings of every object, indexed by scene id per speed.
type settingsCache struct {
	entries [metadata.UpdateSpeedCount][]objectSettings
}

func newSettingsCache(capacity int) *settingsCache {
	c := &settingsCache{}
	for i := range c.entries {
		c.entries[i] = make([]objectSettings, capacity)
	}
	return c
}

// ensure grows the cache of a speed to hold at least size entries.
func (c *settingsCache) ensure(speed metadata.UpdateSpeed, size int) {
	if size <= len(c.entries[speed]) {
		return
	}
	grown := make([]objectSettings, size)
	copy(grown, c.entries[speed])
	c.entries[speed] = grown
}

func (c *settingsCache) get(key metadata.SceneKey) objectSettings {
	e := c.entries[key.UpdateFreq]
	if int(key.SceneID) >= len(e) {
		return objectSettings{}
	}
	return e[key.SceneID]
}

func (c *settingsCache) set(key metadata.SceneKey, s objectSettings) {
	c.ensure(key.UpdateFreq, int(key.SceneID)+1)
	c.entries[key.UpdateFreq][key.SceneID] = s
}

func (c *settingsCache) clear(key metadata.SceneKey) {
	if int(key.SceneID) < len(c.entries[key.UpdateFreq]) {
		c.entries[key.UpdateFreq][key.SceneID] = objectSettings{}
	}
}
