package metadata

/** @brief How often the descriptor data of a scene object is expected to change. */
type UpdateSpeed uint8

const (
	/** @brief Data changes rarely, if ever. */
	UpdateSpeedStatic UpdateSpeed = iota
	/** @brief Data may change every frame. */
	UpdateSpeedDynamic

	UpdateSpeedCount
)

func (s UpdateSpeed) String() string {
	switch s {
	case UpdateSpeedStatic:
		return "static"
	case UpdateSpeedDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

/** @brief Identifies the storage slot of an object within a scene. */
type SceneKey struct {
	SceneID    uint32
	UpdateFreq UpdateSpeed
}
