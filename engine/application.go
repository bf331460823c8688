package engine

type ApplicationConfig struct {
	// The application name used in logs.
	Name string
	// Settings file to load. Defaults are used when empty.
	SettingsPath string
	// Reload the settings file whenever it changes on disk.
	WatchSettings bool
	// Size of the default render target.
	StartWidth  uint32
	StartHeight uint32
}
