/*
Headless dry run of the renderer: loads the settings, builds a demo scene and
records the requested number of frames without a GPU
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-render/engine"
	"github.com/spaghettifunk/anima-render/engine/core"
	"github.com/spaghettifunk/anima-render/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-render/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima-render/testbed"
)

func main() {
	var (
		settings = flag.String("settings", "", "settings file (TOML); defaults are used when empty")
		watch    = flag.Bool("watch", false, "reload the settings file when it changes")
		frames   = flag.Uint64("frames", 60, "number of frames to record, 0 runs until interrupted")
		objects  = flag.Int("objects", 16, "number of objects in the demo scene")
		width    = flag.Uint("width", 1280, "render target width")
		height   = flag.Uint("height", 720, "render target height")
		verbose  = flag.Bool("verbose", false, "log every recorded command")
		dedup    = flag.Bool("dedup", false, "drop pipeline and descriptor binds that do not change the bound state")
	)
	flag.Parse()

	rec := vulkan.NewHeadlessRecorder(*verbose)
	tb := testbed.NewTestGame(testbed.Options{
		SettingsPath:  *settings,
		WatchSettings: *watch,
		Width:         uint32(*width),
		Height:        uint32(*height),
		Objects:       *objects,
		Recorder:      rec,
	})

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("failed to create the engine: %s", err)
	}
	if *verbose {
		core.SetLogLevel(core.LogLevelDebug)
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal("failed to initialize the engine: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		e.Events().Fire(core.EVENT_CODE_APPLICATION_QUIT, nil, nil)
	}()

	var cmd metadata.CommandRecorder = rec
	var dr *vulkan.DedupRecorder
	if *dedup {
		dr = vulkan.NewDedupRecorder(rec)
		cmd = dr
	}

	runErr := e.Run(cmd, *frames)
	if dr != nil {
		core.LogInfo("skipped %d redundant binds", dr.Skipped())
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	if runErr != nil {
		core.LogFatal("dry run failed: %s", runErr)
	}
}
