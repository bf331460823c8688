//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Records frames of the demo scene without a GPU. FRAMES and SETTINGS
// override the frame count and the settings file, DEDUP=1 drops redundant binds.
func (Run) DryRun() error {
	args := []string{"run", ".", "-frames", envOr("FRAMES", "120")}
	if settings := os.Getenv("SETTINGS"); settings != "" {
		args = append(args, "-settings", settings)
	}
	if os.Getenv("DEDUP") == "1" {
		args = append(args, "-dedup")
	}
	if mg.Verbose() {
		args = append(args, "-verbose")
	}
	fmt.Println("Run dry run...")
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
