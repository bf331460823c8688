//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Runs go vet on every package.
func (Build) Vet() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the dry run binary into bin/.
func (Build) DryRun() error {
	mg.Deps(Build.Vet)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-render", "."), withStream()); err != nil {
		return err
	}
	return nil
}
