//go:build stave

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs lint, test and build.
func All() error {
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Build compiles the tabscore binary with version information.
func Build() error {
	rebuild, err := target.Glob("bin/tabscore", "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("tabscore is up to date")
		}
		return nil
	}

	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", "bin/tabscore", "./cmd/tabscore")
}

func ldflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.buildDate=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		time.Now().Format(time.RFC3339),
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort skips tests that need Tesseract or a model server.
func TestShort() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm("bin/")
}
