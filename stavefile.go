//go:build stave

package main

import (
	"fmt"
	"os"
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

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles both crater-cli and crater-bench binaries.
func Build() error {
	st.Deps(Init)
	st.Deps(Build_CLI, Build_Bench)
	return nil
}

// Build_CLI compiles the crater-cli binary with version information.
func Build_CLI() error {
	st.Deps(Init)
	return buildBinary("crater-cli")
}

// Build_Bench compiles the crater-bench binary with version information.
func Build_Bench() error {
	st.Deps(Init)
	return buildBinary("crater-bench")
}

// buildBinary compiles ./cmd/<name> into bin/<name> when its sources changed.
func buildBinary(name string) error {
	out := "bin/" + name
	rebuild, err := target.Glob(out, "**/*.go", "testdata/labels/*.csv", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Printf("%s is up to date\n", name)
		}
		return nil
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", out, "./cmd/"+name)
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.date=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
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
	artifacts := []string{
		"bin/",
		"crater-bench",
		"crater-cli",
		"bench-report.json",
		"coverage.out",
		"coverage.html",
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Bench namespace for benchmark-related targets.
type Bench st.Namespace

// benchLabels returns the truth and prediction label files for bench runs.
// Defaults to the sample labels under testdata/.
func benchLabels() (truth, pred string) {
	truth = os.Getenv("CRATER_TRUTH")
	if truth == "" {
		truth = "testdata/labels/truth.csv"
	}
	pred = os.Getenv("CRATER_PREDICTIONS")
	if pred == "" {
		pred = "testdata/labels/pred.csv"
	}
	return truth, pred
}

// Run scores the prediction labels against ground truth.
func (Bench) Run() error {
	st.Deps(Build_Bench)

	truth, pred := benchLabels()
	return sh.RunV("./bin/crater-bench",
		"-truth", truth,
		"-pred", pred,
	)
}

// Sweep runs an IoU threshold sweep to find the best acceptance threshold.
func (Bench) Sweep() error {
	st.Deps(Build_Bench)

	truth, pred := benchLabels()
	return sh.RunV("./bin/crater-bench",
		"-truth", truth,
		"-pred", pred,
		"-sweep",
	)
}

// Report writes a JSON report of the bench run to bench-report.json.
func (Bench) Report() error {
	st.Deps(Build_Bench)

	truth, pred := benchLabels()
	out, err := sh.Output("./bin/crater-bench",
		"-truth", truth,
		"-pred", pred,
		"-sweep",
		"-format", "json",
	)
	if err != nil {
		return err
	}
	return os.WriteFile("bench-report.json", []byte(out+"\n"), 0o644)
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, tests).
func Check() error {
	st.Deps(Vet, Lint, Test)
	return nil
}

// Coverage generates a coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}
