//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	wireDir    = "./internal/app"
	coverFile  = "coverage.out"
	modulePath = "github.com/uniedit/reelgen"
)

// Binaries built by Build, keyed by output name.
var binaries = map[string]string{
	"server":  "./cmd/server",
	"reelctl": "./cmd/reelctl",
}

// Default target when running mage without arguments.
var Default = Build

// Build builds every binary into bin/, stamped with the git version.
func Build() error {
	mg.Deps(Generate)

	ldflags := "-s -w -X main.version=" + version()
	for name, pkg := range binaries {
		fmt.Printf("Building %s...\n", name)
		out := filepath.Join(binDir, name)
		if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, pkg); err != nil {
			return fmt.Errorf("build %s: %w", name, err)
		}
	}
	return nil
}

// version describes HEAD, or "dev" outside a git checkout.
func version() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// Generate runs all code generation.
func Generate() {
	mg.Deps(Wire)
}

// Wire regenerates internal/app/wire_gen.go from the provider sets.
func Wire() error {
	fmt.Println("Running wire...")
	return sh.RunV("wire", "gen", wireDir)
}

// Test runs all tests with the race detector.
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// TestDomain runs only the domain packages, which need no services.
func TestDomain() error {
	fmt.Println("Running domain tests...")
	return sh.RunV("go", "test", "-race", modulePath+"/internal/domain/...")
}

// TestCover runs tests with coverage and prints the per-function summary.
func TestCover() error {
	fmt.Println("Running tests with coverage...")
	if err := sh.RunV("go", "test", "-covermode=atomic", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverFile)
}

// Lint runs golangci-lint.
func Lint() error {
	fmt.Println("Running linter...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output, coverage and generated wire code.
func Clean() error {
	fmt.Println("Cleaning...")
	for _, path := range []string{binDir, coverFile, filepath.Join(wireDir, "wire_gen.go")} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.RunV("go", "mod", "tidy")
}

// All runs tidy, generate, vet, lint, test, and build.
func All() {
	mg.SerialDeps(Tidy, Generate, Vet, Lint, Test, Build)
}

// Dev builds and runs the server with console logs at debug level.
func Dev() error {
	mg.Deps(Build)
	fmt.Println("Starting server...")
	env := map[string]string{
		"REELGEN_LOG_FORMAT": "console",
		"REELGEN_LOG_LEVEL":  "debug",
	}
	return sh.RunWithV(env, filepath.Join(".", binDir, "server"))
}

// Demo runs reelctl against prompts.txt (override with REELGEN_PROMPTS).
func Demo() error {
	mg.Deps(Build)
	prompts := os.Getenv("REELGEN_PROMPTS")
	if prompts == "" {
		prompts = "prompts.txt"
	}
	if _, err := os.Stat(prompts); err != nil {
		return fmt.Errorf("demo needs a prompt file: %w", err)
	}
	return sh.RunV(filepath.Join(".", binDir, "reelctl"), "generate", "-prompts", prompts)
}

// CI runs the CI pipeline (tidy, generate, vet, test with coverage).
func CI() {
	mg.SerialDeps(Tidy, Generate, Vet, TestCover)
}

// Install installs development tools.
func Install() error {
	fmt.Println("Installing development tools...")

	tools := []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	}
	for _, tool := range tools {
		name := tool[strings.LastIndex(tool, "/")+1 : strings.Index(tool, "@")]
		fmt.Printf("  Installing %s\n", name)
		if err := sh.RunV("go", "install", tool); err != nil {
			return fmt.Errorf("installing %s: %w", tool, err)
		}
	}
	return nil
}
