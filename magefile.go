//go:build mage

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "sleepboard"

// Build builds Sleepboard for Linux with Green Tea GC
func Build() error {
	fmt.Println("Building Sleepboard for Linux with Go 1.25 + Green Tea GC...")
	env := map[string]string{
		"GOOS":         "linux",
		"GOARCH":       "amd64",
		"CGO_ENABLED":  "0",
		"GOEXPERIMENT": "greenteagc",
	}
	return sh.RunWith(env, "go", "build", "-trimpath", "-ldflags", "-s -w", "-o", binary+"-linux-amd64", "./cmd/sleepboard")
}

// BuildLocal builds Sleepboard for current platform
func BuildLocal() error {
	fmt.Printf("Building Sleepboard for %s/%s...\n", runtime.GOOS, runtime.GOARCH)
	return sh.Run("go", "build", "-o", binary, "./cmd/sleepboard")
}

// Run serves the dashboard against DATA_FILE, defaulting to the bundled sample
func Run() error {
	data := os.Getenv("DATA_FILE")
	if data == "" {
		data = "testdata/sleep_sample.csv"
	}
	variant := os.Getenv("VARIANT")
	if variant == "" {
		variant = "story"
	}
	return sh.RunV("go", "run", "./cmd/sleepboard", "serve", "--data", data, "--variant", variant)
}

// Charts exports every variant's panels as SVG under ./charts
func Charts() error {
	mg.Deps(BuildLocal)
	for _, variant := range []string{"story", "grid", "explorer", "distribution", "correlation"} {
		out := "charts/" + variant
		if err := sh.RunV("./"+binary, "export", "--data", "testdata/sleep_sample.csv", "--variant", variant, "--out", out); err != nil {
			return err
		}
	}
	return nil
}

// Test runs tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "./...")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning build artifacts...")
	for _, path := range []string{binary, binary + "-linux-amd64", "charts"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Update upgrades all Go dependencies
func Update() error {
	fmt.Println("Updating dependencies...")
	if err := sh.Run("go", "get", "-u", "./..."); err != nil {
		return err
	}
	return sh.Run("go", "mod", "tidy")
}

// Fmt runs gofmt on all Go files
func Fmt() error {
	fmt.Println("Formatting code...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet on all Go files
func Vet() error {
	fmt.Println("Vetting code...")
	return sh.Run("go", "vet", "./...")
}

// Deps downloads dependencies
func Deps() error {
	fmt.Println("Downloading dependencies...")
	return sh.Run("go", "mod", "download")
}

// CI runs all checks for continuous integration
func CI() error {
	mg.SerialDeps(Deps, Fmt, Vet, Test)
	fmt.Println("All CI checks passed!")
	return nil
}
