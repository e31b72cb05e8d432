//go:build mage

// Package main contains Mage build targets for pagebinder developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/pagebinder/pkg/types"
)

const (
	binDir  = "bin"
	binName = "pagebinder"
	cmdPkg  = "./cmd/pagebinder"
)

// Init creates the default working folder.
func Init() error {
	if err := os.MkdirAll(types.DefaultWorkingFolder, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", types.DefaultWorkingFolder, err)
	}
	fmt.Println("  ", types.DefaultWorkingFolder)
	fmt.Println("Working folder initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. The sqlite ledger needs cgo.
func Test() error {
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWithV(env, "go", "test", "./...")
}

// Check vets the module and runs the tests.
func Check() error {
	mg.Deps(Vet)
	mg.Deps(Test)
	return nil
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output and the default working folder.
func Clean() error {
	for _, p := range []string{binDir, types.DefaultWorkingFolder, types.DefaultOutputPath} {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines walks the tree and counts non-blank lines in Go files,
// skipping underscore-prefixed directories the go tool ignores.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}
