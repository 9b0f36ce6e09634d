// Command corecheck keeps the scoring core free of I/O layers.
//
// It scans non-test Go files in the core packages (rubric, scoring, tiers,
// recommend, schedule, audit) and fails when one of them imports storage,
// transport or export code.
//
// Usage:
//
//	go run ./tools/corecheck [-root <project-root>]
package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// corePackages are relative to <root>/pkg.
var corePackages = []string{"rubric", "scoring", "tiers", "recommend", "schedule", "audit"}

// forbidden import paths. An entry ending in "/" matches as a prefix.
var forbidden = []string{
	"database/sql",
	"net/http",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/api",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/artifacts",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/certify",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/metrics",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report",
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store",
	"github.com/aws/",
	"cloud.google.com/",
	"github.com/redis/",
}

// Violation is one forbidden import.
type Violation struct {
	File   string
	Line   int
	Import string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d imports %q", v.File, v.Line, v.Import)
}

func main() {
	root := flag.String("root", ".", "Project root directory")
	flag.Parse()
	os.Exit(run(*root, os.Stdout, os.Stderr))
}

func run(root string, stdout, stderr io.Writer) int {
	return runOn(root, corePackages, stdout, stderr)
}

func runOn(root string, pkgs []string, stdout, stderr io.Writer) int {
	violations, err := check(root, pkgs)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}
	for _, v := range violations {
		fmt.Fprintf(stdout, "CORE VIOLATION: %s\n", v)
	}
	if len(violations) > 0 {
		fmt.Fprintf(stdout, "\n%d core isolation violation(s) found\n", len(violations))
		return 1
	}
	fmt.Fprintln(stdout, "core isolation check passed")
	return 0
}

func check(root string, pkgs []string) ([]Violation, error) {
	var violations []Violation
	fset := token.NewFileSet()

	for _, pkg := range pkgs {
		dir := filepath.Join(root, "pkg", pkg)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("core package %s: %w", pkg, err)
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			for _, imp := range f.Imports {
				importPath := strings.Trim(imp.Path.Value, `"`)
				if !isForbidden(importPath) {
					continue
				}
				rel, _ := filepath.Rel(root, path)
				violations = append(violations, Violation{
					File:   rel,
					Line:   fset.Position(imp.Pos()).Line,
					Import: importPath,
				})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return violations, nil
}

func isForbidden(importPath string) bool {
	for _, f := range forbidden {
		if strings.HasSuffix(f, "/") {
			if strings.HasPrefix(importPath, f) {
				return true
			}
			continue
		}
		if importPath == f || strings.HasPrefix(importPath, f+"/") {
			return true
		}
	}
	return false
}
