// Package hclloader implements the config.Loader interface on top of HCL
// suite files. It discovers *.hcl files recursively, decodes their blocks,
// translates them into the format-agnostic model and orders declarations so
// that dependencies register before their dependents.
package hclloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/preflight/internal/config"
	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/schema"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL suite loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths and returns the
// translated suite with its checks in dependency order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Suite, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var checks []*config.Check

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.SuiteConfig
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Preconditions {
			check, err := translatePrecondition(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			checks = append(checks, check)
		}
		for _, a := range root.Aggregates {
			checks = append(checks, translateAggregate(a))
		}
	}

	ordered, err := sortByDependencies(checks)
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "checks", len(ordered))
	return &config.Suite{Checks: ordered}, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, deduplicated, in walk order.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
