// Package lint checks that class components on disk still correspond to
// what generation would produce, honoring any recorded patch.
package lint

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/me/nfclass/internal/patch"
)

// Check is one per-file lint outcome.
type Check struct {
	File    string
	Message string
}

// Result collects the checks for one component.
type Result struct {
	Component string
	Passed    []Check
	Failed    []Check
}

// OK reports whether every check passed.
func (r *Result) OK() bool { return len(r.Failed) == 0 }

// Linter compares on-disk components against fresh expansions.
type Linter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Linter {
	return &Linter{logger: logger.With("component", "lint")}
}

// Component byte-compares the files under dir against fresh. When a .diff
// file recorded by the patch command exists in dir, it is applied to the
// fresh contents first, so deliberate local edits lint clean.
func (l *Linter) Component(name, dir string, fresh map[string]string) (*Result, error) {
	res := &Result{Component: name}

	fresh, diffApplied, err := l.applyRecordedPatch(name, dir, fresh)
	if err != nil {
		return nil, err
	}
	if diffApplied {
		res.Passed = append(res.Passed, Check{File: diffName(name), Message: "patch applies cleanly"})
	}

	for _, rel := range sortedPaths(fresh) {
		disk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if os.IsNotExist(err) {
			res.Failed = append(res.Failed, Check{File: rel, Message: "file is missing"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		if string(disk) != fresh[rel] {
			res.Failed = append(res.Failed, Check{File: rel, Message: "differs from a fresh expansion"})
			continue
		}
		res.Passed = append(res.Passed, Check{File: rel, Message: "matches a fresh expansion"})
	}

	l.logger.Debug("linted component", "component", name,
		"passed", len(res.Passed), "failed", len(res.Failed))
	return res, nil
}

func (l *Linter) applyRecordedPatch(name, dir string, fresh map[string]string) (map[string]string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, diffName(name)))
	if os.IsNotExist(err) {
		return fresh, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read patch: %w", err)
	}
	patches, err := patch.Parse(string(data))
	if err != nil {
		return nil, false, fmt.Errorf("parse recorded patch: %w", err)
	}
	patched, err := patch.ApplyFiles(fresh, patches)
	if err != nil {
		return nil, false, fmt.Errorf("apply recorded patch: %w", err)
	}
	return patched, true, nil
}

func diffName(component string) string {
	return filepath.Base(strings.ReplaceAll(component, "/", "_")) + ".diff"
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
