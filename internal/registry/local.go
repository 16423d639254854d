package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/me/nfclass/pkg/schema"
)

// Local reads a modules repository from a checkout on disk.
type Local struct {
	dir    string // repository root
	org    string // organisation directory under modules/
	logger *slog.Logger
}

// NewLocal creates a Local registry rooted at dir.
func NewLocal(dir, org string, logger *slog.Logger) *Local {
	return &Local{dir: dir, org: org, logger: logger.With("component", "registry")}
}

// Dir returns the repository root.
func (l *Local) Dir() string { return l.dir }

// ModulesDir returns the organisation's modules directory.
func (l *Local) ModulesDir() string {
	return filepath.Join(l.dir, "modules", l.org)
}

func (l *Local) ListClasses(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.dir, "classes"))
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".yml"); ok {
			classes = append(classes, name)
		}
	}
	sort.Strings(classes)
	return classes, nil
}

func (l *Local) Class(ctx context.Context, name string) (*schema.Class, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, "classes", name+".yml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("class %q: %w", name, ErrClassNotFound)
		}
		return nil, fmt.Errorf("read class %s: %w", name, err)
	}
	return parseClassBytes(name, data)
}

// ListModules walks modules/<org>/ collecting every directory that carries a
// meta.yml, returning paths relative to the organisation directory.
func (l *Local) ListModules(ctx context.Context) ([]string, error) {
	root := l.ModulesDir()
	var modules []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "meta.yml" {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		modules = append(modules, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	sort.Strings(modules)
	return modules, nil
}

func (l *Local) ModuleMeta(ctx context.Context, module string) (*schema.ModuleMeta, error) {
	data, err := os.ReadFile(filepath.Join(l.ModulesDir(), filepath.FromSlash(module), "meta.yml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("module %q: %w", module, ErrModuleNotFound)
		}
		return nil, fmt.Errorf("read module %s: %w", module, err)
	}
	meta, err := schema.ParseModuleMeta(data)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", module, err)
	}
	return meta, nil
}

func (l *Local) ModuleTest(ctx context.Context, module string) ([]byte, error) {
	path := filepath.Join(l.ModulesDir(), filepath.FromSlash(module), "tests", "main.nf.test")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module test %s: %w", module, err)
	}
	return data, nil
}

// Discover returns the modules whose metadata satisfies the class contract,
// using the strict matching rule. Modules that fail to parse are skipped
// with a debug log, matching the forgiving behavior of directory scans.
func (l *Local) Discover(ctx context.Context, cls *schema.Class) ([]string, error) {
	modules, err := l.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, module := range modules {
		meta, err := l.ModuleMeta(ctx, module)
		if err != nil {
			l.logger.Debug("skipping unreadable module", "module", module, "err", err)
			continue
		}
		if schema.MatchesClass(cls, meta) {
			matched = append(matched, module)
		}
	}
	return matched, nil
}
