package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/me/nfclass/internal/generate"
	"github.com/me/nfclass/internal/registry"
	"github.com/me/nfclass/pkg/schema"
)

// expandClass fetches a class and renders its subworkflow files. modules
// narrows the expansion to a subset of the class's modules; unknown names
// are logged and skipped.
func expandClass(ctx context.Context, w *workspace, className string, moduleFilter []string, author string) (*generate.Subworkflow, error) {
	cls, err := w.reg.Class(ctx, className)
	if errors.Is(err, registry.ErrClassNotFound) {
		available, listErr := w.reg.ListClasses(ctx)
		if listErr == nil {
			return nil, fmt.Errorf("class %q not found, available: %s", className, strings.Join(available, ", "))
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	modules, err := resolveModules(ctx, w, cls, moduleFilter)
	if err != nil {
		return nil, err
	}

	metas := make(map[string]*schema.ModuleMeta, len(modules))
	kept := make([]string, 0, len(modules))
	for _, module := range modules {
		meta, err := w.reg.ModuleMeta(ctx, module)
		if err != nil {
			logger.Warn("skipping module without readable meta.yml", "module", module, "err", err)
			continue
		}
		metas[module] = meta
		kept = append(kept, module)
	}
	modules = kept
	if len(modules) == 0 {
		return nil, fmt.Errorf("class %q has no usable modules", className)
	}

	var testSources map[string][]byte
	if len(cls.TestData) == 0 {
		testSources = make(map[string][]byte, len(modules))
		for _, module := range modules {
			src, err := w.reg.ModuleTest(ctx, module)
			if err != nil {
				logger.Warn("module test file unavailable", "module", module, "err", err)
				continue
			}
			testSources[module] = src
		}
	}

	opts := generate.Options{Author: author, Org: w.repo.OrgPath}
	return generate.NewBuilder(logger).Subworkflow(cls, modules, metas, testSources, opts)
}

// resolveModules picks the modules to expand: the explicit subset when
// given, the class's component list otherwise, and structural discovery
// over a local checkout as a last resort.
func resolveModules(ctx context.Context, w *workspace, cls *schema.Class, filter []string) ([]string, error) {
	if len(filter) > 0 {
		known := make(map[string]bool, len(cls.Modules))
		for _, m := range cls.Modules {
			known[m] = true
		}
		var modules []string
		for _, m := range filter {
			m = strings.ToLower(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			if !known[m] && !registry.HasModule(ctx, w.reg, m) {
				logger.Warn("unknown module, skipping", "module", m)
				continue
			}
			modules = append(modules, m)
		}
		if len(modules) == 0 {
			return nil, fmt.Errorf("none of the requested modules exist")
		}
		return modules, nil
	}

	if len(cls.Modules) > 0 {
		return cls.Modules, nil
	}

	if w.local == nil {
		return nil, registry.ErrDiscoveryUnsupported
	}
	modules, err := w.local.Discover(ctx, cls)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules in %s match class %q", w.local.ModulesDir(), cls.Name)
	}
	return modules, nil
}

// subworkflowDir is where an expanded class lives inside the checkout.
func subworkflowDir(w *workspace, className string) string {
	return filepath.Join(w.dir, "subworkflows", w.repo.OrgPath, className)
}
