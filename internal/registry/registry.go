// Package registry fetches class specifications and module metadata, either
// from a remote modules repository over HTTP or from a local checkout.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/me/nfclass/pkg/schema"
)

// DefaultModulesRemote is the modules repository used when no -g flag is
// given.
const DefaultModulesRemote = "https://github.com/mirpedrol/class-modules.git"

// DefaultBranch is the branch used when no -b flag is given.
const DefaultBranch = "main"

// ErrClassNotFound is returned when a requested class has no definition in
// the repository.
var ErrClassNotFound = errors.New("class not found")

// ErrModuleNotFound is returned when a module path has no meta.yml.
var ErrModuleNotFound = errors.New("module not found")

// ErrDiscoveryUnsupported is returned by sources that cannot enumerate
// module metadata (remote repositories without a local checkout).
var ErrDiscoveryUnsupported = errors.New("module discovery requires a local modules checkout")

// Registry provides class specifications and module metadata.
type Registry interface {
	// ListClasses returns the available class names, sorted.
	ListClasses(ctx context.Context) ([]string, error)
	// Class fetches and parses classes/<name>.yml.
	Class(ctx context.Context, name string) (*schema.Class, error)
	// ListModules returns the module paths (e.g. "clustalo/align") that
	// carry a meta.yml.
	ListModules(ctx context.Context) ([]string, error)
	// ModuleMeta fetches and parses modules/<org>/<module>/meta.yml.
	ModuleMeta(ctx context.Context, module string) (*schema.ModuleMeta, error)
	// ModuleTest fetches modules/<org>/<module>/tests/main.nf.test.
	ModuleTest(ctx context.Context, module string) ([]byte, error)
}

// HasModule reports whether the registry knows the given module path.
func HasModule(ctx context.Context, reg Registry, module string) bool {
	_, err := reg.ModuleMeta(ctx, module)
	return err == nil
}

func parseClassBytes(name string, data []byte) (*schema.Class, error) {
	cls, err := schema.ParseClass(data)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	if cls.Name == "" {
		cls.Name = name
	}
	return cls, nil
}
