package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/me/nfclass/internal/config"
	"github.com/me/nfclass/internal/prompt"
	"github.com/me/nfclass/internal/registry"
)

const fetchCacheTTL = 24 * time.Hour

// workspace bundles the modules checkout commands write into with the
// registry classes and modules are read from.
type workspace struct {
	dir   string
	repo  config.Repo
	reg   registry.Registry
	local *registry.Local // nil when reading from the remote
	cache *registry.Cache
}

// openWorkspace loads dir's conventions and picks the registry: the
// checkout itself when it carries a classes/ directory, the git remote's
// raw files otherwise.
func openWorkspace(dir, remote, branch string) (*workspace, error) {
	repo, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("%s is not a modules repository: %w", dir, err)
	}
	w := &workspace{dir: dir, repo: repo}

	if info, err := os.Stat(filepath.Join(dir, "classes")); err == nil && info.IsDir() {
		w.local = registry.NewLocal(dir, repo.OrgPath, logger)
		w.reg = w.local
		return w, nil
	}

	var opts []registry.RemoteOption
	if cacheDir, err := os.UserCacheDir(); err == nil {
		dbPath := filepath.Join(cacheDir, "nfclass", "fetch.db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err == nil {
			if cache, err := registry.OpenCache(dbPath, fetchCacheTTL, logger); err == nil {
				w.cache = cache
				opts = append(opts, registry.WithCache(cache))
			} else {
				logger.Warn("fetch cache unavailable", "err", err)
			}
		}
	}

	rem, err := registry.NewRemote(remote, branch, repo.OrgPath, logger, opts...)
	if err != nil {
		w.Close()
		return nil, err
	}
	w.reg = rem
	return w, nil
}

func (w *workspace) Close() {
	if w.cache != nil {
		if err := w.cache.Close(); err != nil {
			logger.Warn("closing fetch cache", "err", err)
		}
	}
}

// resolveClassName normalizes the argument, prompting with completion over
// the available classes when it is empty.
func resolveClassName(ctx context.Context, reg registry.Registry, arg string, noPrompts bool) (string, error) {
	if arg != "" {
		return strings.ToLower(arg), nil
	}
	available, err := reg.ListClasses(ctx)
	if err != nil {
		return "", fmt.Errorf("list classes: %w", err)
	}
	if noPrompts {
		return "", fmt.Errorf("no class given, available: %s", strings.Join(available, ", "))
	}
	answers, err := prompt.Ask([]prompt.Question{{
		Key:         "class",
		Prompt:      "Class name",
		Suggestions: available,
	}})
	if err != nil {
		return "", err
	}
	name := strings.ToLower(answers["class"])
	if name == "" {
		return "", fmt.Errorf("no class given, available: %s", strings.Join(available, ", "))
	}
	return name, nil
}

// resolveAuthor returns the @-prefixed author handle, prompting when
// neither the flag nor GITHUB_USERNAME provides one.
func resolveAuthor(explicit string, noPrompts bool) (string, error) {
	if author := config.Author(explicit); author != "" {
		return author, nil
	}
	if noPrompts {
		return "", fmt.Errorf("no author given, set --author or GITHUB_USERNAME")
	}
	answers, err := prompt.Ask([]prompt.Question{{
		Key:    "author",
		Prompt: "GitHub username",
	}})
	if err != nil {
		return "", err
	}
	if author := config.Author(answers["author"]); author != "" {
		return author, nil
	}
	return "", fmt.Errorf("no author given, set --author or GITHUB_USERNAME")
}
