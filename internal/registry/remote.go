package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/me/nfclass/pkg/schema"
)

// Remote reads a modules repository over HTTP using the raw file host and
// the contents API, without cloning it.
type Remote struct {
	fullName   string // e.g. "mirpedrol/class-modules"
	branch     string
	org        string
	rawBase    string // override for tests
	apiBase    string // override for tests
	httpClient *http.Client
	cache      *Cache
	logger     *slog.Logger
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithCache attaches a fetch cache.
func WithCache(c *Cache) RemoteOption {
	return func(r *Remote) { r.cache = c }
}

// WithBaseURLs overrides the raw and API hosts, used in tests.
func WithBaseURLs(raw, api string) RemoteOption {
	return func(r *Remote) { r.rawBase = raw; r.apiBase = api }
}

// NewRemote creates a Remote for the given git remote URL and branch.
// org is the organisation directory under modules/.
func NewRemote(remoteURL, branch, org string, logger *slog.Logger, opts ...RemoteOption) (*Remote, error) {
	fullName, err := repoFullName(remoteURL)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		branch = DefaultBranch
	}
	r := &Remote{
		fullName:   fullName,
		branch:     branch,
		org:        org,
		rawBase:    "https://raw.githubusercontent.com",
		apiBase:    "https://api.github.com",
		httpClient: &http.Client{},
		logger:     logger.With("component", "registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// repoFullName extracts "owner/repo" from a git remote URL.
func repoFullName(remoteURL string) (string, error) {
	s := strings.TrimSuffix(remoteURL, ".git")
	s = strings.TrimSuffix(s, "/")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "git@github.com:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			if strings.Count(rest, "/") != 1 {
				return "", fmt.Errorf("remote %q: expected owner/repo", remoteURL)
			}
			return rest, nil
		}
	}
	return "", fmt.Errorf("remote %q: only github.com remotes are supported without a local checkout", remoteURL)
}

// fetch retrieves a repository file by path, consulting the cache first.
func (r *Remote) fetch(ctx context.Context, relPath string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", r.rawBase, r.fullName, r.branch, relPath)
	return r.get(ctx, url)
}

func (r *Remote) get(ctx context.Context, url string) ([]byte, error) {
	if r.cache != nil {
		if body, ok := r.cache.Get(ctx, url); ok {
			r.logger.Debug("cache hit", "url", url)
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	r.logger.Debug("HTTP request", "url", url)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", url, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if r.cache != nil {
		if err := r.cache.Put(ctx, url, body); err != nil {
			r.logger.Warn("cache write failed", "url", url, "err", err)
		}
	}
	return body, nil
}

var errNotFound = errors.New("not found")

// ListClasses enumerates classes/*.yml via the contents API.
func (r *Remote) ListClasses(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/classes?ref=%s", r.apiBase, r.fullName, r.branch)
	body, err := r.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	var entries []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("list classes: parse response: %w", err)
	}

	var classes []string
	for _, e := range entries {
		if e.Type == "file" {
			if name, ok := strings.CutSuffix(e.Name, ".yml"); ok {
				classes = append(classes, name)
			}
		}
	}
	sort.Strings(classes)
	return classes, nil
}

func (r *Remote) Class(ctx context.Context, name string) (*schema.Class, error) {
	body, err := r.fetch(ctx, "classes/"+name+".yml")
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("class %q: %w", name, ErrClassNotFound)
		}
		return nil, err
	}
	return parseClassBytes(name, body)
}

// ListModules is unsupported for remote repositories.
func (r *Remote) ListModules(ctx context.Context) ([]string, error) {
	return nil, ErrDiscoveryUnsupported
}

func (r *Remote) ModuleMeta(ctx context.Context, module string) (*schema.ModuleMeta, error) {
	body, err := r.fetch(ctx, fmt.Sprintf("modules/%s/%s/meta.yml", r.org, module))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("module %q: %w", module, ErrModuleNotFound)
		}
		return nil, err
	}
	meta, err := schema.ParseModuleMeta(body)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", module, err)
	}
	return meta, nil
}

func (r *Remote) ModuleTest(ctx context.Context, module string) ([]byte, error) {
	return r.fetch(ctx, fmt.Sprintf("modules/%s/%s/tests/main.nf.test", r.org, module))
}
