package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AnacondaAPIBase is the anaconda.org package API host, overridable in
// tests.
var AnacondaAPIBase = "https://api.anaconda.org"

// CondaPackage holds the bioconda metadata used when scaffolding a module.
type CondaPackage struct {
	Name          string
	LatestVersion string `json:"latest_version"`
	Summary       string `json:"summary"`
	DocURL        string `json:"doc_url"`
	DevURL        string `json:"dev_url"`
	License       string `json:"license"`
}

// LookupBioconda fetches package metadata from the bioconda channel.
// version pins the returned version when non-empty.
func LookupBioconda(ctx context.Context, name, version string) (*CondaPackage, error) {
	url := fmt.Sprintf("%s/package/bioconda/%s", AnacondaAPIBase, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anaconda lookup %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("bioconda package %q not found", name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anaconda lookup %s: unexpected status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anaconda lookup %s: %w", name, err)
	}

	var pkg CondaPackage
	if err := json.Unmarshal(body, &pkg); err != nil {
		return nil, fmt.Errorf("anaconda lookup %s: parse response: %w", name, err)
	}
	pkg.Name = name
	if version != "" {
		pkg.LatestVersion = version
	}
	return &pkg, nil
}
