// Package config reads the repository conventions file that modules repos
// carry at their root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the conventions file expected at the modules-repo root.
const FileName = ".nf-class.yml"

// Repo describes a modules repository.
type Repo struct {
	RepositoryType string `yaml:"repository_type"` // must be "modules"
	OrgPath        string `yaml:"org_path"`        // organisation directory under modules/
}

// Default returns the conventions assumed when a setting is omitted.
func Default() Repo {
	return Repo{
		RepositoryType: "modules",
		OrgPath:        "mirpedrol",
	}
}

// Load reads dir's conventions file. Pipeline repositories are rejected;
// class components only live in modules repositories.
func Load(dir string) (Repo, error) {
	repo := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return repo, fmt.Errorf("read %s: %w", FileName, err)
	}
	if err := yaml.Unmarshal(data, &repo); err != nil {
		return repo, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if repo.RepositoryType != "modules" {
		return repo, fmt.Errorf("repository_type %q is not supported, only modules repositories hold classes", repo.RepositoryType)
	}
	if repo.OrgPath == "" {
		repo.OrgPath = Default().OrgPath
	}
	return repo, nil
}

// Author resolves the default author handle: the explicit value when given,
// else the GITHUB_USERNAME environment variable. The handle is returned
// with a leading @.
func Author(explicit string) string {
	name := explicit
	if name == "" {
		name = os.Getenv("GITHUB_USERNAME")
	}
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	return name
}
