package lint

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/nfclass/internal/patch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeComponent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestComponent_Clean(t *testing.T) {
	fresh := map[string]string{
		"main.nf":            "workflow ALIGNMENT {\n}\n",
		"meta.yml":           "name: alignment\n",
		"tests/main.nf.test": "nextflow_workflow {\n}\n",
	}
	dir := t.TempDir()
	writeComponent(t, dir, fresh)

	res, err := New(testLogger()).Component("alignment", dir, fresh)
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected clean lint, failed: %+v", res.Failed)
	}
	if len(res.Passed) != 3 {
		t.Errorf("passed = %d, want 3", len(res.Passed))
	}
}

func TestComponent_DriftAndMissing(t *testing.T) {
	fresh := map[string]string{
		"main.nf":  "workflow ALIGNMENT {\n}\n",
		"meta.yml": "name: alignment\n",
	}
	dir := t.TempDir()
	writeComponent(t, dir, map[string]string{"main.nf": "workflow EDITED {\n}\n"})

	res, err := New(testLogger()).Component("alignment", dir, fresh)
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if res.OK() {
		t.Fatal("expected failures")
	}
	msgs := make(map[string]string)
	for _, c := range res.Failed {
		msgs[c.File] = c.Message
	}
	if !strings.Contains(msgs["main.nf"], "differs") {
		t.Errorf("main.nf message = %q", msgs["main.nf"])
	}
	if !strings.Contains(msgs["meta.yml"], "missing") {
		t.Errorf("meta.yml message = %q", msgs["meta.yml"])
	}
}

func TestComponent_PatchedEditsLintClean(t *testing.T) {
	fresh := map[string]string{"main.nf": "workflow ALIGNMENT {\n    main:\n    A()\n}\n"}
	edited := map[string]string{"main.nf": "workflow ALIGNMENT {\n    main:\n    A()\n    B()\n}\n"}

	text, changed, err := patch.Diff(edited, fresh)
	if err != nil || !changed {
		t.Fatalf("Diff: changed=%v err=%v", changed, err)
	}

	dir := t.TempDir()
	writeComponent(t, dir, edited)
	writeComponent(t, dir, map[string]string{"alignment.diff": text})

	res, err := New(testLogger()).Component("alignment", dir, fresh)
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected patched component to lint clean, failed: %+v", res.Failed)
	}
}

func TestReport(t *testing.T) {
	results := []*Result{
		{Component: "alignment", Passed: []Check{{File: "main.nf", Message: "matches a fresh expansion"}}},
		{Component: "pairwise", Failed: []Check{{File: "meta.yml", Message: "file is missing"}}},
	}

	out := Report(results, false)
	if !strings.Contains(out, "pairwise") || !strings.Contains(out, "meta.yml") {
		t.Errorf("report missing failure details:\n%s", out)
	}
	if strings.Contains(out, "main.nf") {
		t.Errorf("passed checks should be hidden by default:\n%s", out)
	}

	out = Report(results, true)
	if !strings.Contains(out, "main.nf") {
		t.Errorf("showPassed should list passing checks:\n%s", out)
	}
}
