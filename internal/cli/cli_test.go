package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/nfclass/internal/registry"
)

// testCheckout copies the fixture modules repository into a temp dir so
// commands can write into it.
func testCheckout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.CopyFS(dir, os.DirFS("../../testdata")); err != nil {
		t.Fatalf("copy fixtures: %v", err)
	}
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExpandClassCommand(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	_, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol", "-f")
	if err != nil {
		t.Fatalf("expand-class: %v", err)
	}

	mainNF, err := os.ReadFile(filepath.Join(dir, "subworkflows/mirpedrol/alignment/main.nf"))
	if err != nil {
		t.Fatalf("generated main.nf missing: %v", err)
	}
	for _, want := range []string{
		"workflow ALIGNMENT {",
		"CLUSTALO_ALIGN( ch_fasta_branch.clustalo_align, [[], []], [] )",
		"FAMSA_ALIGN( ch_fasta_branch.famsa_align )",
	} {
		if !strings.Contains(string(mainNF), want) {
			t.Errorf("main.nf missing %q", want)
		}
	}
	for _, rel := range []string{"meta.yml", "tests/main.nf.test"} {
		if _, err := os.Stat(filepath.Join(dir, "subworkflows/mirpedrol/alignment", rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
}

func TestExpandClassCommand_ModuleSubset(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	_, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol", "-f", "-m", "famsa/align,nosuch/tool")
	if err != nil {
		t.Fatalf("expand-class: %v", err)
	}

	mainNF, err := os.ReadFile(filepath.Join(dir, "subworkflows/mirpedrol/alignment/main.nf"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(mainNF), "CLUSTALO_ALIGN") {
		t.Error("subset expansion should not include clustalo")
	}
	if !strings.Contains(string(mainNF), "FAMSA_ALIGN") {
		t.Error("subset expansion lost famsa")
	}
}

func TestExpandClassCommand_ExistingFiles(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	if _, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol"); err != nil {
		t.Fatalf("first expand-class: %v", err)
	}
	if _, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol"); err == nil {
		t.Fatal("expected error re-expanding without --force")
	}
}

func TestLintCommand(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	if _, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol"); err != nil {
		t.Fatalf("expand-class: %v", err)
	}

	out, err := runCommand(t, "classes", "lint", "alignment", "-d", dir)
	if err != nil {
		t.Fatalf("lint after expand should pass: %v\n%s", err, out)
	}

	// drift a file and lint again
	mainPath := filepath.Join(dir, "subworkflows/mirpedrol/alignment/main.nf")
	if err := os.WriteFile(mainPath, []byte("workflow EDITED {\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = runCommand(t, "classes", "lint", "alignment", "-d", dir)
	if err == nil {
		t.Fatalf("lint should fail after drift:\n%s", out)
	}
	if !strings.Contains(out, "main.nf") {
		t.Errorf("report should name the drifted file:\n%s", out)
	}
}

func TestPatchCommand(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	if _, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol"); err != nil {
		t.Fatalf("expand-class: %v", err)
	}

	// no local edits yet
	if _, err := runCommand(t, "classes", "patch", "alignment", "-d", dir, "--no-prompts"); err == nil {
		t.Fatal("expected no-patch-needed error")
	}

	mainPath := filepath.Join(dir, "subworkflows/mirpedrol/alignment/main.nf")
	data, err := os.ReadFile(mainPath)
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(data), "    main:\n", "    main:\n    // local tweak\n", 1)
	if err := os.WriteFile(mainPath, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "classes", "patch", "alignment", "-d", dir, "--no-prompts")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !strings.Contains(out, "+    // local tweak") {
		t.Errorf("diff should record the edit:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "subworkflows/mirpedrol/alignment/alignment.diff")); err != nil {
		t.Fatalf("diff file missing: %v", err)
	}

	// with the patch recorded, lint is clean again
	if out, err := runCommand(t, "classes", "lint", "alignment", "-d", dir); err != nil {
		t.Fatalf("lint with recorded patch should pass: %v\n%s", err, out)
	}

	// re-expansion carries the recorded edit forward
	if _, err := runCommand(t, "subworkflows", "expand-class", "alignment",
		"-d", dir, "-a", "mirpedrol", "-f"); err != nil {
		t.Fatalf("re-expand: %v", err)
	}
	data, err = os.ReadFile(mainPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "// local tweak") {
		t.Error("re-expansion dropped the recorded edit")
	}
}

func TestCreateFromClassCommand(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	dir := testCheckout(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/package/bioconda/mafft") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"name":"mafft","latest_version":"7.525","summary":"Multiple sequence alignment","doc_url":"https://mafft.cbrc.jp","license":"BSD"}`))
	}))
	defer srv.Close()
	old := registry.AnacondaAPIBase
	registry.AnacondaAPIBase = srv.URL
	defer func() { registry.AnacondaAPIBase = old }()

	_, err := runCommand(t, "modules", "create-from-class", "alignment",
		"-d", dir, "-a", "mirpedrol", "-t", "mafft/align", "-f")
	if err != nil {
		t.Fatalf("create-from-class: %v", err)
	}

	mainNF, err := os.ReadFile(filepath.Join(dir, "modules/mirpedrol/mafft/align/main.nf"))
	if err != nil {
		t.Fatalf("generated main.nf missing: %v", err)
	}
	for _, want := range []string{"process MAFFT_ALIGN {", "mafft:7.525"} {
		if !strings.Contains(string(mainNF), want) {
			t.Errorf("main.nf missing %q", want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "modules/mirpedrol/mafft/align/environment.yml")); err != nil {
		t.Errorf("environment.yml missing: %v", err)
	}
}

func TestResolveModuleName(t *testing.T) {
	if _, err := resolveModuleName("a/b/c"); err == nil {
		t.Error("expected error for deeply nested module name")
	}
	name, err := resolveModuleName("  Clustalo/Align ")
	if err != nil {
		t.Fatalf("resolveModuleName: %v", err)
	}
	if name != "clustalo/align" {
		t.Errorf("name = %q", name)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("NFCLASS_NO_VERSION_CHECK", "1")
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("output = %q", out)
	}
}
