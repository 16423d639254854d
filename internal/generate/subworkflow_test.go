package generate

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/nfclass/pkg/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadClass(t *testing.T, name string) *schema.Class {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata/classes", name+".yml"))
	if err != nil {
		t.Fatalf("read class fixture: %v", err)
	}
	cls, err := schema.ParseClass(data)
	if err != nil {
		t.Fatalf("parse class fixture: %v", err)
	}
	return cls
}

func loadMeta(t *testing.T, module string) *schema.ModuleMeta {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata/modules/mirpedrol", module, "meta.yml"))
	if err != nil {
		t.Fatalf("read meta fixture: %v", err)
	}
	meta, err := schema.ParseModuleMeta(data)
	if err != nil {
		t.Fatalf("parse meta fixture: %v", err)
	}
	return meta
}

func loadModuleTest(t *testing.T, module string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata/modules/mirpedrol", module, "tests/main.nf.test"))
	if err != nil {
		t.Fatalf("read test fixture: %v", err)
	}
	return data
}

var testOpts = Options{Author: "@mirpedrol", Org: "mirpedrol"}

func TestSubworkflow_Alignment(t *testing.T) {
	cls := loadClass(t, "alignment")
	modules := []string{"clustalo/align", "famsa/align"}
	metas := map[string]*schema.ModuleMeta{
		"clustalo/align": loadMeta(t, "clustalo/align"),
		"famsa/align":    loadMeta(t, "famsa/align"),
	}

	swf, err := NewBuilder(testLogger()).Subworkflow(cls, modules, metas, nil, testOpts)
	if err != nil {
		t.Fatalf("Subworkflow: %v", err)
	}

	mainNF := swf.Files["main.nf"]
	for _, want := range []string{
		"include { CLUSTALO_ALIGN } from '../../../modules/mirpedrol/clustalo/align/main'",
		"include { FAMSA_ALIGN } from '../../../modules/mirpedrol/famsa/align/main'",
		"workflow ALIGNMENT {",
		"    take:\n    ch_fasta",
		"def ch_out_alignment = Channel.empty()",
		"            meta, fasta, tool ->",
		`                clustalo_align: tool == "clustalo_align"`,
		"        .set { ch_fasta_branch }",
		"    CLUSTALO_ALIGN( ch_fasta_branch.clustalo_align, [[], []], [] )",
		"    FAMSA_ALIGN( ch_fasta_branch.famsa_align )",
		"    ch_out_alignment = ch_out_alignment.mix(CLUSTALO_ALIGN.out.alignment)",
		"    ch_out_alignment = ch_out_alignment.mix(FAMSA_ALIGN.out.alignment)",
		"    emit:\n    alignment = ch_out_alignment",
	} {
		if !strings.Contains(mainNF, want) {
			t.Errorf("main.nf missing %q\n%s", want, mainNF)
		}
	}

	if got := swf.CallArgs["clustalo/align"]; len(got) != 3 || got[1] != "[[], []]" || got[2] != "[]" {
		t.Errorf("clustalo call args = %v", got)
	}
	if got := swf.OutputNames["famsa/align"]["alignment"]; got != "alignment" {
		t.Errorf("famsa output name = %q", got)
	}
}

func TestSubworkflow_MetaYML(t *testing.T) {
	cls := loadClass(t, "alignment")
	metas := map[string]*schema.ModuleMeta{
		"clustalo/align": loadMeta(t, "clustalo/align"),
		"famsa/align":    loadMeta(t, "famsa/align"),
	}

	swf, err := NewBuilder(testLogger()).Subworkflow(cls, []string{"clustalo/align", "famsa/align"}, metas, nil, testOpts)
	if err != nil {
		t.Fatalf("Subworkflow: %v", err)
	}

	metaYML := swf.Files["meta.yml"]
	for _, want := range []string{
		`name: "alignment"`,
		"components:\n    - clustalo/align\n    - famsa/align",
		"ch_fasta:",
		"description: The name of the tool to run",
		`authors:\n    - "@mirpedrol"`,
	} {
		want = strings.ReplaceAll(want, `\n`, "\n")
		if !strings.Contains(metaYML, want) {
			t.Errorf("meta.yml missing %q\n%s", want, metaYML)
		}
	}
}

func TestSubworkflow_TestFile(t *testing.T) {
	cls := loadClass(t, "alignment")
	metas := map[string]*schema.ModuleMeta{
		"clustalo/align": loadMeta(t, "clustalo/align"),
		"famsa/align":    loadMeta(t, "famsa/align"),
	}

	swf, err := NewBuilder(testLogger()).Subworkflow(cls, []string{"clustalo/align", "famsa/align"}, metas, nil, testOpts)
	if err != nil {
		t.Fatalf("Subworkflow: %v", err)
	}

	testNF := swf.Files["tests/main.nf.test"]
	for _, want := range []string{
		`name "Test Subworkflow ALIGNMENT"`,
		`workflow "ALIGNMENT"`,
		`tag "subworkflows_mirpedrol"`,
		`tag "subworkflows/alignment"`,
		`tag "subworkflows/../../modules/mirpedrol/clustalo/align"`,
		`test("clustalo/align")`,
		"input[0] = Channel.of( [ [ id:'test' ], file(params.modules_testdata_base_path + 'genomics/sarscov2/genome/informative_sites.fas', checkIfExists: true), 'clustalo_align' ] )",
		`{ assert snapshot(workflow.out).match("famsa/align") },`,
	} {
		if !strings.Contains(testNF, want) {
			t.Errorf("tests/main.nf.test missing %q\n%s", want, testNF)
		}
	}
}

func TestSubworkflow_NoModules(t *testing.T) {
	cls := loadClass(t, "alignment")
	if _, err := NewBuilder(testLogger()).Subworkflow(cls, nil, nil, nil, testOpts); err == nil {
		t.Fatal("expected error for empty module list")
	}
}

func TestChannelNames(t *testing.T) {
	cls := loadClass(t, "alignment")
	names, err := channelNames(cls.Inputs)
	if err != nil {
		t.Fatalf("channelNames: %v", err)
	}
	if len(names) != 1 || names[0] != "ch_fasta" {
		t.Fatalf("channelNames = %v, want [ch_fasta]", names)
	}
}
