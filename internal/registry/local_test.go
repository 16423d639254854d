package registry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRepoDir(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "..", "testdata"))
	if err != nil {
		t.Fatalf("testdata dir: %v", err)
	}
	return abs
}

func TestLocal_ListClasses(t *testing.T) {
	l := NewLocal(testRepoDir(t), "mirpedrol", testLogger())

	classes, err := l.ListClasses(context.Background())
	if err != nil {
		t.Fatalf("ListClasses: %v", err)
	}
	if !reflect.DeepEqual(classes, []string{"alignment"}) {
		t.Errorf("classes = %v", classes)
	}
}

func TestLocal_Class(t *testing.T) {
	l := NewLocal(testRepoDir(t), "mirpedrol", testLogger())

	cls, err := l.Class(context.Background(), "alignment")
	if err != nil {
		t.Fatalf("Class: %v", err)
	}
	if cls.Name != "alignment" {
		t.Errorf("Name = %q", cls.Name)
	}

	_, err = l.Class(context.Background(), "nosuchclass")
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("missing class error = %v, want ErrClassNotFound", err)
	}
}

func TestLocal_ListModules(t *testing.T) {
	l := NewLocal(testRepoDir(t), "mirpedrol", testLogger())

	modules, err := l.ListModules(context.Background())
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	want := []string{"clustalo/align", "famsa/align", "seqkit/stats"}
	if !reflect.DeepEqual(modules, want) {
		t.Errorf("modules = %v, want %v", modules, want)
	}
}

func TestLocal_ModuleMeta(t *testing.T) {
	l := NewLocal(testRepoDir(t), "mirpedrol", testLogger())

	meta, err := l.ModuleMeta(context.Background(), "famsa/align")
	if err != nil {
		t.Fatalf("ModuleMeta: %v", err)
	}
	if meta.Name != "famsa_align" {
		t.Errorf("Name = %q", meta.Name)
	}

	_, err = l.ModuleMeta(context.Background(), "nosuch/module")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("missing module error = %v, want ErrModuleNotFound", err)
	}
}

func TestLocal_Discover(t *testing.T) {
	l := NewLocal(testRepoDir(t), "mirpedrol", testLogger())
	ctx := context.Background()

	cls, err := l.Class(ctx, "alignment")
	if err != nil {
		t.Fatalf("Class: %v", err)
	}

	matched, err := l.Discover(ctx, cls)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"clustalo/align", "famsa/align"}
	if !reflect.DeepEqual(matched, want) {
		t.Errorf("matched = %v, want %v", matched, want)
	}
}
