package driver

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TestLinkSkipsWhenObjectsUnchanged exercises the build-id short-circuit:
// a second Link over the same object contents must not invoke the linker
// again.
func TestLinkSkipsWhenObjectsUnchanged(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.o")
	if err := os.WriteFile(obj, []byte("object bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "a.out")

	calls := 0
	old := linkCmd
	linkCmd = func(name string, arg ...string) *exec.Cmd {
		calls++
		os.WriteFile(out, nil, 0o644)
		return exec.Command("true")
	}
	defer func() { linkCmd = old }()

	if err := Link([]string{obj}, out); err != nil {
		t.Fatalf("first Link: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the linker to run once on a fresh output, got %d calls", calls)
	}

	if err := Link([]string{obj}, out); err != nil {
		t.Fatalf("second Link: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the unchanged-object Link to skip the linker, got %d calls", calls)
	}

	if err := os.WriteFile(obj, []byte("object bytes, changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Link([]string{obj}, out); err != nil {
		t.Fatalf("third Link: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a changed object to trigger a relink, got %d calls", calls)
	}
}
