package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOrganizeMovesByChannel(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "s_Grid[@0 0].png"))
	writeFile(t, filepath.Join(src, "s_Grid[@0 1].png"))
	writeFile(t, filepath.Join(src, "s_Grid[@0 0]_Si.png"))
	writeFile(t, filepath.Join(src, "notes.txt"))

	cmd := newOrganizeCmd()
	cmd.SetArgs([]string{src, dst})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("organize: %v", err)
	}

	for _, want := range []string{
		filepath.Join(dst, "main", "s_Grid[@0 0].png"),
		filepath.Join(dst, "main", "s_Grid[@0 1].png"),
		filepath.Join(dst, "Si", "s_Grid[@0 0]_Si.png"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}

	// Moved files leave the source; unparsable files stay behind.
	if _, err := os.Stat(filepath.Join(src, "s_Grid[@0 0].png")); !os.IsNotExist(err) {
		t.Error("moved tile should no longer exist in source")
	}
	if _, err := os.Stat(filepath.Join(src, "notes.txt")); err != nil {
		t.Errorf("non-tile file should stay in place: %v", err)
	}
}

func TestOrganizeCopyKeepsSource(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "s_Grid[@1 2].png"))

	cmd := newOrganizeCmd()
	cmd.SetArgs([]string{"--copy", src, dst})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("organize --copy: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "main", "s_Grid[@1 2].png")); err != nil {
		t.Errorf("copy missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(src, "s_Grid[@1 2].png")); err != nil {
		t.Errorf("source should remain after copy: %v", err)
	}
}
