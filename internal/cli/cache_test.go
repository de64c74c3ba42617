package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridstitch/gridstitch/pkg/cache"
	"github.com/gridstitch/gridstitch/pkg/config"
)

func TestCacheClearRemovesEntries(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, ".gridstitch", "cache")

	c, err := cache.NewFileCache(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(context.Background(), "offset:abc", []byte("{}"), 0); err != nil {
		t.Fatal(err)
	}
	c.Close()

	cmd := newCacheCmd()
	cmd.SetArgs([]string{"clear", "--path", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	remaining := 0
	_ = filepath.Walk(cacheDir, func(p string, info os.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			remaining++
		}
		return nil
	})
	if remaining != 0 {
		t.Errorf("%d cache files left after clear", remaining)
	}
}

func TestCacheClearEmptyIsFine(t *testing.T) {
	cmd := newCacheCmd()
	cmd.SetArgs([]string{"clear", "--path", t.TempDir()})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear on empty dataset: %v", err)
	}
}

func TestNewCommandCacheDisabled(t *testing.T) {
	c, keyer, err := newCommandCache(context.Background(), config.Default(), t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("disabled cache type = %T, want *cache.NullCache", c)
	}
	if keyer == nil {
		t.Error("keyer should not be nil")
	}
}
