package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openzoom/squaregrid/pkg/cache"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(&bytes.Buffer{}, LogInfo)
	ctx := context.Background()

	nc, err := c.newCache(ctx, pipeline.Options{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := nc.(*cache.NullCache); !ok {
		t.Errorf("--no-cache should give a NullCache, got %T", nc)
	}

	fc, err := c.newCache(ctx, pipeline.Options{}, false)
	if err != nil {
		t.Fatal(err)
	}
	defer fc.Close()
	if f, ok := fc.(*cache.FileCache); !ok {
		t.Errorf("default should be a FileCache, got %T", fc)
	} else if !strings.HasSuffix(f.Dir(), appName) {
		t.Errorf("file cache dir = %q, want under %s", f.Dir(), appName)
	}

	if _, err := c.newCache(ctx, pipeline.Options{RedisURL: "not a url"}, false); err == nil {
		t.Error("bad redis URL should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	t.Chdir(t.TempDir())
	out := captureStdout(t)

	fc, err := cache.NewFileCache(filepath.Join(xdg, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "path"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path printed %q", got)
	}

	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "k"); ok {
		t.Error("entry should be gone after cache clear")
	}
}
