package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(base, "composeviz"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", "composeviz"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	if want := filepath.Join(base, "composeviz"); dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}
}

func TestCacheLocation(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	c := &CLI{}
	if got, want := c.cacheLocation(), filepath.Join(base, "composeviz"); got != want {
		t.Errorf("cacheLocation() = %q, want %q", got, want)
	}

	c.Config.Cache.RedisAddr = "localhost:6379"
	if got := c.cacheLocation(); got != "redis://localhost:6379" {
		t.Errorf("cacheLocation() = %q, want redis://localhost:6379", got)
	}
}
