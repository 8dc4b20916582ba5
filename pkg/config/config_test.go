package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainbreak/chainview/pkg/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainview.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("Server.Addr = %v", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %v", cfg.Cache.Backend)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of a missing explicit path should fail")
	}
}

func TestLoadOverridesLayered(t *testing.T) {
	path := writeConfig(t, `
[layout]
link_distance = 90.0

[services]
detection_url = "http://detector:5000"

[server]
addr = ":9999"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Services.Detection != "http://detector:5000" {
		t.Errorf("Detection = %v", cfg.Services.Detection)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %v", cfg.Server.Addr)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %v", cfg.Cache.Backend)
	}

	lc := cfg.LayoutConfig()
	if lc.LinkDistance != 90 {
		t.Errorf("LinkDistance = %v, want 90", lc.LinkDistance)
	}
	// Untouched tuning keeps the engine default.
	if lc.ChargeStrength != layout.DefaultConfig().ChargeStrength {
		t.Errorf("ChargeStrength = %v", lc.ChargeStrength)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := writeConfig(t, `[layout`)
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed TOML should fail")
	}
}

func TestOpenCacheDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	// The built-in config names the file backend with no directory; the
	// default cache location must resolve without any config file present.
	c, err := Default().OpenCache(context.Background())
	if err != nil || c == nil {
		t.Fatalf("OpenCache() with default config = %v, %v", c, err)
	}
	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Errorf("Set() on default cache error = %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "none"
	if c, err := cfg.OpenCache(context.Background()); err != nil || c == nil {
		t.Errorf("OpenCache(none) = %v, %v", c, err)
	}

	cfg.Cache.Backend = "file"
	cfg.Cache.Dir = t.TempDir()
	if c, err := cfg.OpenCache(context.Background()); err != nil || c == nil {
		t.Errorf("OpenCache(file) = %v, %v", c, err)
	}

	cfg.Cache.Backend = "carrier-pigeon"
	if _, err := cfg.OpenCache(context.Background()); err == nil {
		t.Error("OpenCache(unknown) should fail")
	}
}
