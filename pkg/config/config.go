// Package config loads application configuration from a TOML file.
//
// Every field has a sensible default; a missing file is not an error, so
// the CLI works out of the box and a config file only overrides what it
// names. Flags override the file, the file overrides defaults.
package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chainbreak/chainview/pkg/cache"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/layout"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "chainview.toml"

// Config is the full application configuration.
type Config struct {
	Layout   Layout   `toml:"layout"`
	Services Services `toml:"services"`
	Cache    CacheCfg `toml:"cache"`
	Server   Server   `toml:"server"`
	Export   Export   `toml:"export"`
}

// Layout tunes the force simulation. Zero fields keep the engine default.
type Layout struct {
	LinkDistance   float64 `toml:"link_distance"`
	ChargeStrength float64 `toml:"charge_strength"`
	CenterStrength float64 `toml:"center_strength"`
	VelocityDecay  float64 `toml:"velocity_decay"`
}

// Services holds the base URLs of the backend collaborators.
type Services struct {
	Detection   string `toml:"detection_url"`
	ThreatIntel string `toml:"threat_intel_url"`
}

// CacheCfg selects and configures the detection-result cache backend.
type CacheCfg struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Server configures the HTTP frontend.
type Server struct {
	Addr string `toml:"addr"`
}

// Export configures artifact generation.
type Export struct {
	Prefix string `toml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Services: Services{
			Detection:   "http://localhost:5000",
			ThreatIntel: "http://localhost:5000",
		},
		Cache:  CacheCfg{Backend: "file", Dir: ""},
		Server: Server{Addr: ":8090"},
		Export: Export{Prefix: "chainview"},
	}
}

// Load reads the configuration at path, layered over Default. An absent
// file at the default path is fine; an absent file at an explicit path or
// a malformed file is an INVALID_INPUT error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return cfg, nil
}

// LayoutConfig merges the file's layout overrides into the engine default.
func (c Config) LayoutConfig() layout.Config {
	lc := layout.DefaultConfig()
	if c.Layout.LinkDistance > 0 {
		lc.LinkDistance = c.Layout.LinkDistance
	}
	if c.Layout.ChargeStrength != 0 {
		lc.ChargeStrength = c.Layout.ChargeStrength
	}
	if c.Layout.CenterStrength > 0 {
		lc.CenterStrength = c.Layout.CenterStrength
	}
	if c.Layout.VelocityDecay > 0 {
		lc.VelocityDecay = c.Layout.VelocityDecay
	}
	return lc
}

// OpenCache builds the configured cache backend. Unknown backends are an
// INVALID_INPUT error rather than a silent fallback; an unresolvable or
// unwritable cache directory degrades to the null cache so commands keep
// working without caching.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "", "none":
		return cache.NewNullCache(), nil
	case "file":
		dir := c.Cache.Dir
		if dir == "" {
			resolved, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = resolved
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return fc, nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
}

// cacheDir returns the default cache directory using the XDG standard
// (~/.cache/chainview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "chainview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "chainview"), nil
}
