// Package config loads erkit settings from a TOML file.
//
// Every field has a default (see [Default]); a file only needs to name what
// it overrides:
//
//	[layout]
//	margin = 12
//
//	[sync]
//	aliases = ["er", "ns0"]
//
//	[server]
//	addr  = ":8080"
//	store = "redis"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/erkit/pkg/errors"
)

// FileName is the config file name looked up in the user config directory.
const FileName = "erkit.toml"

// Store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultMargin       = 10.0
	DefaultSlotWidth    = 60.0
	DefaultSpacing      = 8.0
	DefaultRulePriority = 1500
	DefaultMovePriority = 1000
	DefaultAddr         = ":8080"
	DefaultStoreDir     = "diagrams"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTTL     = "0s"
)

// DefaultAliases are the attribute namespaces written on export, in lookup
// order.
var DefaultAliases = []string{"er", "ns0"}

// =============================================================================
// Config
// =============================================================================

// Config is the complete erkit configuration.
type Config struct {
	Layout Layout `toml:"layout"`
	Sync   Sync   `toml:"sync"`
	Rules  Rules  `toml:"rules"`
	Server Server `toml:"server"`
}

// Layout configures child arrangement inside composite containers. Margin is
// also the inward margin of the geometric containment test.
type Layout struct {
	Margin    float64 `toml:"margin"`
	SlotWidth float64 `toml:"slot_width"`
	Spacing   float64 `toml:"spacing"`
}

// Sync configures attribute synchronization.
type Sync struct {
	Aliases []string `toml:"aliases"`
}

// Rules configures the priorities the ER core registers with the engine.
type Rules struct {
	Priority     int `toml:"priority"`
	MovePriority int `toml:"move_priority"`
}

// Server configures `erkit serve`.
type Server struct {
	Addr      string `toml:"addr"`
	Store     string `toml:"store"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisTTL  string `toml:"redis_ttl"`
}

// TTL returns the parsed RedisTTL. Validate guarantees it parses.
func (s Server) TTL() time.Duration {
	d, _ := time.ParseDuration(s.RedisTTL)
	return d
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{Margin: DefaultMargin, SlotWidth: DefaultSlotWidth, Spacing: DefaultSpacing},
		Sync:   Sync{Aliases: append([]string(nil), DefaultAliases...)},
		Rules:  Rules{Priority: DefaultRulePriority, MovePriority: DefaultMovePriority},
		Server: Server{
			Addr:      DefaultAddr,
			Store:     StoreFile,
			Dir:       DefaultStoreDir,
			RedisAddr: DefaultRedisAddr,
			RedisTTL:  DefaultRedisTTL,
		},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve loads path when it is set, otherwise the user config file when it
// exists, otherwise the defaults.
func Resolve(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if p, ok := UserPath(); ok {
		return Load(p)
	}
	return Default(), nil
}

// UserPath returns $XDG_CONFIG_HOME/erkit/erkit.toml (or the platform
// equivalent) and whether it exists.
func UserPath() (string, bool) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	p := filepath.Join(dir, "erkit", FileName)
	if _, err := os.Stat(p); err != nil {
		return p, false
	}
	return p, true
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Layout.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.margin must not be negative")
	}
	if c.Layout.SlotWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.slot_width must be positive")
	}
	if c.Layout.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.spacing must not be negative")
	}
	if len(c.Sync.Aliases) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "sync.aliases must not be empty")
	}
	seen := make(map[string]bool, len(c.Sync.Aliases))
	for _, a := range c.Sync.Aliases {
		if err := errors.ValidateAlias(a); err != nil {
			return err
		}
		if seen[a] {
			return errors.New(errors.ErrCodeInvalidConfig, "sync.aliases: duplicate alias %q", a)
		}
		seen[a] = true
	}
	switch c.Server.Store {
	case StoreFile, StoreRedis:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "server.store: %q (must be one of: file, redis)", c.Server.Store)
	}
	if _, err := time.ParseDuration(c.Server.RedisTTL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.redis_ttl")
	}
	return nil
}
