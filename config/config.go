// Package config loads ember's runtime configuration from a TOML file,
// falling back to documented defaults when no file is present.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable ember reads at startup. Field names mirror
// the dotted keys of the properties file, translated into TOML's nested
// table form (buffer.pool.size -> [buffer.pool] size = ...).
type Config struct {
	Buffer BufferConfig `toml:"buffer"`
	Max    MaxConfig    `toml:"max"`
	Log    LogConfig    `toml:"log"`
	Data   DataConfig   `toml:"data"`
	Page   PageConfig   `toml:"page"`
	Enable EnableConfig `toml:"enable"`
	Wal    WalConfig    `toml:"wal"`
	Auto   AutoConfig   `toml:"auto"`
}

type BufferConfig struct {
	Pool PoolConfig `toml:"pool"`
}

type PoolConfig struct {
	Size int `toml:"size"`
}

type MaxConfig struct {
	Connections int `toml:"connections"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DataConfig struct {
	Directory string `toml:"directory"`
}

type PageConfig struct {
	Size int `toml:"size"`
}

// EnableConfig holds reserved, not-yet-implemented toggles. enable.wal is
// read and stored but has no effect on the engine today.
type EnableConfig struct {
	Wal bool `toml:"wal"`
}

type WalConfig struct {
	Sync SyncConfig `toml:"sync"`
}

type SyncConfig struct {
	Interval int `toml:"interval"`
}

type AutoConfig struct {
	Create CreateConfig `toml:"create"`
}

type CreateConfig struct {
	Indexes bool `toml:"indexes"`
}

// Default returns the configuration spec.md §6 documents when no
// properties file is supplied.
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{Pool: PoolConfig{Size: 1000}},
		Max:    MaxConfig{Connections: 100},
		Log:    LogConfig{Level: "INFO"},
		Data:   DataConfig{Directory: "./data"},
		Page:   PageConfig{Size: 4096},
		Enable: EnableConfig{Wal: true},
		Wal:    WalConfig{Sync: SyncConfig{Interval: 1000}},
		Auto:   AutoConfig{Create: CreateConfig{Indexes: true}},
	}
}

// Load reads path as TOML and overlays it onto Default(). A missing file
// is not an error: Load returns the defaults unchanged. Values present in
// the file always win over defaults; absent tables/keys keep theirs
// because decoding happens directly into the pre-populated default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// BufferPoolSize is the max number of resident pages.
func (c *Config) BufferPoolSize() int { return c.Buffer.Pool.Size }

// MaxConnections is an advisory cap, not enforced by the core engine.
func (c *Config) MaxConnections() int { return c.Max.Connections }

// LogLevel is the diagnostic level name (DEBUG, INFO, WARN, ERROR).
func (c *Config) LogLevel() string { return c.Log.Level }

// DataDirectory is the root directory for database and audit files.
func (c *Config) DataDirectory() string { return c.Data.Directory }

// PageSize is the on-disk page size in bytes.
func (c *Config) PageSize() int { return c.Page.Size }
