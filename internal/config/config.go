// Package config holds the t32rem configuration.
//
// Values are layered: built-in defaults, then the TOML file, then T32REM_*
// environment variables. Command line flags are applied by the caller on
// the resulting Config.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/t32remote/internal/config/loader"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "T32REM_"

// ErrInvalidConfiguration is returned by Validate.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config is the complete configuration.
type Config struct {
	Remote   RemoteConfig   `toml:"remote"`
	Transfer TransferConfig `toml:"transfer"`
	Lock     LockConfig     `toml:"lock"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Watch    WatchConfig    `toml:"watch"`
}

// RemoteConfig describes how to reach TRACE32.
type RemoteConfig struct {
	Node         string `toml:"node"`
	Port         int    `toml:"port"`
	PackLen      int    `toml:"packlen"`
	Timeout      int    `toml:"timeout"`
	HostPort     int    `toml:"hostport"`
	Device       string `toml:"device"`
	Charset      string `toml:"charset"`
	StrictStatus bool   `toml:"strict_status"`

	// ConnectAttempts is the number of Init/Attach attempts before giving up.
	ConnectAttempts int `toml:"connect_attempts"`
}

// TransferConfig tunes chunked reads.
type TransferConfig struct {
	ChunkSize int `toml:"chunk_size"`
	MaxRounds int `toml:"max_rounds"`
}

// LockConfig tunes the advisory API lock.
type LockConfig struct {
	WaitMs int `toml:"wait_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Output     string `toml:"output"`
	FilePath   string `toml:"file_path"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// WatchConfig configures the script watcher.
type WatchConfig struct {
	DebounceMs int      `toml:"debounce_ms"`
	Extensions []string `toml:"extensions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			Node:            "localhost",
			Port:            20000,
			PackLen:         1024,
			Device:          "icd",
			Charset:         "gbk",
			ConnectAttempts: 3,
		},
		Transfer: TransferConfig{ChunkSize: 1024},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
			Extensions: []string{".cmm", ".lua"},
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (optional) and
// the environment.
func Load(path string) (*Config, error) {
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvPrefix))
}

// LoadFrom builds a Config from defaults overlaid by each source in order.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding merged config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return loader.Parse("<defaults>", data)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	if c.Remote.Node == "" {
		problems = append(problems, "remote.node is empty")
	}
	if c.Remote.Port <= 0 || c.Remote.Port > 65535 {
		problems = append(problems, fmt.Sprintf("remote.port %d out of range", c.Remote.Port))
	}
	if c.Remote.PackLen < 0 || c.Remote.PackLen > 1024 {
		problems = append(problems, fmt.Sprintf("remote.packlen %d exceeds 1024", c.Remote.PackLen))
	}
	if c.Transfer.ChunkSize < 0 {
		problems = append(problems, "transfer.chunk_size is negative")
	}
	if c.Transfer.MaxRounds < 0 {
		problems = append(problems, "transfer.max_rounds is negative")
	}
	if c.Lock.WaitMs < 0 {
		problems = append(problems, "lock.wait_ms is negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
