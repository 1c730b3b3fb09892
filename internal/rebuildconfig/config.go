// Package rebuildconfig loads the rebuild engine's configuration file
// (output path, public path, HMR port, entry mapping) using viper, mirroring
// the load-with-defaults pattern the rest of the example pack uses for its
// own viper-backed config layers.
package rebuildconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully-resolved configuration driving one run of the
// rebuild engine.
type Config struct {
	// Output is the directory the full build and hot-update chunks are
	// written to.
	Output string `mapstructure:"output"`

	// PublicPath is the request-path prefix the dev server serves built
	// assets under, with no leading or trailing slash.
	PublicPath string `mapstructure:"public_path"`

	// HMRPort is the TCP port the dev server's HTTP+WebSocket listener
	// binds to on 127.0.0.1.
	HMRPort uint16 `mapstructure:"hmr_port"`

	// Entry maps an entry-point name to its source path.
	Entry map[string]string `mapstructure:"entry"`

	Analyze AnalyzeConfig `mapstructure:"analyze"`
}

// AnalyzeConfig configures the (external) bundle-analysis collaborator;
// the rebuild engine only needs to know whether it's enabled under watch.
type AnalyzeConfig struct {
	Watch bool `mapstructure:"watch"`
}

func defaults() *Config {
	return &Config{
		Output:     "dist",
		PublicPath: "/",
		HMRPort:    8080,
		Entry:      map[string]string{},
	}
}

// Load reads configPath (any format viper supports — YAML, JSON, TOML)
// into a Config seeded with defaults, then trims public_path's leading and
// trailing slashes and makes sure Entry is non-nil. Only the file is read;
// environment variables are not consulted.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	cfg := defaults()

	if configPath == "" {
		normalize(cfg)
		return cfg, nil
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("rebuildconfig: failed to read %s: %w", configPath, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("rebuildconfig: failed to unmarshal %s: %w", configPath, err)
	}

	normalize(cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.PublicPath = strings.Trim(cfg.PublicPath, "/")
	if cfg.Entry == nil {
		cfg.Entry = map[string]string{}
	}
}

// ParseHMRPort parses a port given as a raw decimal string, returning an
// error for anything that is not a valid uint16.
func ParseHMRPort(raw string) (uint16, error) {
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("rebuildconfig: invalid hmr_port %q: %w", raw, err)
	}
	return uint16(n), nil
}
