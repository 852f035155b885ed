// Package config loads flowlens.toml.
//
// A config file names the column roles once so commands don't need a flag
// per column, and sets view, cache and server defaults:
//
//	[columns]
//	origin = "from"
//	destination = "to"
//	weight = "trips"
//
//	[views]
//	flow_top_n = 30
//	color_by = "region"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[server]
//	addr = ":8080"
//	watch = true
//
// Command-line flags override file values.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/project"
	"github.com/matzehuels/flowlens/pkg/state"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "flowlens.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults for the server section.
const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultDebounce = 500 * time.Millisecond
)

// Config is the decoded config file.
type Config struct {
	Columns flow.Mapping `toml:"columns"`
	Views   Views        `toml:"views"`
	Cache   Cache        `toml:"cache"`
	Server  Server       `toml:"server"`
}

// Views holds view defaults.
type Views struct {
	FlowTopN  int    `toml:"flow_top_n"`
	ForceTopN int    `toml:"force_top_n"`
	CostMode  bool   `toml:"cost_mode"`
	ColorBy   string `toml:"color_by"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Server configures `flowlens serve`.
type Server struct {
	Addr     string   `toml:"addr"`
	Watch    bool     `toml:"watch"`
	Debounce Duration `toml:"debounce"`
}

// Duration decodes TOML strings such as "500ms" or "12h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Views: Views{
			FlowTopN:  project.DefaultFlowTopN,
			ForceTopN: project.DefaultForceTopN,
		},
		Cache:  Cache{Backend: BackendFile},
		Server: Server{Addr: DefaultAddr, Debounce: Duration{DefaultDebounce}},
	}
}

// Load decodes the file at path over [Default]. An empty path reads
// [DefaultPath] if it exists and otherwise returns the defaults. Unknown
// keys and invalid values are INVALID_CONFIG errors.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		if stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Decode decodes TOML data into cfg and validates the result. Keys not
// present in data keep their value in cfg.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Columns.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[columns]")
	}
	for name, n := range map[string]int{"flow_top_n": c.Views.FlowTopN, "force_top_n": c.Views.ForceTopN} {
		if err := errors.ValidateTopN(n); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[views] %s", name)
		}
	}
	if err := errors.ValidateColumnName(c.Views.ColorBy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[views] color_by")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone, "":
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"[cache] unknown backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 || c.Server.Debounce.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "durations must not be negative")
	}

	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[server] addr %q", c.Server.Addr)
		}
	}
	return nil
}

// ViewParams returns the configured initial parameters of view.
func (c Config) ViewParams(view state.ViewID) state.Params {
	p := state.DefaultParams(view)
	switch view.Kind() {
	case state.KindFlow:
		if c.Views.FlowTopN > 0 {
			p.TopN = c.Views.FlowTopN
		}
	case state.KindForce:
		if c.Views.ForceTopN > 0 {
			p.TopN = c.Views.ForceTopN
		}
	case state.KindMap:
		p.CostMode = c.Views.CostMode
		p.ColorBy = c.Views.ColorBy
	}
	return p
}

// StateOptions returns the options that seed a [state.State] with the
// configured mapping and view parameters.
func (c Config) StateOptions() []state.Option {
	opts := []state.Option{state.WithMapping(c.Columns)}
	for _, v := range state.Views {
		opts = append(opts, state.WithParams(v, c.ViewParams(v)))
	}
	return opts
}

// String renders c as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("# encode config: %v\n", err)
	}
	return b.String()
}
