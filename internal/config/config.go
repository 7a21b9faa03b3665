// Package config handles configuration loading for the framerebin tools.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dune-vd/framerebin/internal/frame"
	"github.com/dune-vd/framerebin/internal/geometry"
)

// Config is the full configuration consumed by the rebinner CLI and the
// frame preview server.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Rebin    RebinConfig    `yaml:"rebin"`
	Geometry GeometryConfig `yaml:"geometry"`
	Frames   FramesConfig   `yaml:"frames"`
	RunLog   RunLogConfig   `yaml:"runlog"`
	Server   ServerConfig   `yaml:"server"`
}

// InputConfig locates the raw frame store.
type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig locates the rebinned frame store.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// RebinConfig holds the block reduction factors.
type RebinConfig struct {
	ChannelFactor int `yaml:"channel_factor"`
	TickFactor    int `yaml:"tick_factor"`
	Workers       int `yaml:"workers"`
}

// GeometryConfig declares the static channel layout.
type GeometryConfig struct {
	CRPs           int              `yaml:"crps"`
	ChannelsPerCRP int              `yaml:"channels_per_crp"`
	CRU0           []geometry.Range `yaml:"cru0"`
	CRU1           []geometry.Range `yaml:"cru1"`
}

// FramesConfig declares the dataset classification rules.
type FramesConfig struct {
	Marker     string            `yaml:"marker"`
	Prefix     string            `yaml:"prefix"`
	Continuous []string          `yaml:"continuous"`
	Labels     map[string]string `yaml:"labels"`
	Ignore     []string          `yaml:"ignore"`
}

// RunLogConfig locates the SQLite run log. An empty path disables it.
type RunLogConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	CacheSizeMB     int      `yaml:"cache_size_mb"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes"`
	RenderScale     int      `yaml:"render_scale"`
}

// Load reads configuration from a YAML file. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the default configuration: ProtoDUNE-VD channel
// layout, the labelling pipeline's frame names and 2x2 rebinning.
func DefaultConfig() *Config {
	layout := geometry.DefaultLayout()
	rules := frame.DefaultRules()
	return &Config{
		Input:  InputConfig{Path: "./data/g4-frames.zarr"},
		Output: OutputConfig{Path: "./data/g4-rebinned.zarr"},
		Rebin: RebinConfig{
			ChannelFactor: 2,
			TickFactor:    2,
			Workers:       4,
		},
		Geometry: GeometryConfig{
			CRPs:           layout.CRPs,
			ChannelsPerCRP: layout.ChannelsPerCRP,
			CRU0:           layout.CRU0,
			CRU1:           layout.CRU1,
		},
		Frames: FramesConfig{
			Marker:     rules.Marker,
			Prefix:     rules.Prefix,
			Continuous: rules.Continuous,
			Labels:     rules.Labels,
		},
		RunLog: RunLogConfig{Path: "./data/runlog.sqlite"},
		Server: ServerConfig{
			Port:            8080,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			CacheSizeMB:     256,
			CacheTTLMinutes: 10,
			RenderScale:     2,
		},
	}
}

// Layout builds the geometry layout from the configuration.
func (c *Config) Layout() geometry.Layout {
	return geometry.Layout{
		CRPs:           c.Geometry.CRPs,
		ChannelsPerCRP: c.Geometry.ChannelsPerCRP,
		CRU0:           c.Geometry.CRU0,
		CRU1:           c.Geometry.CRU1,
	}
}

// Rules builds the classifier rule set from the configuration.
func (c *Config) Rules() frame.Rules {
	return frame.Rules{
		Marker:     c.Frames.Marker,
		Prefix:     c.Frames.Prefix,
		Continuous: c.Frames.Continuous,
		Labels:     c.Frames.Labels,
		Ignore:     c.Frames.Ignore,
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Input.Path == "" {
		cfg.Input.Path = defaults.Input.Path
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = defaults.Output.Path
	}
	if cfg.Rebin.ChannelFactor == 0 {
		cfg.Rebin.ChannelFactor = defaults.Rebin.ChannelFactor
	}
	if cfg.Rebin.TickFactor == 0 {
		cfg.Rebin.TickFactor = defaults.Rebin.TickFactor
	}
	if cfg.Rebin.Workers == 0 {
		cfg.Rebin.Workers = defaults.Rebin.Workers
	}
	if cfg.Geometry.CRPs == 0 && cfg.Geometry.ChannelsPerCRP == 0 &&
		len(cfg.Geometry.CRU0) == 0 && len(cfg.Geometry.CRU1) == 0 {
		cfg.Geometry = defaults.Geometry
	}
	if cfg.Frames.Marker == "" && cfg.Frames.Prefix == "" &&
		len(cfg.Frames.Continuous) == 0 && len(cfg.Frames.Labels) == 0 {
		cfg.Frames = defaults.Frames
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.CacheSizeMB == 0 {
		cfg.Server.CacheSizeMB = defaults.Server.CacheSizeMB
	}
	if cfg.Server.CacheTTLMinutes == 0 {
		cfg.Server.CacheTTLMinutes = defaults.Server.CacheTTLMinutes
	}
	if cfg.Server.RenderScale == 0 {
		cfg.Server.RenderScale = defaults.Server.RenderScale
	}
}
