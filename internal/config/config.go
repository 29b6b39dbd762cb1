// Package config provides configuration management for go-disc-burn.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Commands accepted as the first positional argument.
const (
	CommandBuild   = "build"
	CommandBurn    = "burn"
	CommandDVD     = "dvd"
	CommandInspect = "inspect"
)

// Config holds all configuration options for a session.
//
// Everything tagged for yaml can be stored in a session file; the command,
// target and one-shot modes are per-invocation only.
type Config struct {
	// Invocation
	Command string `yaml:"-"`
	Target  string `yaml:"-"`

	// Tools
	MkisofsPath  string `yaml:"mkisofs_path"`
	CdrecordPath string `yaml:"cdrecord_path"`
	IsoinfoPath  string `yaml:"isoinfo_path"`

	// Disc
	Label      string `yaml:"label"` // empty = source folder name
	Device     string `yaml:"device"`
	Media      string `yaml:"media"` // cd, dvd, dvd-dl, bd
	Speed      int    `yaml:"speed"` // 0 = drive default
	WriteMode  string `yaml:"write_mode"`
	Simulation bool   `yaml:"simulation"`
	Eject      bool   `yaml:"eject"`

	// Image cache
	CacheDir  string `yaml:"cache_dir"`
	ImageName string `yaml:"image_name"`

	// Observability
	MetricsAddr     string `yaml:"metrics_addr"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	Verbose         bool   `yaml:"verbose"`
	LogFormat       string `yaml:"log_format"` // json, text
	TUIEnabled      bool   `yaml:"tui"`

	// Diagnostic modes
	PrintCmd      bool `yaml:"-"`
	SkipPreflight bool `yaml:"skip_preflight"`

	// Session file
	ConfigFile string `yaml:"-"`
	SaveConfig string `yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Tools
		MkisofsPath:  "mkisofs",
		CdrecordPath: "cdrecord",
		IsoinfoPath:  "isoinfo",

		// Disc
		Device:    "/dev/sr0",
		Media:     "dvd",
		WriteMode: "-sao",
		Eject:     true,

		// Image cache
		CacheDir:  filepath.Join(os.TempDir(), "go-disc-burn"),
		ImageName: "disc_burn_cache.iso",

		// Observability
		MetricsAddr: "127.0.0.1:17092",
		LogFormat:   "json",
		TUIEnabled:  false,
	}
}

// ImagePath returns where images are built and read from by default.
func (c *Config) ImagePath() string {
	return filepath.Join(c.CacheDir, c.ImageName)
}

// SpeedToken returns the recorder speed argument, or "" for the drive default.
func (c *Config) SpeedToken() string {
	if c.Speed <= 0 {
		return ""
	}
	return "speed=" + strconv.Itoa(c.Speed)
}

// NeedsTools returns the tool names the command runs, in run order.
func (c *Config) NeedsTools() []string {
	switch c.Command {
	case CommandBuild:
		return []string{"mkisofs"}
	case CommandBurn:
		return []string{"cdrecord"}
	case CommandDVD:
		return []string{"mkisofs", "cdrecord"}
	case CommandInspect:
		return []string{"isoinfo"}
	default:
		return nil
	}
}

// ToolPath returns the configured binary for a tool name.
func (c *Config) ToolPath(name string) string {
	switch name {
	case "mkisofs":
		return c.MkisofsPath
	case "cdrecord":
		return c.CdrecordPath
	case "isoinfo":
		return c.IsoinfoPath
	default:
		return name
	}
}
