// Package config loads and saves the analyzer's TOML-backed settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the analyzer configuration.
type Config struct {
	// Decode settings
	Decode struct {
		DefaultEntry   string `toml:"default_entry"`
		MaxInstrs      int    `toml:"max_instructions"`
		StopAtUnhandled bool  `toml:"stop_at_unhandled_opcode"`
	} `toml:"decode"`

	// Inspector settings
	Inspector struct {
		HistorySize   int  `toml:"history_size"`
		ShowBlockState bool `toml:"show_block_state"`
		ShowMemory    bool `toml:"show_memory"`
	} `toml:"inspector"`

	// Display settings
	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		BytesPerLine  int    `toml:"bytes_per_line"`
		DisasmContext int    `toml:"disasm_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Trace settings
	Trace struct {
		OutputFile   string `toml:"output_file"`
		FilterRegs   string `toml:"filter_registers"` // comma-separated: "r3,r4,lr"
		IncludeMemory bool  `toml:"include_memory"`
		MaxEntries   int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, text
	} `toml:"statistics"`

	// Server settings
	Server struct {
		Port         int  `toml:"port"`
		AllowOrigins bool `toml:"allow_all_origins"`
	} `toml:"server"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Decode.DefaultEntry = "0x80003100"
	cfg.Decode.MaxInstrs = 4096
	cfg.Decode.StopAtUnhandled = true

	cfg.Inspector.HistorySize = 1000
	cfg.Inspector.ShowBlockState = true
	cfg.Inspector.ShowMemory = true

	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.DisasmContext = 5
	cfg.Display.NumberFormat = "hex"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.FilterRegs = ""
	cfg.Trace.IncludeMemory = true
	cfg.Trace.MaxEntries = 100000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"

	cfg.Server.Port = 8080
	cfg.Server.AllowOrigins = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "dolscan")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "dolscan")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "dolscan", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "dolscan", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// DefaultConfig when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
