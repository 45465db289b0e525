package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"MaxInstrs", cfg.Decode.MaxInstrs, 4096},
		{"DefaultEntry", cfg.Decode.DefaultEntry, "0x80003100"},
		{"StopAtUnhandled", cfg.Decode.StopAtUnhandled, true},
		{"HistorySize", cfg.Inspector.HistorySize, 1000},
		{"ShowBlockState", cfg.Inspector.ShowBlockState, true},
		{"BytesPerLine", cfg.Display.BytesPerLine, 16},
		{"NumberFormat", cfg.Display.NumberFormat, "hex"},
		{"MaxEntries", cfg.Trace.MaxEntries, 100000},
		{"Format", cfg.Statistics.Format, "json"},
		{"Port", cfg.Server.Port, 8080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "dolscan" && path != "config.toml" {
			t.Errorf("Expected path in dolscan directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Decode.MaxInstrs = 8192
	cfg.Decode.StopAtUnhandled = false
	cfg.Inspector.HistorySize = 500
	cfg.Display.ColorOutput = false
	cfg.Trace.FilterRegs = "r3,r4,lr"

	require.NoError(t, cfg.SaveTo(configPath), "Failed to save config")

	_, err := os.Stat(configPath)
	require.False(t, os.IsNotExist(err), "Config file was not created")

	loaded, err := LoadFrom(configPath)
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 8192, loaded.Decode.MaxInstrs)
	assert.False(t, loaded.Decode.StopAtUnhandled)
	assert.Equal(t, 500, loaded.Inspector.HistorySize)
	assert.False(t, loaded.Display.ColorOutput)
	assert.Equal(t, "r3,r4,lr", loaded.Trace.FilterRegs)
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Decode.MaxInstrs != 4096 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[decode]
max_instructions = "not a number"  # Invalid: should be int
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
