package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.ClockFrequency != 1536000 {
		t.Fatalf("expected clock 1536000, got %d", config.Simulation.ClockFrequency)
	}
	if config.Training.SpikesWindow != 500 {
		t.Fatalf("expected spikes window 500, got %d", config.Training.SpikesWindow)
	}
	if config.Storage.Kind != "sqlite" || config.Storage.Path != DefaultDBPath() {
		t.Fatalf("unexpected default store: %+v", config.Storage)
	}
	if config.Logging.Level != "info" {
		t.Fatalf("expected Logging.Level 'info', got %q", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
simulation:
  clock_frequency: 16000
  leakage_factor: 3

training:
  epochs: 20
  initial_thetas: [1, 2, 3, 4]

storage:
  kind: sqlite
  path: /tmp/sctnet.db

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if config.Simulation.ClockFrequency != 16000 || config.Simulation.LeakageFactor != 3 {
		t.Fatalf("unexpected simulation config: %+v", config.Simulation)
	}
	if config.Simulation.Amplitude != 1000 {
		t.Fatalf("missing key lost its default: amplitude=%f", config.Simulation.Amplitude)
	}
	if config.Training.Epochs != 20 || config.Training.InitialThetas[3] != 4 {
		t.Fatalf("unexpected training config: %+v", config.Training)
	}
	if len(config.Training.InitialWeights) != 5 {
		t.Fatalf("expected default weights, got %v", config.Training.InitialWeights)
	}
	if config.Storage.Kind != "sqlite" || config.Logging.Level != "debug" {
		t.Fatalf("unexpected storage/logging: %+v %+v", config.Storage, config.Logging)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadExplicitMissingPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing path")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCTNET_CLOCK_FREQUENCY", "32000")
	t.Setenv("SCTNET_STORE", "memory")
	t.Setenv("SCTNET_DB_PATH", "/var/lib/sctnet.db")
	t.Setenv("SCTNET_LOG_LEVEL", "trace")
	t.Setenv("SCTNET_EPOCHS", "not-a-number")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.ClockFrequency != 32000 {
		t.Fatalf("clock override ignored: %d", config.Simulation.ClockFrequency)
	}
	if config.Storage.Kind != "memory" || config.Storage.Path != "/var/lib/sctnet.db" {
		t.Fatalf("storage override ignored: %+v", config.Storage)
	}
	if config.Logging.Level != "trace" {
		t.Fatalf("log level override ignored: %q", config.Logging.Level)
	}
	if config.Training.Epochs != 500 {
		t.Fatalf("invalid epochs override applied: %d", config.Training.Epochs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := Default()
	config.Training.Epochs = 7
	if err := config.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Training.Epochs != 7 || loaded.Simulation.ClockFrequency != config.Simulation.ClockFrequency {
		t.Fatalf("unexpected round trip: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"clock too small", func(c *Config) { c.Simulation.ClockFrequency = 2 }, "clock_frequency"},
		{"leakage factor", func(c *Config) { c.Simulation.LeakageFactor = 70 }, "leakage_factor"},
		{"phase", func(c *Config) { c.Training.Phase = 1 }, "phase"},
		{"thetas", func(c *Config) { c.Training.InitialThetas = []float64{1} }, "initial_thetas"},
		{"weights", func(c *Config) { c.Training.InitialWeights = nil }, "initial_weights"},
		{"weight bounds", func(c *Config) { c.Training.MinWeight = 2; c.Training.MaxWeight = 1 }, "min_weight"},
		{"store kind", func(c *Config) { c.Storage.Kind = "postgres" }, "store kind"},
		{"sqlite path", func(c *Config) { c.Storage.Kind = "sqlite"; c.Storage.Path = "" }, "storage path"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
