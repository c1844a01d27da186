// Package config provides configuration loading for sctnet.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains all sctnet configuration settings.
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Training   TrainingConfig   `json:"training" yaml:"training"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

type SimulationConfig struct {
	// ClockFrequency is the number of ticks per simulated second.
	ClockFrequency int `json:"clock_frequency" yaml:"clock_frequency"`

	// LeakageFactor is shared by every resonator neuron; the leakage period
	// is derived from it and the target frequency.
	LeakageFactor int `json:"leakage_factor" yaml:"leakage_factor"`

	// Amplitude scales samples before they are quantized into the encoder.
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
}

// TrainingConfig configures the resonator parameter search.
type TrainingConfig struct {
	Epochs int `json:"epochs" yaml:"epochs"`

	// Rounds caps how many times the epoch loop restarts with a looser MSE
	// threshold.
	Rounds int `json:"rounds" yaml:"rounds"`

	// Phase selects which cycle of the input sine is scored.
	Phase int `json:"phase" yaml:"phase"`

	// SpikesWindow is the rolling-sum window, in ticks, used for envelopes.
	SpikesWindow int `json:"spikes_window" yaml:"spikes_window"`

	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	TimeToLearn  float64 `json:"time_to_learn" yaml:"time_to_learn"`
	MaxWeight    float64 `json:"max_weight" yaml:"max_weight"`
	MinWeight    float64 `json:"min_weight" yaml:"min_weight"`

	InitialThetas  []float64 `json:"initial_thetas" yaml:"initial_thetas"`
	InitialWeights []float64 `json:"initial_weights" yaml:"initial_weights"`

	// ThetaBound is the lowest threshold the trainer may set.
	ThetaBound float64 `json:"theta_bound" yaml:"theta_bound"`
	Momentum   float64 `json:"momentum" yaml:"momentum"`

	MSEThreshold  float64 `json:"mse_threshold" yaml:"mse_threshold"`
	ThresholdStep float64 `json:"threshold_step" yaml:"threshold_step"`

	// ChirpStepRatio sets the chirp sweep rate as ratio/clock Hz per tick.
	ChirpStepRatio float64 `json:"chirp_step_ratio" yaml:"chirp_step_ratio"`
}

type StorageConfig struct {
	// Kind is "memory" or "sqlite".
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
}

// LoggingConfig configures operational and training logs.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`

	// TraceDir, when set at debug or trace level, receives training.jsonl.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a Config with the values the reference resonator bank was
// trained with.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			ClockFrequency: 1536000,
			LeakageFactor:  4,
			Amplitude:      1000,
		},
		Training: TrainingConfig{
			Epochs:         500,
			Rounds:         5,
			Phase:          20,
			SpikesWindow:   500,
			LearningRate:   1e-6,
			TimeToLearn:    5e-6,
			MaxWeight:      1e6,
			MinWeight:      -1e6,
			InitialThetas:  []float64{1.069, 15.475, 9.179, 14.173},
			InitialWeights: []float64{14.674, 14.149, 31.11, 18.758, 28.745},
			ThetaBound:     0.75,
			Momentum:       0,
			MSEThreshold:   300,
			ThresholdStep:  100,
			ChirpStepRatio: 100,
		},
		Storage: StorageConfig{
			Kind: "sqlite",
			Path: DefaultDBPath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath is ~/.sctnet/config.yaml, or "" when the home directory is
// unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".sctnet", "config.yaml")
}

// DefaultDBPath is ~/.sctnet/sctnet.db, or sctnet.db in the working
// directory when the home directory is unknown.
func DefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "sctnet.db"
	}
	return filepath.Join(homeDir, ".sctnet", "sctnet.db")
}

// Load loads configuration from path (or DefaultPath when empty) and applies
// environment overrides.
// Order: defaults -> config file -> environment variables
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil || explicit {
			fileConfig, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Missing keys
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("config path is required")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.ClockFrequency < 4 {
		return fmt.Errorf("clock_frequency must be at least 4, got %d", c.Simulation.ClockFrequency)
	}
	if c.Simulation.LeakageFactor < 0 || c.Simulation.LeakageFactor > 62 {
		return fmt.Errorf("leakage_factor must be between 0 and 62, got %d", c.Simulation.LeakageFactor)
	}
	if c.Simulation.Amplitude <= 0 || math.IsInf(c.Simulation.Amplitude, 0) {
		return fmt.Errorf("amplitude must be positive, got %f", c.Simulation.Amplitude)
	}

	tr := c.Training
	if tr.Epochs < 1 || tr.Rounds < 1 {
		return fmt.Errorf("epochs and rounds must be positive, got %d and %d", tr.Epochs, tr.Rounds)
	}
	if tr.Phase < 2 {
		return fmt.Errorf("phase must be at least 2, got %d", tr.Phase)
	}
	if tr.SpikesWindow < 1 {
		return fmt.Errorf("spikes_window must be positive, got %d", tr.SpikesWindow)
	}
	if tr.TimeToLearn <= 0 {
		return fmt.Errorf("time_to_learn must be positive, got %g", tr.TimeToLearn)
	}
	if tr.MinWeight > tr.MaxWeight {
		return fmt.Errorf("min_weight %g exceeds max_weight %g", tr.MinWeight, tr.MaxWeight)
	}
	if len(tr.InitialThetas) != 4 {
		return fmt.Errorf("initial_thetas needs 4 values, got %d", len(tr.InitialThetas))
	}
	if len(tr.InitialWeights) != 5 {
		return fmt.Errorf("initial_weights needs 5 values, got %d", len(tr.InitialWeights))
	}
	if tr.ChirpStepRatio <= 0 {
		return fmt.Errorf("chirp_step_ratio must be positive, got %g", tr.ChirpStepRatio)
	}

	validKinds := map[string]bool{"": true, "memory": true, "sqlite": true}
	if !validKinds[c.Storage.Kind] {
		return fmt.Errorf("invalid store kind: %s (valid: memory, sqlite)", c.Storage.Kind)
	}
	if c.Storage.Kind == "sqlite" && c.Storage.Path == "" {
		return errors.New("storage path is required for sqlite")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SCTNET_CLOCK_FREQUENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.ClockFrequency = n
		}
	}

	if v := os.Getenv("SCTNET_LEAKAGE_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.LeakageFactor = n
		}
	}

	if v := os.Getenv("SCTNET_EPOCHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Training.Epochs = n
		}
	}

	if v := os.Getenv("SCTNET_STORE"); v != "" {
		config.Storage.Kind = v
	}

	if v := os.Getenv("SCTNET_DB_PATH"); v != "" {
		config.Storage.Path = v
	}

	if v := os.Getenv("SCTNET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
