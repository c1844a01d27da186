package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sctnet/internal/config"
)

// isolateHome points HOME at a temp directory so default config and
// database paths never touch the real ~/.sctnet.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	return home
}

func writeSmallConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Simulation.ClockFrequency = 16000
	cfg.Simulation.LeakageFactor = 2
	cfg.Training.Epochs = 2
	cfg.Training.Rounds = 1
	cfg.Training.Phase = 3
	cfg.Training.SpikesWindow = 20
	cfg.Storage.Kind = "sqlite"
	cfg.Storage.Path = filepath.Join(dir, "sctnet.db")
	path := filepath.Join(dir, "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode version output %q: %v", out, err)
	}
	if got["version"] != version {
		t.Fatalf("unexpected version: %v", got)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	home := isolateHome(t)

	out, err := execute(t, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	want := filepath.Join(home, ".sctnet", "config.yaml")
	if !strings.Contains(out, want) {
		t.Fatalf("init did not report %s: %q", want, out)
	}
	if _, err := execute(t, "config", "init"); err == nil {
		t.Fatal("expected second init without --force to fail")
	}
	if _, err := execute(t, "config", "init", "--force"); err != nil {
		t.Fatalf("forced init: %v", err)
	}

	out, err = execute(t, "config", "show", "--json", "--store", "memory", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Storage.Kind != "memory" || cfg.Logging.Level != "debug" {
		t.Fatalf("flag overrides not applied: %+v %+v", cfg.Storage, cfg.Logging)
	}
	if cfg.Simulation.ClockFrequency != 1536000 {
		t.Fatalf("unexpected clock: %d", cfg.Simulation.ClockFrequency)
	}
}

func TestConfigShowMissingExplicitFile(t *testing.T) {
	isolateHome(t)
	if _, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestTrainSimulateRunsDelete(t *testing.T) {
	isolateHome(t)
	cfgPath := writeSmallConfig(t)

	out, err := execute(t, "train", "100", "--skip-chirp", "--json", "--config", cfgPath)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	var summary struct {
		Resonator struct {
			ID      string    `json:"id"`
			Weights []float64 `json:"weights"`
		}
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode train output: %v", err)
	}
	if summary.Resonator.ID != "f_100" || len(summary.Resonator.Weights) != 5 {
		t.Fatalf("unexpected train summary: %+v", summary)
	}

	out, err = execute(t, "resonators", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "f_100") {
		t.Fatalf("list missing resonator: %q", out)
	}

	out, err = execute(t, "simulate", "f_100", "--freq", "100", "--cycles", "2", "--config", cfgPath)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if strings.Count(out, "stage ") != 4 {
		t.Fatalf("expected four stage lines: %q", out)
	}

	out, err = execute(t, "runs", "--resonator", "f_100", "--config", cfgPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "sine") {
		t.Fatalf("runs missing sine run: %q", out)
	}

	out, err = execute(t, "resonators", "show", "f_100", "--config", cfgPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Weights:") || strings.Count(out, "w[") != 5 {
		t.Fatalf("show output incomplete: %q", out)
	}

	exportDir := t.TempDir()
	out, err = execute(t, "export", "f_100", "--out", exportDir, "--config", cfgPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportDir, "f_100", "spike_counts.csv")); err != nil {
		t.Fatalf("export missing spike counts: %v (output %q)", err, out)
	}

	if _, err := execute(t, "resonators", "delete", "f_100", "--config", cfgPath); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "resonators", "show", "f_100", "--config", cfgPath); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTrainRejectsBadFrequency(t *testing.T) {
	isolateHome(t)
	cfgPath := writeSmallConfig(t)
	for _, arg := range []string{"abc", "-5", "0"} {
		if _, err := execute(t, "train", "--config", cfgPath, "--", arg); err == nil {
			t.Fatalf("expected error for frequency %q", arg)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		max  float64
		want string
	}{
		{name: "half", v: 5, max: 10, want: strings.Repeat("#", 12) + strings.Repeat(".", 12)},
		{name: "full negative", v: -10, max: 10, want: strings.Repeat("#", 24)},
		{name: "zero max", v: 3, max: 0, want: strings.Repeat(".", 24)},
		{name: "nan", v: math.NaN(), max: 1, want: strings.Repeat(".", 24)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := bar(tc.v, tc.max, false); got != tc.want {
				t.Fatalf("bar(%v, %v) = %q, want %q", tc.v, tc.max, got, tc.want)
			}
		})
	}
	if got := bar(-1, 1, true); !strings.HasPrefix(got, "\x1b[31m") {
		t.Fatalf("negative bar not red: %q", got)
	}
}

func TestColorDisabledForBuffers(t *testing.T) {
	if colorEnabled(&bytes.Buffer{}) {
		t.Fatal("buffers are not terminals")
	}
}

func TestTicksAndHz(t *testing.T) {
	if got := ticks(1536000); got != "1,536,000" {
		t.Fatalf("ticks: %q", got)
	}
	if got := hz(104.25); got != "104.25 Hz" {
		t.Fatalf("hz: %q", got)
	}
}
