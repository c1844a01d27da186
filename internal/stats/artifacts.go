// Package stats writes trained resonators and their runs to plain JSON and
// CSV files for offline analysis.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"sctnet/internal/model"
)

const indexFile = "index.json"

type ResonatorArtifacts struct {
	Resonator model.ResonatorRecord
	Runs      []model.RunRecord
	// History is the per-epoch mean MSE; it is only known right after
	// training and is skipped when empty.
	History []float64
}

type IndexEntry struct {
	ID           string  `json:"id"`
	Freq0        float64 `json:"freq0"`
	FResonator   float64 `json:"f_resonator"`
	MeanMSE      float64 `json:"mean_mse"`
	Runs         int     `json:"runs"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteResonatorArtifacts writes a's files under baseDir/<resonator id> and
// records the resonator in the index. It returns the resonator directory.
func WriteResonatorArtifacts(baseDir string, a ResonatorArtifacts) (string, error) {
	id := a.Resonator.ID
	if id == "" {
		return "", fmt.Errorf("resonator id is required")
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(dir, "resonator.json"), a.Resonator); err != nil {
		return "", err
	}
	runs := a.Runs
	if runs == nil {
		runs = []model.RunRecord{}
	}
	if err := writeJSON(filepath.Join(dir, "runs.json"), runs); err != nil {
		return "", err
	}
	if err := WriteSpikeCounts(dir, runs); err != nil {
		return "", err
	}
	if len(a.History) > 0 {
		if err := WriteMSEHistory(dir, a.History); err != nil {
			return "", err
		}
	}

	err := AppendIndex(baseDir, IndexEntry{
		ID:           id,
		Freq0:        a.Resonator.Freq0,
		FResonator:   a.Resonator.FResonator,
		MeanMSE:      a.Resonator.MeanMSE,
		Runs:         len(runs),
		CreatedAtUTC: a.Resonator.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return dir, nil
}

// AppendIndex adds or replaces entry in baseDir's index.
func AppendIndex(baseDir string, entry IndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("resonator id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListIndex(baseDir)
	if err != nil {
		return err
	}
	replaced := false
	for i := range index {
		if index[i].ID == entry.ID {
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}
	sort.SliceStable(index, func(i, j int) bool {
		if index[i].FResonator != index[j].FResonator {
			return index[i].FResonator < index[j].FResonator
		}
		return index[i].ID < index[j].ID
	})
	return writeJSON(filepath.Join(baseDir, indexFile), index)
}

// ListIndex reads baseDir's index ordered by resonator frequency. A missing
// index is empty.
func ListIndex(baseDir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []IndexEntry{}, nil
		}
		return nil, err
	}
	var index []IndexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return index, nil
}

func WriteMSEHistory(dir string, history []float64) error {
	file, err := os.Create(filepath.Join(dir, "mse_history.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"epoch", "mean_mse"}); err != nil {
		return err
	}
	for i, mse := range history {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(mse, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadMSEHistory returns the history written under dir, and false when there
// is none.
func ReadMSEHistory(dir string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(dir, "mse_history.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	history := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("mse history row must have 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		history = append(history, value)
	}
	return history, true, nil
}

// WriteSpikeCounts writes one row per run with the spike count of each stage.
func WriteSpikeCounts(dir string, runs []model.RunRecord) error {
	file, err := os.Create(filepath.Join(dir, "spike_counts.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	stages := 0
	for _, run := range runs {
		stages = max(stages, len(run.SpikeCounts))
	}
	header := []string{"run_id", "kind", "frequency", "ticks"}
	for i := 1; i <= stages; i++ {
		header = append(header, "stage_"+strconv.Itoa(i))
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, run := range runs {
		row := []string{
			run.ID,
			run.Kind,
			strconv.FormatFloat(run.Frequency, 'f', -1, 64),
			strconv.Itoa(run.Ticks),
		}
		for i := 0; i < stages; i++ {
			cell := ""
			if i < len(run.SpikeCounts) {
				cell = strconv.Itoa(run.SpikeCounts[i])
			}
			row = append(row, cell)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
