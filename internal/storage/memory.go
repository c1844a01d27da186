package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"sctnet/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	resonators  map[string]model.ResonatorRecord
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.resonators = make(map[string]model.ResonatorRecord)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveResonator(_ context.Context, record model.ResonatorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.resonators[record.ID] = cloneResonator(record)
	return nil
}

func (s *MemoryStore) GetResonator(_ context.Context, id string) (model.ResonatorRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.resonators[id]
	if !ok {
		return model.ResonatorRecord{}, false, nil
	}
	return cloneResonator(record), true, nil
}

func (s *MemoryStore) ListResonators(_ context.Context) ([]model.ResonatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ResonatorRecord, 0, len(s.resonators))
	for _, record := range s.resonators {
		out = append(out, cloneResonator(record))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq0 != out[j].Freq0 {
			return out[i].Freq0 < out[j].Freq0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteResonator removes the resonator and every run recorded against it.
func (s *MemoryStore) DeleteResonator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.resonators, id)
	for runID, run := range s.runs {
		if run.ResonatorID == id {
			delete(s.runs, runID)
		}
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return cloneRun(run), true, nil
}

// ListRuns returns runs oldest first. An empty resonatorID lists every run.
func (s *MemoryStore) ListRuns(_ context.Context, resonatorID string) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0)
	for _, run := range s.runs {
		if resonatorID != "" && run.ResonatorID != resonatorID {
			continue
		}
		out = append(out, cloneRun(run))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneResonator(r model.ResonatorRecord) model.ResonatorRecord {
	r.Thetas = append([]float64(nil), r.Thetas...)
	r.Weights = append([]float64(nil), r.Weights...)
	r.NeuronMSE = append([]float64(nil), r.NeuronMSE...)
	r.Peaks = append([]float64(nil), r.Peaks...)
	r.SNRs = append([]float64(nil), r.SNRs...)
	return r
}

func cloneRun(r model.RunRecord) model.RunRecord {
	r.SpikeCounts = append([]int(nil), r.SpikeCounts...)
	r.Peaks = append([]float64(nil), r.Peaks...)
	r.SNRs = append([]float64(nil), r.SNRs...)
	return r
}
