package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ResonatorRecord is a trained resonator: the parameters needed to rebuild it
// and the scores it reached.
type ResonatorRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	Freq0          float64   `json:"freq0"`
	FResonator     float64   `json:"f_resonator"`
	ClockFrequency int       `json:"clk_freq"`
	LeakageFactor  int       `json:"lf"`
	LeakagePeriod  int       `json:"lp"`
	Thetas         []float64 `json:"thetas"`
	Weights        []float64 `json:"weights"`
	NeuronMSE      []float64 `json:"neuron_mse,omitempty"`
	MeanMSE        float64   `json:"mean_mse"`
	Peaks          []float64 `json:"peaks,omitempty"`
	SNRs           []float64 `json:"snrs,omitempty"`
	BestNeuron     int       `json:"best_neuron"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	RunKindSine  = "sine"
	RunKindChirp = "chirp"
)

type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	ResonatorID string    `json:"resonator_id"`
	Kind        string    `json:"kind"`
	Frequency   float64   `json:"frequency,omitempty"`
	Ticks       int       `json:"ticks"`
	SpikeCounts []int     `json:"spike_counts"`
	Peaks       []float64 `json:"peaks,omitempty"`
	SNRs        []float64 `json:"snrs,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
