// Package tuning searches for resonator thresholds and weights that make each
// stage lag the encoder by a fixed phase, combining threshold steering with
// supervised STDP.
package tuning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"sctnet/internal/config"
	"sctnet/internal/logging"
	"sctnet/internal/nn"
	"sctnet/internal/resonator"
	"sctnet/internal/signal"
)

const (
	// dcTolerance is the fraction of the window within which an envelope's
	// mean counts as centred.
	dcTolerance = 0.02
	// learnDCTolerance is the absolute envelope-mean distance from centre
	// within which STDP may run.
	learnDCTolerance = 10
	amplitudeBand    = 0.08
	thetaGain        = 0.2
	learningGain     = 5e-3
)

type Trainer struct {
	ClockFrequency int
	Amplitude      float64
	Epochs         int
	Rounds         int
	SpikesWindow   int
	LearningRate   float64
	TimeToLearn    float64
	MaxWeight      float64
	MinWeight      float64
	ThetaBound     float64
	Momentum       float64
	MSEThreshold   float64
	ThresholdStep  float64

	Logger *slog.Logger
	Trace  *logging.TraceLogger
}

// NewTrainer copies the simulation and training sections of cfg.
func NewTrainer(cfg *config.Config) *Trainer {
	tr := cfg.Training
	return &Trainer{
		ClockFrequency: cfg.Simulation.ClockFrequency,
		Amplitude:      cfg.Simulation.Amplitude,
		Epochs:         tr.Epochs,
		Rounds:         tr.Rounds,
		SpikesWindow:   tr.SpikesWindow,
		LearningRate:   tr.LearningRate,
		TimeToLearn:    tr.TimeToLearn,
		MaxWeight:      tr.MaxWeight,
		MinWeight:      tr.MinWeight,
		ThetaBound:     tr.ThetaBound,
		Momentum:       tr.Momentum,
		MSEThreshold:   tr.MSEThreshold,
		ThresholdStep:  tr.ThresholdStep,
	}
}

type Request struct {
	Freq0         float64
	LeakageFactor int
	Phase         int
	Thetas        []float64
	Weights       []float64
}

type TrainReport struct {
	EpochsRun      int  `json:"epochs_run"`
	RoundsRun      int  `json:"rounds_run"`
	Improvements   int  `json:"improvements"`
	ThetaSteps     int  `json:"theta_steps"`
	LearningEpochs int  `json:"learning_epochs"`
	ThresholdMet   bool `json:"threshold_met"`
}

type Result struct {
	// Params carries the best thresholds and weights found, with Freq0 snapped
	// to the frequency the integer leakage period actually yields.
	Params    resonator.Params
	NeuronMSE []float64
	MeanMSE   float64
	// History is the mean MSE of every epoch, in order.
	History []float64
	Report  TrainReport
}

func (t *Trainer) Name() string {
	return "supervised_stdp_search"
}

func (t *Trainer) validate(req Request) error {
	if t == nil {
		return errors.New("trainer is required")
	}
	if t.ClockFrequency < 4 {
		return errors.New("clock frequency must be >= 4")
	}
	if t.Epochs <= 0 || t.Rounds <= 0 {
		return errors.New("epochs and rounds must be > 0")
	}
	if t.SpikesWindow <= 0 {
		return errors.New("spikes window must be > 0")
	}
	if t.TimeToLearn <= 0 {
		return errors.New("time to learn must be > 0")
	}
	if !(req.Freq0 > 0) {
		return errors.New("freq0 must be > 0")
	}
	if req.Phase < 2 {
		return errors.New("phase must be >= 2")
	}
	return nil
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger == nil {
		return logging.Discard()
	}
	return t.Logger
}

// Train runs the parameter search. It checks ctx between epochs.
func (t *Trainer) Train(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := t.validate(req); err != nil {
		return Result{}, err
	}
	log := t.logger()
	clk := t.ClockFrequency

	lp := resonator.LeakagePeriodFor(req.LeakageFactor, req.Freq0, clk)
	freq0 := resonator.Frequency(clk, req.LeakageFactor, lp)
	params := resonator.Params{
		Freq0:         freq0,
		LeakageFactor: req.LeakageFactor,
		LeakagePeriod: lp,
		Thetas:        append([]float64(nil), req.Thetas...),
		Weights:       append([]float64(nil), req.Weights...),
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	sine := signal.Sine(freq0, clk, float64(2+req.Phase)/freq0)
	gt, err := t.buildGroundTruth(sine, freq0, req.Phase)
	if err != nil {
		return Result{}, err
	}
	log.Info("ground truth ready", "freq0", freq0, "lp", lp, "samples", len(sine), "anchor", gt.anchor)

	rule := nn.STDPConfig{
		A:         t.LearningRate,
		Tau:       float64(clk) * t.TimeToLearn / 2,
		MaxWeight: t.MaxWeight,
		MinWeight: t.MinWeight,
	}
	net, err := resonator.NewLearning(clk, t.Amplitude, params, rule, gt.events)
	if err != nil {
		return Result{}, err
	}
	net.SetLogger(log)
	if err := resonator.LogStages(net); err != nil {
		return Result{}, err
	}
	stages := make([]*nn.Neuron, resonator.Stages)
	rules := make([]*nn.SupervisedSTDP, resonator.Stages)
	for i, id := range resonator.StageIDs {
		if stages[i], err = net.Neuron(id); err != nil {
			return Result{}, err
		}
		rules[i] = stages[i].SupervisedSTDP()
	}

	result := Result{
		Params:  params,
		MeanMSE: math.Inf(1),
	}
	momentum := make([]float64, resonator.Stages)
	size := int(float64(clk)/freq0) + 1
	window := float64(t.SpikesWindow)
	threshold := t.MSEThreshold
	epoch := 0

	for round := 0; round < t.Rounds; round++ {
		result.Report.RoundsRun++
		for i := 0; i < t.Epochs; i++ {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			epoch++
			if _, err := net.FeedSequence(sine); err != nil {
				return Result{}, err
			}

			outputs := make([][]float64, resonator.Stages)
			mses := make([]float64, resonator.Stages)
			for j, stage := range stages {
				events := cycleEvents(stage.OutSpikes(), clk, freq0, req.Phase, 0)
				outputs[j] = signal.EventsToSpikes(signal.Shift(events, gt.anchor), t.SpikesWindow, size)
				if mses[j], err = signal.MSE(gt.rolling[j], outputs[j]); err != nil {
					return Result{}, fmt.Errorf("stage %d: %w", j+1, err)
				}
			}
			mean, _ := signal.Avg(mses)
			result.History = append(result.History, mean)
			result.Report.EpochsRun++

			if mean < result.MeanMSE {
				result.MeanMSE = mean
				result.NeuronMSE = append([]float64(nil), mses...)
				result.Params.Thetas = resonator.FlatThetas(net)
				result.Params.Weights = resonator.FlatWeights(net)
				result.Report.Improvements++
			}

			dcs := make([]float64, resonator.Stages)
			for j, stage := range stages {
				dcs[j], _ = signal.Avg(outputs[j])
				if math.Abs(dcs[j]-window/2) < window*dcTolerance {
					continue
				}
				momentum[j] = thetaShift(dcs[j], window) + t.Momentum*momentum[j]
				stage.Theta += momentum[j]
				if stage.Theta < t.ThetaBound {
					stage.Theta = t.ThetaBound
				}
				result.Report.ThetaSteps++
			}

			learning := false
			for j, stage := range stages {
				span, _ := signal.Span(outputs[j])
				centred := math.Abs(dcs[j]-window/2) < learnDCTolerance || stage.Theta <= t.ThetaBound
				target := gt.spans[j]
				if centred && target > 0 && math.Abs(span-target) > target*amplitudeBand {
					rules[j].A = math.Abs(span-target) / target * learningGain
					stage.SetSupervisedSTDP(rules[j])
					learning = true
				} else {
					stage.SetSupervisedSTDP(nil)
				}
			}
			if learning {
				result.Report.LearningEpochs++
			}

			log.Debug("epoch",
				"round", round,
				"epoch", epoch,
				"mse", mean,
				"best", result.MeanMSE,
				"thetas", resonator.FlatThetas(net),
				"dc", dcs,
			)
			log.Log(ctx, logging.LevelTrace, "epoch weights", "epoch", epoch, "weights", resonator.FlatWeights(net))
			t.Trace.Log(logging.EpochRecord{
				Freq0:   freq0,
				Round:   round,
				Epoch:   epoch,
				MSE:     mean,
				MSEs:    mses,
				BestMSE: result.MeanMSE,
				Thetas:  resonator.FlatThetas(net),
				Weights: resonator.FlatWeights(net),
			})

			net.ForgetLogs()
		}

		if result.MeanMSE <= threshold {
			result.Report.ThresholdMet = true
			break
		}
		threshold += t.ThresholdStep
	}

	log.Info("training finished",
		"freq0", freq0,
		"epochs", result.Report.EpochsRun,
		"best_mse", result.MeanMSE,
		"threshold_met", result.Report.ThresholdMet,
	)
	return result, nil
}

// thetaShift raises the threshold of a stage firing more than half the
// window and lowers it otherwise, quadratically in the imbalance.
func thetaShift(dc, window float64) float64 {
	imbalance := (2*dc - window) / window
	sign := 0.0
	switch {
	case dc > window/2:
		sign = 1
	case dc < window/2:
		sign = -1
	}
	return thetaGain * imbalance * imbalance * sign
}
