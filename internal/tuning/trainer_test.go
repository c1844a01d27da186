package tuning

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"sctnet/internal/config"
	"sctnet/internal/resonator"
)

func smallTrainer() *Trainer {
	cfg := config.Default()
	cfg.Simulation.ClockFrequency = 16000
	cfg.Training.Epochs = 3
	cfg.Training.Rounds = 1
	cfg.Training.SpikesWindow = 20
	tr := NewTrainer(cfg)
	return tr
}

func smallRequest() Request {
	return Request{
		Freq0:         100,
		LeakageFactor: 2,
		Phase:         3,
		Thetas:        []float64{1.069, 15.475, 9.179, 14.173},
		Weights:       []float64{14.674, 14.149, 31.11, 18.758, 28.745},
	}
}

func TestTrainProducesBestParameters(t *testing.T) {
	tr := smallTrainer()
	result, err := tr.Train(context.Background(), smallRequest())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(result.History) != 3 || result.Report.EpochsRun != 3 || result.Report.RoundsRun != 1 {
		t.Fatalf("unexpected run shape: history=%d report=%+v", len(result.History), result.Report)
	}
	if result.MeanMSE > result.History[0] {
		t.Fatalf("best mse %f worse than first epoch %f", result.MeanMSE, result.History[0])
	}
	if len(result.NeuronMSE) != resonator.Stages {
		t.Fatalf("expected %d stage errors, got %v", resonator.Stages, result.NeuronMSE)
	}
	if len(result.Params.Thetas) != resonator.Stages || len(result.Params.Weights) != resonator.WeightCount {
		t.Fatalf("unexpected params: %+v", result.Params)
	}
	for _, theta := range result.Params.Thetas {
		if theta < tr.ThetaBound {
			t.Fatalf("theta %f below bound %f", theta, tr.ThetaBound)
		}
	}
	if result.Params.LeakagePeriod != 6 {
		t.Fatalf("leakage period = %d, want 6", result.Params.LeakagePeriod)
	}
	if got := resonator.Frequency(16000, 2, 6); result.Params.Freq0 != got {
		t.Fatalf("freq0 not snapped: got=%f want=%f", result.Params.Freq0, got)
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	first, err := smallTrainer().Train(context.Background(), smallRequest())
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	second, err := smallTrainer().Train(context.Background(), smallRequest())
	if err != nil {
		t.Fatalf("second train: %v", err)
	}
	if !reflect.DeepEqual(first.History, second.History) || !reflect.DeepEqual(first.Params, second.Params) {
		t.Fatalf("training not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestTrainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := smallTrainer().Train(ctx, smallRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTrainInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Trainer, *Request)
	}{
		{"epochs", func(tr *Trainer, _ *Request) { tr.Epochs = 0 }},
		{"window", func(tr *Trainer, _ *Request) { tr.SpikesWindow = 0 }},
		{"freq", func(_ *Trainer, req *Request) { req.Freq0 = 0 }},
		{"phase", func(_ *Trainer, req *Request) { req.Phase = 1 }},
		{"weights", func(_ *Trainer, req *Request) { req.Weights = req.Weights[:2] }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := smallTrainer()
			req := smallRequest()
			tc.mutate(tr, &req)
			if _, err := tr.Train(context.Background(), req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestThetaShift(t *testing.T) {
	tests := []struct {
		dc   float64
		want float64
	}{
		{dc: 250, want: 0},
		{dc: 500, want: 0.2},
		{dc: 0, want: -0.2},
		{dc: 375, want: 0.05},
	}
	for _, tc := range tests {
		if got := thetaShift(tc.dc, 500); got != tc.want {
			t.Fatalf("thetaShift(%v) = %v, want %v", tc.dc, got, tc.want)
		}
	}
}

func TestCycleEvents(t *testing.T) {
	events := []int{50, 100, 150, 210, 240, 300}
	got := cycleEvents(events, 1000, 10, 2, 0)
	if !reflect.DeepEqual(got, []int{150}) {
		t.Fatalf("unexpected cycle events: %v", got)
	}
	shifted := cycleEvents(events, 1000, 10, 2, 180)
	if !reflect.DeepEqual(shifted, []int{210, 240}) {
		t.Fatalf("unexpected shifted events: %v", shifted)
	}
}
