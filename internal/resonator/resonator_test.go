package resonator

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"sctnet/internal/nn"
)

func testParams(freq0 float64) Params {
	return Params{
		Freq0:         freq0,
		LeakageFactor: 2,
		Thetas:        []float64{1.069, 15.475, 9.179, 14.173},
		Weights:       []float64{14.674, 14.149, 31.11, 18.758, 28.745},
	}
}

func TestLeakagePeriodRoundTrip(t *testing.T) {
	tests := []struct {
		clk   int
		lf    int
		freq0 float64
		want  int
	}{
		{clk: 1536000, lf: 4, freq0: 104, want: 147},
		{clk: 1536000, lf: 5, freq0: 104, want: 73},
		{clk: 16000, lf: 2, freq0: 100, want: 6},
		{clk: 100, lf: 8, freq0: 1000, want: 1},
	}
	for _, tc := range tests {
		lp := LeakagePeriodFor(tc.lf, tc.freq0, tc.clk)
		if lp != tc.want {
			t.Fatalf("LeakagePeriodFor(%d, %v, %d) = %d, want %d", tc.lf, tc.freq0, tc.clk, lp, tc.want)
		}
	}
	f := Frequency(1536000, 4, 147)
	if math.Abs(f-104) > 1 {
		t.Fatalf("unexpected resonator frequency: %f", f)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"freq", func(p *Params) { p.Freq0 = 0 }},
		{"thetas", func(p *Params) { p.Thetas = p.Thetas[:3] }},
		{"weights", func(p *Params) { p.Weights = append(p.Weights, 1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams(100)
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestNewTopology(t *testing.T) {
	const clk = 16000
	p := testParams(100)
	net, err := New(clk, 1000, p)
	if err != nil {
		t.Fatalf("new resonator: %v", err)
	}
	if net.NeuronCount() != 5 || len(net.Layers()) != 5 {
		t.Fatalf("unexpected shape: neurons=%d layers=%d", net.NeuronCount(), len(net.Layers()))
	}
	if got := net.Graph().Sources(StageIDs[0]); !reflect.DeepEqual(got, []int{EncoderID, StageIDs[3]}) {
		t.Fatalf("unexpected first stage sources: %v", got)
	}
	first, _ := net.Neuron(StageIDs[0])
	if first.Weights[1] != -p.Weights[1] {
		t.Fatalf("feedback weight not negated: %v", first.Weights)
	}
	for _, id := range StageIDs {
		neuron, _ := net.Neuron(id)
		if neuron.LeakagePeriod != 6 || neuron.MembraneShouldReset || neuron.Activation != nn.PulseDensity {
			t.Fatalf("unexpected stage %d: %+v", id, neuron)
		}
	}
	if labels := net.Labels(); !reflect.DeepEqual(labels, []string{"sctn4"}) {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if err := net.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestExplicitLeakagePeriodWins(t *testing.T) {
	p := testParams(100)
	p.LeakagePeriod = 9
	net, err := New(16000, 1000, p)
	if err != nil {
		t.Fatalf("new resonator: %v", err)
	}
	neuron, _ := net.Neuron(StageIDs[2])
	if neuron.LeakagePeriod != 9 {
		t.Fatalf("leakage period = %d, want 9", neuron.LeakagePeriod)
	}
}

func TestNewLearningAttachesRules(t *testing.T) {
	rule := nn.STDPConfig{A: 1e-3, Tau: 10, MaxWeight: 100, MinWeight: -100}
	gts := [][]int{{1}, {2}, {3}, {4}}
	net, err := NewLearning(16000, 1000, testParams(100), rule, gts)
	if err != nil {
		t.Fatalf("new learning resonator: %v", err)
	}
	for i, id := range StageIDs {
		neuron, _ := net.Neuron(id)
		if neuron.SupervisedSTDP() == nil || neuron.SupervisedSTDP().GroundTruth()[0] != gts[i][0] {
			t.Fatalf("stage %d missing its rule", id)
		}
	}
	encoder, _ := net.Neuron(EncoderID)
	if encoder.SupervisedSTDP() != nil {
		t.Fatal("encoder should not learn")
	}
	if _, err := NewLearning(16000, 1000, testParams(100), rule, gts[:2]); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestFlatWeightsAndThetas(t *testing.T) {
	p := testParams(100)
	p.Weights[0] = 1.23456
	net, err := New(16000, 1000, p)
	if err != nil {
		t.Fatalf("new resonator: %v", err)
	}
	weights := FlatWeights(net)
	want := []float64{1.235, 14.149, 31.11, 18.758, 28.745}
	if !reflect.DeepEqual(weights, want) {
		t.Fatalf("weights = %v, want %v", weights, want)
	}
	if thetas := FlatThetas(net); !reflect.DeepEqual(thetas, p.Thetas) {
		t.Fatalf("thetas = %v, want %v", thetas, p.Thetas)
	}
}

func TestNewBankSharesInput(t *testing.T) {
	bank, offsets, err := NewBank(16000, 1000, testParams(100), testParams(200))
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	if !reflect.DeepEqual(offsets, []int{0, 5}) {
		t.Fatalf("unexpected offsets: %v", offsets)
	}
	if bank.NeuronCount() != 10 || len(bank.Amplitudes()) != 2 {
		t.Fatalf("unexpected bank shape: neurons=%d amplitudes=%d", bank.NeuronCount(), len(bank.Amplitudes()))
	}
	if got := bank.Graph().Sources(6); !reflect.DeepEqual(got, []int{5, 9}) {
		t.Fatalf("second resonator not re-based: %v", got)
	}
	out, err := bank.FeedSample(0.5)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected one output per resonator, got %d", len(out))
	}
	if _, _, err := NewBank(16000, 1000); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for empty bank, got %v", err)
	}
}
