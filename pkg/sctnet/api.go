package sctnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sctnet/internal/config"
	"sctnet/internal/logging"
	"sctnet/internal/model"
	"sctnet/internal/nn"
	"sctnet/internal/resonator"
	"sctnet/internal/signal"
	"sctnet/internal/stats"
	"sctnet/internal/storage"
	"sctnet/internal/tuning"
)

const (
	defaultDBPath = "sctnet.db"
	defaultCycles = 20
)

var ErrResonatorNotFound = errors.New("resonator not found")

type Options struct {
	StoreKind string
	DBPath    string
	Config    *config.Config
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	cfg    *config.Config
	logger *slog.Logger
	trace  *logging.TraceLogger
	now    func() time.Time
}

type TrainRequest struct {
	// ID names the stored resonator; it defaults to f_<freq0>.
	ID            string
	Freq0         float64
	LeakageFactor int
	Phase         int
	Thetas        []float64
	Weights       []float64
	SkipChirp     bool
	// ArtifactsDir, when set, receives the trained resonator and its MSE
	// history as JSON and CSV files.
	ArtifactsDir string
}

type TrainSummary struct {
	Resonator model.ResonatorRecord
	History   []float64
	Report    tuning.TrainReport
	Responses []resonator.Response
}

type SimulateRequest struct {
	ResonatorID string
	Frequency   float64
	Cycles      int
}

type ChirpRequest struct {
	ResonatorID string
	Start       float64
	// Spectrum defaults to twice the resonator frequency.
	Spectrum  float64
	StepRatio float64
}

type ChirpSummary struct {
	Run        model.RunRecord
	Responses  []resonator.Response
	BestNeuron int
}

func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = cfg.Storage.Kind
	}
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.Storage.Path
	}
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}

	trace, err := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
	if err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}

	return &Client{
		store:  store,
		cfg:    cfg,
		logger: logger,
		trace:  trace,
		now:    time.Now,
	}, nil
}

func (c *Client) Close() error {
	_ = c.trace.Close()
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Config() *config.Config {
	return c.cfg
}

// Train searches for resonator parameters around req.Freq0, sweeps the result
// with a chirp unless SkipChirp is set, and stores it.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	tr := c.cfg.Training
	if req.LeakageFactor == 0 {
		req.LeakageFactor = c.cfg.Simulation.LeakageFactor
	}
	if req.Phase == 0 {
		req.Phase = tr.Phase
	}
	if req.Thetas == nil {
		req.Thetas = append([]float64(nil), tr.InitialThetas...)
	}
	if req.Weights == nil {
		req.Weights = append([]float64(nil), tr.InitialWeights...)
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("f_%d", int(req.Freq0))
	}

	trainer := tuning.NewTrainer(c.cfg)
	trainer.Logger = c.logger.With("resonator", req.ID)
	trainer.Trace = c.trace
	result, err := trainer.Train(ctx, tuning.Request{
		Freq0:         req.Freq0,
		LeakageFactor: req.LeakageFactor,
		Phase:         req.Phase,
		Thetas:        req.Thetas,
		Weights:       req.Weights,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	record := model.ResonatorRecord{
		VersionedRecord: storage.Versioned(),
		ID:              req.ID,
		Freq0:           req.Freq0,
		FResonator:      result.Params.Freq0,
		ClockFrequency:  c.cfg.Simulation.ClockFrequency,
		LeakageFactor:   result.Params.LeakageFactor,
		LeakagePeriod:   result.Params.LeakagePeriod,
		Thetas:          result.Params.Thetas,
		Weights:         result.Params.Weights,
		NeuronMSE:       result.NeuronMSE,
		MeanMSE:         result.MeanMSE,
		CreatedAt:       c.now().UTC(),
	}

	summary := TrainSummary{History: result.History, Report: result.Report}
	if !req.SkipChirp {
		responses, err := c.sweep(ctx, record, 0, 2*record.FResonator, tr.ChirpStepRatio)
		if err != nil {
			return TrainSummary{}, err
		}
		for _, r := range responses {
			record.Peaks = append(record.Peaks, r.Peak)
			record.SNRs = append(record.SNRs, r.SNR)
		}
		record.BestNeuron = resonator.BestStage(responses, record.FResonator)
		summary.Responses = responses
	}

	if err := c.store.SaveResonator(ctx, record); err != nil {
		return TrainSummary{}, err
	}
	summary.Resonator = record
	c.logger.Info("resonator stored", "id", record.ID, "f_resonator", record.FResonator, "mean_mse", record.MeanMSE)

	if req.ArtifactsDir != "" {
		dir, err := stats.WriteResonatorArtifacts(req.ArtifactsDir, stats.ResonatorArtifacts{
			Resonator: record,
			History:   result.History,
		})
		if err != nil {
			return TrainSummary{}, fmt.Errorf("write artifacts: %w", err)
		}
		c.logger.Debug("artifacts written", "dir", dir)
	}
	return summary, nil
}

// Simulate feeds a sine of req.Frequency through a stored resonator and
// records how often each stage fired.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (model.RunRecord, error) {
	record, err := c.Resonator(ctx, req.ResonatorID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !(req.Frequency > 0) {
		return model.RunRecord{}, fmt.Errorf("frequency must be > 0, got %v", req.Frequency)
	}
	if req.Cycles <= 0 {
		req.Cycles = defaultCycles
	}

	net, err := c.build(record)
	if err != nil {
		return model.RunRecord{}, err
	}
	samples := signal.Sine(req.Frequency, record.ClockFrequency, float64(req.Cycles)/req.Frequency)
	for i, sample := range samples {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return model.RunRecord{}, err
			}
		}
		if _, err := net.FeedSample(sample); err != nil {
			return model.RunRecord{}, err
		}
	}

	run := c.newRun(record.ID, model.RunKindSine, net)
	run.Frequency = req.Frequency
	if err := c.store.SaveRun(ctx, run); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// Chirp sweeps a stored resonator and reports each stage's peak frequency
// and SNR.
func (c *Client) Chirp(ctx context.Context, req ChirpRequest) (ChirpSummary, error) {
	record, err := c.Resonator(ctx, req.ResonatorID)
	if err != nil {
		return ChirpSummary{}, err
	}
	if req.Spectrum <= 0 {
		req.Spectrum = 2 * record.FResonator
	}
	if req.StepRatio <= 0 {
		req.StepRatio = c.cfg.Training.ChirpStepRatio
	}

	net, err := c.build(record)
	if err != nil {
		return ChirpSummary{}, err
	}
	responses, err := c.sweepNetwork(ctx, net, req.Start, req.Spectrum, req.StepRatio)
	if err != nil {
		return ChirpSummary{}, err
	}

	run := c.newRun(record.ID, model.RunKindChirp, net)
	for _, r := range responses {
		run.Peaks = append(run.Peaks, r.Peak)
		run.SNRs = append(run.SNRs, r.SNR)
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return ChirpSummary{}, err
	}
	return ChirpSummary{
		Run:        run,
		Responses:  responses,
		BestNeuron: resonator.BestStage(responses, record.FResonator),
	}, nil
}

func (c *Client) Resonators(ctx context.Context) ([]model.ResonatorRecord, error) {
	return c.store.ListResonators(ctx)
}

func (c *Client) Resonator(ctx context.Context, id string) (model.ResonatorRecord, error) {
	record, ok, err := c.store.GetResonator(ctx, id)
	if err != nil {
		return model.ResonatorRecord{}, err
	}
	if !ok {
		return model.ResonatorRecord{}, fmt.Errorf("%w: %s", ErrResonatorNotFound, id)
	}
	return record, nil
}

func (c *Client) DeleteResonator(ctx context.Context, id string) error {
	if _, err := c.Resonator(ctx, id); err != nil {
		return err
	}
	return c.store.DeleteResonator(ctx, id)
}

// Runs lists runs oldest first, optionally for one resonator only.
func (c *Client) Runs(ctx context.Context, resonatorID string) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, resonatorID)
}

// Export writes a stored resonator and all of its runs under outDir and
// returns the resonator's artifact directory.
func (c *Client) Export(ctx context.Context, id, outDir string) (string, error) {
	record, err := c.Resonator(ctx, id)
	if err != nil {
		return "", err
	}
	runs, err := c.store.ListRuns(ctx, id)
	if err != nil {
		return "", err
	}
	return stats.WriteResonatorArtifacts(outDir, stats.ResonatorArtifacts{Resonator: record, Runs: runs})
}

func (c *Client) build(record model.ResonatorRecord) (*nn.Network, error) {
	net, err := resonator.New(record.ClockFrequency, c.cfg.Simulation.Amplitude, resonator.Params{
		Freq0:         record.FResonator,
		LeakageFactor: record.LeakageFactor,
		LeakagePeriod: record.LeakagePeriod,
		Thetas:        record.Thetas,
		Weights:       record.Weights,
	})
	if err != nil {
		return nil, fmt.Errorf("build resonator %s: %w", record.ID, err)
	}
	net.SetLogger(c.logger)
	if err := resonator.LogStages(net); err != nil {
		return nil, err
	}
	return net, nil
}

func (c *Client) sweep(ctx context.Context, record model.ResonatorRecord, start, spectrum, stepRatio float64) ([]resonator.Response, error) {
	net, err := c.build(record)
	if err != nil {
		return nil, err
	}
	return c.sweepNetwork(ctx, net, start, spectrum, stepRatio)
}

func (c *Client) sweepNetwork(ctx context.Context, net *nn.Network, start, spectrum, stepRatio float64) ([]resonator.Response, error) {
	step := stepRatio / float64(net.ClockFrequency())
	n := resonator.ChirpLength(spectrum, step)
	if n == 0 {
		return nil, fmt.Errorf("chirp over %v Hz at step %v has no samples", spectrum, step)
	}
	if err := resonator.ChirpResponse(ctx, net, start, step, n); err != nil {
		return nil, err
	}
	return resonator.AnalyzeStages(net, n, c.cfg.Training.SpikesWindow, start, spectrum, resonator.DefaultChirpSkip)
}

func (c *Client) newRun(resonatorID, kind string, net *nn.Network) model.RunRecord {
	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              uuid.NewString(),
		ResonatorID:     resonatorID,
		Kind:            kind,
		Ticks:           net.Ticks(),
		CreatedAt:       c.now().UTC(),
	}
	for _, id := range resonator.StageIDs {
		neuron, err := net.Neuron(id)
		if err != nil {
			continue
		}
		run.SpikeCounts = append(run.SpikeCounts, len(neuron.OutSpikes()))
	}
	return run
}
