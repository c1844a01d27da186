package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sctnet/pkg/sctnet"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train FREQ0",
		Short: "Search for resonator parameters tuned to FREQ0 Hz",
		Long: `Train a four-stage resonator so each stage tracks a phase-shifted
copy of a FREQ0 Hz sine, then chirp-sweep the result and store it.

Examples:
  sctnctl train 100
  sctnctl train 250 --lf 5 --id low-band --skip-chirp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq0, err := strconv.ParseFloat(args[0], 64)
			if err != nil || freq0 <= 0 {
				return fmt.Errorf("invalid frequency %q", args[0])
			}
			id, _ := cmd.Flags().GetString("id")
			lf, _ := cmd.Flags().GetInt("lf")
			phase, _ := cmd.Flags().GetInt("phase")
			skipChirp, _ := cmd.Flags().GetBool("skip-chirp")
			thetas, _ := cmd.Flags().GetFloat64Slice("thetas")
			weights, _ := cmd.Flags().GetFloat64Slice("weights")
			artifacts, _ := cmd.Flags().GetString("artifacts")

			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Train(commandContext(cmd), sctnet.TrainRequest{
				ID:            id,
				Freq0:         freq0,
				LeakageFactor: lf,
				Phase:         phase,
				Thetas:        thetas,
				Weights:       weights,
				SkipChirp:     skipChirp,
				ArtifactsDir:  artifacts,
			})
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, summary)
			}

			r := summary.Resonator
			color := colorEnabled(out)
			fmt.Fprintf(out, "Trained %s: target %s, resonator %s (lf=%d lp=%d)\n", r.ID, hz(r.Freq0), hz(r.FResonator), r.LeakageFactor, r.LeakagePeriod)
			fmt.Fprintf(out, "Epochs: %d in %d round(s), %d improvement(s), mean MSE %.3f\n",
				summary.Report.EpochsRun, summary.Report.RoundsRun, summary.Report.Improvements, r.MeanMSE)
			fmt.Fprintln(out, "Thetas:")
			printBars(out, "theta", r.Thetas, color)
			fmt.Fprintln(out, "Weights:")
			printBars(out, "w", r.Weights, color)
			if len(summary.Responses) > 0 {
				printResponses(out, summary.Responses, r.BestNeuron)
			}
			return nil
		},
	}

	cmd.Flags().String("id", "", "Resonator id (default f_<freq0>)")
	cmd.Flags().Int("lf", 0, "Leakage factor (default from config)")
	cmd.Flags().Int("phase", 0, "Input cycle to score (default from config)")
	cmd.Flags().Float64Slice("thetas", nil, "Initial thresholds, one per stage")
	cmd.Flags().Float64Slice("weights", nil, "Initial weights, five values")
	cmd.Flags().Bool("skip-chirp", false, "Store without the chirp sweep")
	cmd.Flags().String("artifacts", "", "Also write JSON and CSV results under this directory")
	return cmd
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, ", ")
}
