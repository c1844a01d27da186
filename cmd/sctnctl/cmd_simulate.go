package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sctnet/internal/resonator"
	"sctnet/pkg/sctnet"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate ID",
		Short: "Feed a sine through a stored resonator",
		Long: `Replay a stored resonator against a sine wave and report how many
spikes each stage emitted. The run is stored.

Examples:
  sctnctl simulate f_100 --freq 100
  sctnctl simulate f_100 --freq 140 --cycles 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, _ := cmd.Flags().GetFloat64("freq")
			cycles, _ := cmd.Flags().GetInt("cycles")

			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			run, err := client.Simulate(commandContext(cmd), sctnet.SimulateRequest{
				ResonatorID: args[0],
				Frequency:   freq,
				Cycles:      cycles,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, run)
			}
			fmt.Fprintf(out, "Run %s: %s sine for %s ticks\n", run.ID, hz(run.Frequency), ticks(run.Ticks))
			for i, count := range run.SpikeCounts {
				fmt.Fprintf(out, "  stage %d: %s spikes\n", i+1, ticks(count))
			}
			return nil
		},
	}
	cmd.Flags().Float64("freq", 0, "Input frequency in Hz (required)")
	cmd.Flags().Int("cycles", 0, "Number of input cycles (default 20)")
	_ = cmd.MarkFlagRequired("freq")
	return cmd
}

func newChirpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chirp ID",
		Short: "Sweep a stored resonator with a linear chirp",
		Long: `Feed a linear chirp through a stored resonator and report, for each
stage, the frequency of peak response and its signal-to-noise ratio.

Examples:
  sctnctl chirp f_100
  sctnctl chirp f_100 --start 20 --spectrum 400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetFloat64("start")
			spectrum, _ := cmd.Flags().GetFloat64("spectrum")
			stepRatio, _ := cmd.Flags().GetFloat64("step-ratio")

			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Chirp(commandContext(cmd), sctnet.ChirpRequest{
				ResonatorID: args[0],
				Start:       start,
				Spectrum:    spectrum,
				StepRatio:   stepRatio,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, summary)
			}
			fmt.Fprintf(out, "Run %s: chirp over %s ticks\n", summary.Run.ID, ticks(summary.Run.Ticks))
			printResponses(out, summary.Responses, summary.BestNeuron)
			return nil
		},
	}
	cmd.Flags().Float64("start", 0, "Chirp start frequency in Hz")
	cmd.Flags().Float64("spectrum", 0, "Swept bandwidth in Hz (default twice the resonator frequency)")
	cmd.Flags().Float64("step-ratio", 0, "Sweep rate as ratio/clock Hz per tick (default from config)")
	return cmd
}

func printResponses(w io.Writer, responses []resonator.Response, best int) {
	fmt.Fprintln(w, "Chirp response:")
	for i, r := range responses {
		marker := " "
		if i == best {
			marker = "*"
		}
		fmt.Fprintf(w, " %s neuron %d: peak %s, snr %.3f, %s spikes\n", marker, r.NeuronID, hz(r.Peak), r.SNR, ticks(r.Spikes))
	}
}
