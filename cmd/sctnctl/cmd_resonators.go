package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newResonatorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resonators",
		Aliases: []string{"res"},
		Short:   "Inspect stored resonators",
	}
	cmd.AddCommand(
		newResonatorsListCmd(),
		newResonatorsShowCmd(),
		newResonatorsDeleteCmd(),
	)
	return cmd
}

func newResonatorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored resonators by frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			records, err := client.Resonators(commandContext(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No resonators stored.")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%-16s %14s  mse %10.3f  %s\n", r.ID, hz(r.FResonator), r.MeanMSE, humanize.Time(r.CreatedAt))
			}
			return nil
		},
	}
}

func newResonatorsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a stored resonator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			r, err := client.Resonator(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, r)
			}
			color := colorEnabled(out)
			fmt.Fprintf(out, "ID:          %s\n", r.ID)
			fmt.Fprintf(out, "Target:      %s\n", hz(r.Freq0))
			fmt.Fprintf(out, "Resonator:   %s\n", hz(r.FResonator))
			fmt.Fprintf(out, "Clock:       %s Hz\n", ticks(r.ClockFrequency))
			fmt.Fprintf(out, "Leakage:     lf=%d lp=%d\n", r.LeakageFactor, r.LeakagePeriod)
			fmt.Fprintf(out, "Mean MSE:    %.3f\n", r.MeanMSE)
			if len(r.NeuronMSE) > 0 {
				fmt.Fprintf(out, "Neuron MSE:  %s\n", formatFloats(r.NeuronMSE))
			}
			if len(r.Peaks) > 0 {
				fmt.Fprintf(out, "Peaks:       %s\n", formatFloats(r.Peaks))
				fmt.Fprintf(out, "SNRs:        %s\n", formatFloats(r.SNRs))
				fmt.Fprintf(out, "Best neuron: %d\n", r.BestNeuron)
			}
			fmt.Fprintf(out, "Created:     %s\n", humanize.Time(r.CreatedAt))
			fmt.Fprintln(out, "Thetas:")
			printBars(out, "theta", r.Thetas, color)
			fmt.Fprintln(out, "Weights:")
			printBars(out, "w", r.Weights, color)
			return nil
		},
	}
}

func newResonatorsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a resonator and its runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DeleteResonator(commandContext(cmd), args[0]); err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored simulation and chirp runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resonatorID, _ := cmd.Flags().GetString("resonator")

			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(commandContext(cmd), resonatorID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored.")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(out, "%s  %-12s %-5s %12s ticks  %s\n", run.ID, run.ResonatorID, run.Kind, ticks(run.Ticks), humanize.Time(run.CreatedAt))
			}
			return nil
		},
	}
	cmd.Flags().String("resonator", "", "Only list runs of this resonator")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a resonator and its runs as JSON and CSV files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")

			client, err := openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			dir, err := client.Export(commandContext(cmd), args[0], outDir)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"dir": dir})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], dir)
			return nil
		},
	}
	cmd.Flags().String("out", "exports", "Output directory")
	return cmd
}
