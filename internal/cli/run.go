package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/happyhackingspace/rproj"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCommand() *cobra.Command {
	var flags experimentFlags
	var history bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train the classifier on projected and full TF-IDF vectors and compare accuracy",
		Example: `  # Reference run: eps 0.1, 12 epochs, both arms
  rproj run --data-folder data

  # Read the 20news-bydate directories and strip headers, footers and quotes
  rproj run --format bydate --remove headers,footers,quotes

  # Reproducible run of the projected arm only
  rproj run --arms projected --seed 42

  # Per-epoch metrics table
  rproj run --history

  # Settings from a YAML file, overridden by a flag
  rproj run --config rproj.yaml --epochs 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			slog.Info("Running experiment", "data-folder", cfg.DataFolder, "eps", cfg.Epsilon, "arms", cfg.Arms)
			start := time.Now()
			result, err := rproj.Run(cfg)
			if err != nil {
				return err
			}
			slog.Debug("Experiment completed", "duration", time.Since(start))

			printSummary(c.out, result)
			if history {
				for _, arm := range arms(result) {
					printHistory(c.out, arm)
				}
			}
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&history, "history", false, "Print per-epoch metrics")
	return cmd
}

func arms(result *rproj.Result) []*rproj.ArmResult {
	var out []*rproj.ArmResult
	for _, arm := range []*rproj.ArmResult{result.Projected, result.Full} {
		if arm != nil {
			out = append(out, arm)
		}
	}
	return out
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func printSummary(w io.Writer, result *rproj.Result) {
	fmt.Fprintf(w, "Train documents: %d  Test documents: %d  Vocabulary: %d\n",
		result.Train, result.Test, result.Vocabulary)
	fmt.Fprintf(w, "Minimum dimension: %d  Components: %d  Density: %.5f\n\n",
		result.MinDim, result.Components, result.Density)

	table := newTable(w, []string{"Arm", "Inputs", "Accuracy", "Correct", "Test loss", "Macro F1", "Time"})
	for _, arm := range arms(result) {
		table.Append([]string{
			arm.Name,
			strconv.Itoa(arm.Inputs),
			fmt.Sprintf("%.2f%%", arm.Accuracy*100),
			fmt.Sprintf("%d/%d", arm.Correct, arm.Total),
			fmt.Sprintf("%.4f", arm.Loss),
			fmt.Sprintf("%.2f%%", arm.MacroF1*100),
			arm.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}

func printHistory(w io.Writer, arm *rproj.ArmResult) {
	fmt.Fprintf(w, "\nEpochs (%s):\n", arm.Name)
	table := newTable(w, []string{"Epoch", "Train loss", "Test loss", "Test accuracy"})
	for _, s := range arm.History {
		table.Append([]string{
			strconv.Itoa(s.Epoch),
			fmt.Sprintf("%.4f", s.TrainLoss),
			fmt.Sprintf("%.4f", s.TestLoss),
			fmt.Sprintf("%.2f%%", s.TestAccuracy*100),
		})
	}
	table.Render()
}
