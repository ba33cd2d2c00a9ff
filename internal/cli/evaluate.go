package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/happyhackingspace/rproj"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var flags experimentFlags
	var noConfusion bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the experiment and print per-class metrics and confusion matrices",
		Example: `  rproj evaluate --data-folder data
  rproj evaluate --arms projected --no-confusion`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "data-folder", cfg.DataFolder, "arms", cfg.Arms)
			start := time.Now()
			result, err := rproj.Run(cfg)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			printSummary(c.out, result)
			for _, arm := range arms(result) {
				fmt.Fprintf(c.out, "\n== %s (%d inputs): accuracy %.1f%% (%d/%d), macro F1 %.1f%%\n",
					arm.Name, arm.Inputs, arm.Accuracy*100, arm.Correct, arm.Total, arm.MacroF1*100)
				printClassReport(c.out, arm, result.Categories)
				if !noConfusion {
					printConfusionMatrix(c.out, arm.Confusion, result.Categories)
				}
			}
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&noConfusion, "no-confusion", false, "Skip the confusion matrices")
	return cmd
}

func printClassReport(w io.Writer, arm *rproj.ArmResult, classes []string) {
	fmt.Fprintf(w, "\nPer-class metrics:\n")
	fmt.Fprintf(w, "%3s %-26s  %6s  %6s  %6s  %7s\n", "id", "class", "prec", "recall", "f1", "support")
	for c, name := range classes {
		support := 0
		for _, v := range arm.Confusion[c] {
			support += v
		}
		fmt.Fprintf(w, "%3d %-26s  %5.1f%%  %5.1f%%  %5.1f%%  %7d\n",
			c, name, arm.Precision[c]*100, arm.Recall[c]*100, arm.F1[c]*100, support)
	}
}

// printConfusionMatrix prints rows=true, cols=predicted, with classes
// referred to by id to keep the columns narrow.
func printConfusionMatrix(w io.Writer, confusion [][]int, classes []string) {
	if len(confusion) == 0 {
		return
	}

	fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	fmt.Fprintf(w, "%4s", "")
	for c := range classes {
		fmt.Fprintf(w, " %4d", c)
	}
	fmt.Fprintf(w, "  total  acc%%\n")

	for trueClass := range classes {
		fmt.Fprintf(w, "%4d", trueClass)
		total := 0
		correct := 0
		for predClass := range classes {
			count := confusion[trueClass][predClass]
			total += count
			if trueClass == predClass {
				correct = count
			}
			if count == 0 {
				fmt.Fprintf(w, " %4s", ".")
			} else {
				fmt.Fprintf(w, " %4d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(correct) / float64(total) * 100
		}
		fmt.Fprintf(w, "  %5d %5.1f\n", total, acc)
	}
}
