package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/happyhackingspace/rproj/internal/storage"
	"github.com/happyhackingspace/rproj/projection"
	"github.com/spf13/cobra"
)

func (c *CLI) newMinDimCommand() *cobra.Command {
	var samples int
	var eps []float64
	var dataFolder, format string

	cmd := &cobra.Command{
		Use:   "mindim",
		Short: "Print the number of projected dimensions needed for a distortion bound",
		Example: `  # Reference corpus size
  rproj mindim --samples 11314 --eps 0.1

  # Several bounds at once
  rproj mindim --samples 11314 --eps 0.05,0.1,0.2,0.3

  # Count the training documents of a corpus
  rproj mindim --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if samples == 0 {
				corpus, err := storage.NewStorage(dataFolder).Load(storage.LoadOptions{Format: format})
				if err != nil {
					return err
				}
				samples = corpus.Train.Len()
				slog.Debug("Counted training documents", "data-folder", dataFolder, "samples", samples)
			}

			fmt.Fprintf(c.out, "Samples: %d\n\n", samples)
			table := newTable(c.out, []string{"Epsilon", "Min dim", "Strict bound"})
			for _, e := range eps {
				loose, err := projection.MinDim(samples, e)
				if err != nil {
					return err
				}
				strict, err := projection.MinDimStrict(samples, e)
				if err != nil {
					return err
				}
				table.Append([]string{strconv.FormatFloat(e, 'g', -1, 64), strconv.Itoa(loose), strconv.Itoa(strict)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "Number of documents (0 counts the training split)")
	cmd.Flags().Float64SliceVar(&eps, "eps", []float64{0.1}, "Target relative distortions")
	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to the corpus folder")
	cmd.Flags().StringVar(&format, "format", storage.FormatJSON, "Corpus layout: json or bydate")
	return cmd
}
