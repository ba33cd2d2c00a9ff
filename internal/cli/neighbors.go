package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/happyhackingspace/rproj"
	"github.com/spf13/cobra"
)

const snippetLen = 60

func (c *CLI) newNeighborsCommand() *cobra.Command {
	var flags experimentFlags
	var query rproj.NeighborQuery

	cmd := &cobra.Command{
		Use:   "neighbors",
		Short: "Find the training documents closest to a document or a term in the projected space",
		Example: `  # Documents closest to training document 42
  rproj neighbors --doc 42

  # Documents closest to the projection of a vocabulary term
  rproj neighbors --term orbit -k 5 --metric euclidean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("doc") && query.Term != "" {
				return fmt.Errorf("use either --doc or --term")
			}
			slog.Info("Searching neighbours", "doc", query.Doc, "term", query.Term, "k", query.K, "metric", query.Metric)
			result, err := rproj.Neighbors(cfg, query)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "Query: %s", result.Query)
			if result.Category != "" {
				fmt.Fprintf(c.out, " (%s)", result.Category)
			}
			fmt.Fprintf(c.out, "  Components: %d\n", result.Components)
			if len(result.Terms) > 0 {
				fmt.Fprintf(c.out, "Top terms: %s\n", strings.Join(result.Terms, ", "))
			}
			fmt.Fprintln(c.out)

			table := newTable(c.out, []string{"Rank", "Doc", "Category", "Distance", "Text"})
			for i, h := range result.Hits {
				table.Append([]string{
					strconv.Itoa(i + 1),
					strconv.Itoa(h.Doc),
					h.Category,
					fmt.Sprintf("%.4f", h.Distance),
					snippet(h.Text),
				})
			}
			table.Render()
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().IntVar(&query.Doc, "doc", 0, "Training document to query with")
	cmd.Flags().StringVar(&query.Term, "term", "", "Vocabulary term to query with")
	cmd.Flags().IntVarP(&query.K, "k", "k", 10, "Number of neighbours")
	cmd.Flags().StringVar(&query.Metric, "metric", "cosine", "Distance: cosine or euclidean")
	return cmd
}

// snippet flattens whitespace and truncates text for a table cell.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen-3]) + "..."
}
