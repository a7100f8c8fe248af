package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/go-elastic"
)

const defaultScrollQuery = `{"query":{"match_all":{}}}`

// NewScrollCommand creates the scroll command.
func NewScrollCommand() *cobra.Command {
	var (
		indices  []string
		query    string
		size     int
		ttl      string
		maxHits  int
		opaqueID string
	)

	cmd := &cobra.Command{
		Use:   "scroll",
		Short: "Export documents through a scroll cursor",
		Long: `Run a query and page through every matching document with a scroll
cursor. The cursor is cleared when the export finishes, fails or is
interrupted.`,
		Example: `  esctl scroll --index logs-* --query '{"query":{"term":{"level":"error"}}}' -o json
  esctl scroll --index logs --max-hits 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(indices) == 0 {
				return ErrIndexRequired
			}

			body := json.RawMessage(query)
			var probe map[string]any
			if err := json.Unmarshal(body, &probe); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			hits, err := scrollHits(cmd.Context(), client, elastic.ScrollParams{
				Index:    indices,
				Body:     body,
				Size:     size,
				Scroll:   ttl,
				OpaqueID: opaqueID,
			}, maxHits)
			if err != nil {
				return err
			}

			return outputHits(cmd, hits)
		},
	}

	cmd.Flags().StringSliceVarP(&indices, "index", "i", nil, "indices to search")
	cmd.Flags().StringVarP(&query, "query", "q", defaultScrollQuery, "query DSL as JSON")
	cmd.Flags().IntVar(&size, "size", 1000, "hits per page")
	cmd.Flags().StringVar(&ttl, "scroll", "5m", "how long the cursor is kept alive between pages")
	cmd.Flags().IntVar(&maxHits, "max-hits", 0, "stop after this many hits (0 for all)")
	cmd.Flags().StringVar(&opaqueID, "opaque-id", "", "X-Opaque-Id sent with every request (random when empty)")

	return cmd
}

// scrollHits drains a scroll into memory, stopping after maxHits when positive.
func scrollHits(ctx context.Context, client *elastic.Client, params elastic.ScrollParams, maxHits int) ([]elastic.Hit, error) {
	it, err := client.NewScroll(params)
	if err != nil {
		return nil, err
	}
	// Also releases the cursor after --max-hits or an interrupt.
	defer it.Close(context.WithoutCancel(ctx))

	seq := it.Hits(ctx)
	if maxHits > 0 {
		seq = elastic.Take(seq, maxHits)
	}

	hits, err := elastic.Collect(seq)
	if err != nil {
		return hits, fmt.Errorf("scroll failed after %d hits: %w", len(hits), err)
	}

	return hits, nil
}

func outputHits(cmd *cobra.Command, hits []elastic.Hit) error {
	w := cmd.OutOrStdout()
	return render(w, viper.GetString("output"), hits, func() error {
		if len(hits) == 0 {
			_, _ = fmt.Fprintln(w, "No hits found")
			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header("Index", "ID", "Score", "Fields")

		for _, hit := range hits {
			score := NotAvailable
			if hit.Score != nil {
				score = strconv.FormatFloat(*hit.Score, 'f', -1, 64)
			}
			_ = table.Append(hit.Index, hit.ID, score, strconv.Itoa(len(hit.Source)))
		}

		if err := table.Render(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "\n%d hits\n", len(hits))
		return nil
	})
}
