package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/go-elastic"
)

// DanglingIndex is one entry of the dangling indices listing.
type DanglingIndex struct {
	IndexName          string   `json:"index_name" yaml:"index_name"`
	IndexUUID          string   `json:"index_uuid" yaml:"index_uuid"`
	CreationDateMillis int64    `json:"creation_date_millis" yaml:"creation_date_millis"`
	NodeIDs            []string `json:"node_ids" yaml:"node_ids"`
}

type danglingList struct {
	DanglingIndices []DanglingIndex `json:"dangling_indices"`
}

// NewDanglingCommand creates the dangling command group.
func NewDanglingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dangling",
		Short: "Manage dangling indices",
		Long:  "List, import and delete index data found on disk that is not part of the cluster metadata",
	}

	cmd.AddCommand(newDanglingListCommand())
	cmd.AddCommand(newDanglingImportCommand())
	cmd.AddCommand(newDanglingDeleteCommand())

	return cmd
}

func newDanglingListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List dangling indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			resp, err := client.DanglingIndices.List(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to list dangling indices: %w", err)
			}

			var list danglingList
			if err := resp.AsObject(&list); err != nil {
				return fmt.Errorf("failed to read dangling indices: %w", err)
			}

			return outputDangling(cmd, list.DanglingIndices)
		},
	}
}

func outputDangling(cmd *cobra.Command, indices []DanglingIndex) error {
	w := cmd.OutOrStdout()
	return render(w, viper.GetString("output"), indices, func() error {
		if len(indices) == 0 {
			_, _ = fmt.Fprintln(w, "No dangling indices found")
			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header("Name", "UUID", "Created", "Nodes")

		for _, idx := range indices {
			created := NotAvailable
			if idx.CreationDateMillis > 0 {
				created = time.UnixMilli(idx.CreationDateMillis).UTC().Format("2006-01-02 15:04:05")
			}
			_ = table.Append(idx.IndexName, idx.IndexUUID, created, strings.Join(idx.NodeIDs, ", "))
		}

		return table.Render()
	})
}

func newDanglingImportCommand() *cobra.Command {
	return newDanglingActionCommand("import", "Import a dangling index into the cluster", "imported",
		func(s elastic.DanglingIndicesService) danglingAction { return s.Import })
}

func newDanglingDeleteCommand() *cobra.Command {
	return newDanglingActionCommand("delete", "Delete a dangling index from disk", "deleted",
		func(s elastic.DanglingIndicesService) danglingAction { return s.Delete })
}

type danglingAction func(ctx context.Context, indexUUID string, params *elastic.DanglingIndexParams, opts ...elastic.RequestOption) (*elastic.Response, error)

func newDanglingActionCommand(use, short, done string, pick func(elastic.DanglingIndicesService) danglingAction) *cobra.Command {
	var (
		acceptDataLoss bool
		timeout        string
	)

	cmd := &cobra.Command{
		Use:   use + " INDEX_UUID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			action := pick(client.DanglingIndices)
			_, err = action(cmd.Context(), args[0], &elastic.DanglingIndexParams{
				AcceptDataLoss: acceptDataLoss,
				Timeout:        timeout,
			})
			if err != nil {
				return fmt.Errorf("failed to %s dangling index %s: %w", use, args[0], err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dangling index %s %s\n", args[0], done)
			return nil
		},
	}

	cmd.Flags().BoolVar(&acceptDataLoss, "accept-data-loss", false, "acknowledge that the operation may lose data (required)")
	cmd.Flags().StringVar(&timeout, "timeout", "", "how long to wait for the cluster to acknowledge")

	return cmd
}
