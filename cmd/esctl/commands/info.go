package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/go-elastic"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display cluster information",
		Long:  "Display the name, version and tagline reported by the cluster's root endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			resp, err := client.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cluster info: %w", err)
			}

			var info elastic.InfoResult
			if err := resp.AsObject(&info); err != nil {
				return fmt.Errorf("failed to read cluster info: %w", err)
			}

			w := cmd.OutOrStdout()
			return render(w, viper.GetString("output"), info, func() error {
				table := tablewriter.NewWriter(w)
				table.Header("Property", "Value")

				_ = table.Append("Node", valueOrNA(info.Name))
				_ = table.Append("Cluster", valueOrNA(info.ClusterName))
				_ = table.Append("Cluster UUID", valueOrNA(info.ClusterUUID))
				_ = table.Append("Version", valueOrNA(info.Version.Number))
				_ = table.Append("Build Flavor", valueOrNA(info.Version.BuildFlavor))
				_ = table.Append("Lucene", valueOrNA(info.Version.LuceneVersion))
				_ = table.Append("Tagline", valueOrNA(info.Tagline))

				return table.Render()
			})
		},
	}
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the cluster is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			ok, err := client.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to ping cluster: %w", err)
			}
			if !ok {
				return ErrClusterNotReachable
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}
