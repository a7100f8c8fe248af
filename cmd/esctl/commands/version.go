package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildVersion is reported in the User-Agent of every request.
var buildVersion = "dev"

// VersionInfo describes the esctl build.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Date    string `json:"date"    yaml:"date"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	buildVersion = version

	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Version: version, Commit: commit, Date: date}
			return render(cmd.OutOrStdout(), viper.GetString("output"), info, func() error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "esctl %s (commit %s, built %s)\n", version, commit, date)
				return err
			})
		},
	}
}
