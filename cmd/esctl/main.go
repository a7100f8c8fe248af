package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/go-elastic/cmd/esctl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "esctl",
	Short: "Elasticsearch command-line client",
	Long: `A command-line client for Elasticsearch.

esctl reads cluster information, exports documents through scroll
cursors and manages dangling indices.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.esctl/config.yml)")
	rootCmd.PersistentFlags().StringSliceP("addresses", "a", nil, "Elasticsearch node URLs")
	rootCmd.PersistentFlags().StringP("username", "u", "", "basic auth username")
	rootCmd.PersistentFlags().String("password", "", "basic auth password (prompted when omitted)")
	rootCmd.PersistentFlags().String("api-key", "", "base64-encoded API key")
	rootCmd.PersistentFlags().Duration("timeout", 0, "response header timeout")
	rootCmd.PersistentFlags().Int("retries", 3, "retries per request")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range []string{"config", "addresses", "username", "password", "api-key", "timeout", "retries", "output", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewPingCommand())
	rootCmd.AddCommand(commands.NewScrollCommand())
	rootCmd.AddCommand(commands.NewDanglingCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.esctl/config.yml
		viper.AddConfigPath(filepath.Join(home, ".esctl"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// ESCTL_API_KEY, ESCTL_ADDRESSES, ...
	viper.SetEnvPrefix("ESCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
