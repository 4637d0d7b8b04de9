// Command metricsd runs the asynchronous metrics engine as a daemon: it
// instruments its own HTTP surface and the Go runtime, serves Prometheus
// and JSON views, and optionally logs every instrument on a schedule.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "metricsd",
		Short:         "Asynchronous metrics daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default: ./config/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(newServeCmd(), newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "metricsd", version)
		},
	}
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics over HTTP until interrupted",
		RunE:  runServe,
	}

	serveCmd.Flags().String("address", "", "HTTP listen address, overrides server.address")
	serveCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error), overrides logging.level")
	_ = viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	_ = viper.BindPFlag("logging.level", serveCmd.Flags().Lookup("log-level"))

	return serveCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
