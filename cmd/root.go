package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cetus-cli/internal/api"
	"cetus-cli/internal/config"
	"cetus-cli/internal/markers"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cetus",
	Short: "Cetus CLI - A command line interface for the Cetus threat intelligence API",
	Long: `Cetus CLI lets you query DNS records, certificate transparency events and
alert matches from the Cetus security platform, with incremental re-querying
via persisted markers.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(config.InitConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// exitErr reports a failure and terminates. Interrupted runs exit with
// the conventional 130 and are reported distinctly from hard failures.
func exitErr(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted")
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newClient(host, apiKey string) *api.Client {
	if apiKey == "" {
		apiKey = config.GetAPIKey()
	}
	if host == "" {
		host = config.GetHost()
	}
	return api.NewClient(host, apiKey, time.Duration(config.GetTimeout())*time.Second)
}

func markerStore() *markers.Store {
	dir, err := markers.DefaultDir()
	if err != nil {
		exitErr(err)
	}
	return markers.NewStore(dir)
}
