package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/lesson-portal/internal/config"
	"github.com/kirillkom/lesson-portal/internal/observability/logging"
)

var (
	cfg      config.Config
	logLevel string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Operate the lesson portal from the command line",
	Long: `portalctl inspects the document catalog, runs document analyses,
follows the page shown by a flip-book viewer and tails session events.

Configuration is read from the same environment (and .env file) as the API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg = config.Load()
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		slog.SetDefault(logging.New(cmd.ErrOrStderr(), "portalctl", level, "text"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "Timeout for one-shot operations")

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
