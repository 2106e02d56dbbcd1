package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	eventsnats "github.com/kirillkom/lesson-portal/internal/infrastructure/events/nats"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print page-signal and analysis events published over NATS",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := eventsnats.New(cfg.NATSURL, cfg.NATSSubjectPrefix)
	if err != nil {
		return err
	}
	defer sub.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	return sub.Subscribe(ctx, func(_ context.Context, ev eventsnats.Event) error {
		return out.Encode(ev)
	})
}
