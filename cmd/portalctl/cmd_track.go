package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/viewer/rodsurface"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

var trackCmd = &cobra.Command{
	Use:   "track <viewer-url>",
	Short: "Open a viewer in Chrome and print every page change",
	Long: `Loads the viewer URL in a Chrome page (CHROME_DEBUGGER_URL attaches to a
running browser, otherwise one is launched) and prints one JSON line per
distinct page signal until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser, err := rodsurface.Connect(ctx, rodsurface.Config{
		DebuggerURL: cfg.ChromeDebuggerURL,
		Headless:    cfg.ChromeHeadless,
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	surface, err := browser.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer surface.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	tr := tracker.New(surface, tracker.WithTimings(cfg.TrackerLoadDelay, cfg.TrackerPollInterval))
	tr.OnSignal(func(s domain.PageSignal) {
		_ = out.Encode(s)
	})
	if err := tr.Start(ctx); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	defer tr.Stop()

	<-ctx.Done()
	return nil
}
