package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/OrderDrop/internal/app"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
	"github.com/dharsanguruparan/OrderDrop/internal/view"
)

const clearScreen = "\033[H\033[2J"

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Refresh time.Duration
	Count   int
	Clear   bool
	All     bool
}

// NewWatchCommand re-renders the queue on every clock tick.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live countdown of the eligible queue",
		Long: `Render the queue once per tick until interrupted. The order list itself is
only fetched at start and, with --refresh, on that interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return watch(cmd.Context(), a, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().DurationVar(&opts.Refresh, "refresh", 0, "reload the queue on this interval (0 disables)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many renders (0 runs until interrupted)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", true, "clear the terminal between renders")
	cmd.Flags().BoolVar(&opts.All, "all", false, "list every pending additional order")
	return cmd
}

func watch(ctx context.Context, a *app.App, out io.Writer, opts *WatchOptions) error {
	if _, err := a.Orders.Load(ctx); err != nil {
		a.Logger.Warn("initial load failed", slog.Any("error", err))
	}

	ticks, cancel := a.Clock.Subscribe()
	defer cancel()

	var refresh <-chan time.Time
	if opts.Refresh > 0 {
		t := time.NewTicker(opts.Refresh)
		defer t.Stop()
		refresh = t.C
	}

	render := func(now time.Time) error {
		var note *notify.Message
		if msg, ok := a.Notifier.Current(); ok {
			note = &msg
		}
		q := view.BuildQueue(a.Orders.Snapshot(), now, note)
		if opts.Format == "json" {
			return writeJSON(out, q)
		}
		if opts.Clear {
			if _, err := io.WriteString(out, clearScreen); err != nil {
				return err
			}
		}
		if err := view.WriteQueue(out, q, view.TextOptions{ShowAllAdditional: opts.All}); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "\n%s\n", now.Format(time.TimeOnly))
		return err
	}

	renders := 0
	if err := render(a.Clock.Latest()); err != nil {
		return err
	}
	renders++
	for opts.Count == 0 || renders < opts.Count {
		select {
		case <-ctx.Done():
			return nil
		case now, ok := <-ticks:
			if !ok {
				return nil
			}
			if err := render(now); err != nil {
				return err
			}
			renders++
		case <-refresh:
			if _, err := a.Orders.Load(ctx); err != nil {
				a.Logger.Warn("refresh failed", slog.Any("error", err))
			}
		}
	}
	return nil
}
