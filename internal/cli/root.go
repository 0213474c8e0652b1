// Package cli implements the orderdrop command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/OrderDrop/internal/app"
	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	APIBase    string
	Format     string // "text" | "json"
	Verbose    bool
	Tick       time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "orderdrop",
		Short: "Attach scanned sales-order PDFs to the eligible queue",
		Long: `orderdrop lists sales orders waiting for a document attachment, shows the
30 minute deadline of each one, and uploads PDF proofs for an order's final
stage or one of its additional stages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (default $ORDERDROP_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.APIBase, "api-base", "", "backend endpoint (overrides $ORDERDROP_API_BASE)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().DurationVar(&opts.Tick, "tick", 0, "countdown refresh cadence (overrides $ORDERDROP_TICK)")

	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewAttachCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// build loads configuration with flag overrides and assembles the App. Logs
// go to stderr so stdout stays machine-readable.
func (o *RootOptions) build(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(o.ConfigPath, func(c *config.Config) {
		if o.APIBase != "" {
			c.APIBase = o.APIBase
		}
		if o.Tick > 0 {
			c.Tick = o.Tick
		}
		if o.Verbose {
			c.LogLevel = "debug"
		}
	})
	if err != nil {
		return nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return app.New(cfg, log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
