package cli

import (
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Address string
}

// NewServeCommand runs the HTTP controller.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the queue and upload session over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if opts.Address != "" {
				a.Config.Address = opts.Address
			}
			return a.Server().Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&opts.Address, "addr", "", "listen address (overrides $ORDERDROP_ADDRESS)")
	return cmd
}
