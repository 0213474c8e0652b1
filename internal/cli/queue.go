package cli

import (
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/OrderDrop/internal/view"
)

// QueueOptions holds flags for the queue command.
type QueueOptions struct {
	*RootOptions
	All bool
}

// NewQueueCommand prints the eligible queue once.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Print the eligible orders with their deadlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			_, loadErr := a.Orders.Load(cmd.Context())
			q := view.BuildQueue(a.Orders.Snapshot(), a.Clock.Latest(), nil)
			if opts.Format == "json" {
				if err := writeJSON(cmd.OutOrStdout(), q); err != nil {
					return err
				}
			} else if err := view.WriteQueue(cmd.OutOrStdout(), q, view.TextOptions{ShowAllAdditional: opts.All}); err != nil {
				return err
			}
			return loadErr
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "list every pending additional order")
	return cmd
}
