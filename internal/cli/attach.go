package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/OrderDrop/internal/app"
	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/intake"
	"github.com/dharsanguruparan/OrderDrop/internal/model"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
	"github.com/dharsanguruparan/OrderDrop/internal/session"
	"github.com/dharsanguruparan/OrderDrop/internal/view"
)

// NewAttachCommand groups the two upload modes.
func NewAttachCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Upload PDF proofs for an order",
	}
	cmd.AddCommand(newAttachFinalCommand(rootOpts))
	cmd.AddCommand(newAttachAdditionalCommand(rootOpts))
	return cmd
}

func newAttachFinalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "final <orderId> <file...>",
		Short: "Attach files to the order's final stage",
		Long: `Attach one or more PDFs to the final stage of an eligible order. Files may be
local paths or s3://bucket/key references into the scanner bucket.

Example:
  orderdrop attach final 42 ./so-42.pdf
  orderdrop attach final SO-7 s3://scans/2024/05/so-7.pdf`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(cmd, opts, session.ModeFinal, args[0], "", args[1:])
		},
	}
}

func newAttachAdditionalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "additional <orderId> <url> <file...>",
		Short: "Attach files to one of the order's additional stages",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(cmd, opts, session.ModeAdditional, args[0], args[1], args[2:])
		},
	}
}

type attachReport struct {
	Rejected     []intake.Rejection `json:"rejected"`
	Dialog       view.Dialog        `json:"dialog"`
	Error        string             `json:"error,omitempty"`
	Notification *notify.Message    `json:"notification,omitempty"`
}

func runAttach(cmd *cobra.Command, opts *RootOptions, mode session.Mode, orderID, additionalURL string, files []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := opts.build(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Orders.Load(ctx); err != nil {
		return err
	}
	order, ok := a.Orders.Find(orderID)
	if !ok {
		return fmt.Errorf("order %s is not in the eligible queue", orderID)
	}
	if err := openSession(a, mode, order, additionalURL); err != nil {
		return err
	}

	candidates, err := a.Candidates(ctx, files)
	if err != nil {
		return err
	}
	sizes := make(map[string]int64, len(candidates))
	for _, c := range candidates {
		sizes[c.Name] = c.Size
	}
	res, err := a.Session.AddFiles(candidates)
	if err != nil {
		return err
	}
	if opts.Format == "text" {
		if err := view.WriteDialog(out, view.BuildDialog(a.Session.State()), sizes); err != nil {
			return err
		}
	}

	submitErr := a.Session.Submit(ctx)
	report := attachReport{Rejected: res.Rejected, Dialog: view.BuildDialog(a.Session.State())}
	if report.Rejected == nil {
		report.Rejected = []intake.Rejection{}
	}
	if msg, ok := a.Notifier.Current(); ok {
		report.Notification = &msg
	}
	if submitErr != nil {
		report.Error = apperr.Message(submitErr, session.MsgUploadFailed)
	}

	if opts.Format == "json" {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else if report.Notification != nil {
		mark := "*"
		if report.Notification.Tone == notify.ToneError {
			mark = "x"
		}
		fmt.Fprintf(out, "%s %s\n", mark, report.Notification.Text)
	}
	return submitErr
}

func openSession(a *app.App, mode session.Mode, order model.Order, additionalURL string) error {
	if mode == session.ModeAdditional {
		if !order.Additional.Eligible || !order.Additional.HasURL(additionalURL) {
			return fmt.Errorf("%s is not a pending additional order of %s", additionalURL, order.OrderID)
		}
		return a.Session.OpenAdditional(order, additionalURL)
	}
	if !order.Final.Eligible {
		return fmt.Errorf("final stage of %s is not awaiting an attachment", order.OrderID)
	}
	return a.Session.OpenFinal(order)
}
