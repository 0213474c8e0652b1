package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dharsanguruparan/OrderDrop/internal/notify"
)

// TextOptions tune the plain-text renderer.
type TextOptions struct {
	// ShowAllAdditional lists every pending additional slot instead of the
	// first one plus a "Show +N more" hint.
	ShowAllAdditional bool
}

// WriteQueue renders q for a terminal.
func WriteQueue(w io.Writer, q Queue, opts TextOptions) error {
	bw := &errWriter{w: w}
	if q.Notification != nil {
		bw.printf("%s %s\n", toneMark(q.Notification.Tone), q.Notification.Text)
	}
	if q.Banner != "" {
		bw.printf("! %s\n", q.Banner)
	}
	if q.Empty != "" {
		bw.printf("%s\n", q.Empty)
		return bw.err
	}
	for i, c := range q.Cards {
		if i > 0 {
			bw.printf("\n")
		}
		writeCard(bw, c, opts)
	}
	return bw.err
}

func writeCard(bw *errWriter, c Card, opts TextOptions) {
	timer := c.Countdown
	if c.Overdue {
		timer = "Overdue"
	}
	bw.printf("%s  [%s]  %s\n", c.Dealer, c.ColorLabel, timer)
	bw.printf("  Order ID: %s\n", c.OrderID)

	tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Location\t%s\n", c.Location)
	fmt.Fprintf(tw, "  Marketing\t%s\n", c.MarketingPerson)
	fmt.Fprintf(tw, "  CRM\t%s\n", c.CRM)
	fmt.Fprintf(tw, "  Concerned Owner\t%s\n", c.ConcernedOwner)
	_ = tw.Flush()

	if c.Final != nil {
		bw.printf("  Final Order: %s\n", orDash(c.Final.URL))
	}
	if len(c.Additional) > 0 {
		bw.printf("  Additional Orders:\n")
		visible := c.Additional
		if !opts.ShowAllAdditional && len(visible) > 1 {
			visible = visible[:1]
		}
		for _, slot := range visible {
			bw.printf("    - %s (%s)\n", slot.Label, slot.URL)
		}
		if hidden := len(c.Additional) - len(visible); hidden > 0 {
			bw.printf("    Show +%d more\n", hidden)
		}
	}
	if len(c.Returned) > 0 {
		bw.printf("  Returned:\n")
		for _, r := range c.Returned {
			bw.printf("    - %s: %s\n", r.Label, orDash(r.Remark))
		}
	}
}

// WriteDialog renders the upload session. sizes maps file names to byte
// counts when known.
func WriteDialog(w io.Writer, d Dialog, sizes map[string]int64) error {
	bw := &errWriter{w: w}
	if !d.Open {
		bw.printf("No upload in progress.\n")
		return bw.err
	}
	bw.printf("%s\n", d.Title)
	if d.Subtitle != "" {
		bw.printf("%s\n", d.Subtitle)
	}
	bw.printf("Order ID: %s\n", d.OrderID)
	bw.printf("%s\n", d.FileLabel)
	for i, name := range d.Files {
		if n, ok := sizes[name]; ok {
			bw.printf("  %d. %s (%s)\n", i+1, name, humanize.IBytes(uint64(n)))
			continue
		}
		bw.printf("  %d. %s\n", i+1, name)
	}
	if d.Error != "" {
		bw.printf("! %s\n", d.Error)
	}
	if d.Submitting {
		bw.printf("Uploading...\n")
	}
	return bw.err
}

func toneMark(t notify.Tone) string {
	if t == notify.ToneError {
		return "x"
	}
	return "*"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// errWriter keeps the first write error so render code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e, format, args...)
}
