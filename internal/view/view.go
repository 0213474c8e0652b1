// Package view projects the order store, session and notifier into the
// values a screen shows. Deadlines are computed here from a clock sample and
// never stored.
package view

import (
	"strings"
	"time"

	"github.com/dharsanguruparan/OrderDrop/internal/deadline"
	"github.com/dharsanguruparan/OrderDrop/internal/model"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
	"github.com/dharsanguruparan/OrderDrop/internal/session"
	"github.com/dharsanguruparan/OrderDrop/internal/store"
)

const (
	EmptyLoading = "Loading eligible orders..."
	EmptyNone    = "No eligible orders right now."
)

// Queue is the whole order list screen.
type Queue struct {
	Banner       string          `json:"banner,omitempty"`
	Empty        string          `json:"empty,omitempty"`
	Notification *notify.Message `json:"notification,omitempty"`
	Cards        []Card          `json:"cards"`
}

// Card is one order with its deadline applied.
type Card struct {
	OrderID         string           `json:"orderId"`
	Dealer          string           `json:"dealer"`
	ColorLabel      string           `json:"colorLabel"`
	ColorCategory   model.Category   `json:"colorCategory"`
	Location        string           `json:"location"`
	MarketingPerson string           `json:"marketingPerson"`
	CRM             string           `json:"crm"`
	ConcernedOwner  string           `json:"concernedOwner"`
	RemainingMs     int64            `json:"remainingMs"`
	Overdue         bool             `json:"overdue"`
	Countdown       string           `json:"countdown"`
	Final           *FinalAction     `json:"final,omitempty"`
	Additional      []SlotAction     `json:"additional,omitempty"`
	Returned        []ReturnedRemark `json:"returned,omitempty"`
}

// FinalAction is the final-stage attach button and its document link.
type FinalAction struct {
	URL string `json:"url"`
}

// SlotAction is one pending additional-stage slot.
type SlotAction struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// ReturnedRemark is a stage sent back by review.
type ReturnedRemark struct {
	Label  string `json:"label"`
	URL    string `json:"url,omitempty"`
	Remark string `json:"remark"`
}

// BuildQueue renders a store snapshot at now. The loading message wins over
// the list, matching what the user sees while a reload is in flight.
func BuildQueue(snap store.Snapshot, now time.Time, msg *notify.Message) Queue {
	q := Queue{Banner: snap.Error, Notification: msg, Cards: []Card{}}
	switch {
	case snap.Loading:
		q.Empty = EmptyLoading
	case len(snap.Orders) == 0:
		q.Empty = EmptyNone
	default:
		for _, o := range snap.Orders {
			q.Cards = append(q.Cards, BuildCard(o, now))
		}
	}
	return q
}

// BuildCard applies the deadline model to order at now.
func BuildCard(o model.Order, now time.Time) Card {
	rem := deadline.Of(o, now)
	c := Card{
		OrderID:         o.OrderID.String(),
		Dealer:          orDefault(o.DealerName, "Dealer"),
		ColorLabel:      o.Color.Label(),
		ColorCategory:   o.Color.Category(),
		Location:        orDefault(o.Location, "-"),
		MarketingPerson: orDefault(o.MarketingPerson, "-"),
		CRM:             orDefault(o.CRM, "-"),
		ConcernedOwner:  orDefault(o.ConcernedOwner, "-"),
		RemainingMs:     rem.RemainingMs,
		Overdue:         rem.IsOverdue,
		Countdown:       deadline.FormatRemaining(rem.RemainingMs),
	}
	if o.Final.Eligible {
		c.Final = &FinalAction{URL: o.Final.URL}
	}
	if o.Additional.Eligible {
		for _, u := range o.Additional.URLsPending {
			c.Additional = append(c.Additional, SlotAction{URL: u, Label: session.URLLabel(u)})
		}
	}
	for _, seg := range o.ReturnedSegments {
		c.Returned = append(c.Returned, ReturnedRemark{
			Label:  seg.Label(),
			URL:    seg.SegmentURL,
			Remark: strings.TrimSpace(string(seg.Remark)),
		})
	}
	return c
}

func orDefault(t model.Text, def string) string {
	if s := strings.TrimSpace(string(t)); s != "" {
		return s
	}
	return def
}

// Dialog is the upload session as a screen.
type Dialog struct {
	Open          bool     `json:"open"`
	Title         string   `json:"title,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	OrderID       string   `json:"orderId,omitempty"`
	Files         []string `json:"files"`
	FileLabel     string   `json:"fileLabel"`
	Error         string   `json:"error,omitempty"`
	Submitting    bool     `json:"submitting"`
	SubmitEnabled bool     `json:"submitEnabled"`
}

// BuildDialog maps a session state onto the dialog.
func BuildDialog(st session.State) Dialog {
	d := Dialog{
		Open:       st.Phase != session.PhaseClosed,
		Title:      st.Title,
		Subtitle:   st.Subtitle,
		Files:      make([]string, 0, len(st.Files)),
		FileLabel:  st.FileLabel,
		Error:      st.Error,
		Submitting: st.Submitting(),
	}
	if st.Order != nil {
		d.OrderID = st.Order.OrderID.String()
	}
	for _, f := range st.Files {
		d.Files = append(d.Files, f.Name)
	}
	d.SubmitEnabled = d.Open && !d.Submitting
	return d
}
