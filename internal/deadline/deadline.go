// Package deadline computes the attachment countdown of an order. Everything
// here is a pure function of the order and a "now" sample; nothing is cached.
package deadline

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dharsanguruparan/OrderDrop/internal/model"
)

// Window is how long staff have to attach documents, counted from the
// order's primary timestamp.
const Window = 30 * time.Minute

// Remaining is the derived countdown state of one order.
type Remaining struct {
	RemainingMs int64 `json:"remainingMs"`
	IsOverdue   bool  `json:"isOverdue"`
}

// Of returns the countdown for order at now. The boundary counts as overdue.
func Of(order model.Order, now time.Time) Remaining {
	ms := ToMillis(order.PrimaryTimestamp) + Window.Milliseconds() - now.UnixMilli()
	return Remaining{RemainingMs: ms, IsOverdue: ms <= 0}
}

// layouts are tried in order for string timestamps. Layouts without a zone are
// read in local time, date-only values in UTC, matching how browsers parse them.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999Z0700",
		time.RFC1123,
		time.RFC1123Z,
		"Mon Jan 02 2006 15:04:05 GMT-0700",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

	zoneComment = regexp.MustCompile(`\s*\([^)]*\)$`)
)

// ToMillis resolves a timestamp to epoch milliseconds. Absent, zero and
// unparseable values resolve to 0, which makes the order immediately overdue.
func ToMillis(ts model.Timestamp) int64 {
	switch ts.Kind {
	case model.TimestampNumber:
		if math.IsNaN(ts.Number) || math.IsInf(ts.Number, 0) {
			return 0
		}
		return int64(ts.Number)
	case model.TimestampText:
		return parseText(ts.Text)
	default:
		return 0
	}
}

func parseText(s string) int64 {
	s = zoneComment.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return 0
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UnixMilli()
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// FormatRemaining renders ms as MM:SS. Negative values clamp to 00:00 and
// minutes are not capped at 59.
func FormatRemaining(ms int64) string {
	total := ms / 1000
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
