package deadline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharsanguruparan/OrderDrop/internal/model"
)

func orderAt(ts model.Timestamp) model.Order {
	return model.Order{OrderID: model.NumericOrderID(1), PrimaryTimestamp: ts}
}

func TestOfBoundaryIsOverdue(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	order := orderAt(model.MillisTimestamp(base.UnixMilli()))

	before := Of(order, base.Add(Window-time.Millisecond))
	assert.Equal(t, int64(1), before.RemainingMs)
	assert.False(t, before.IsOverdue)

	at := Of(order, base.Add(Window))
	assert.Equal(t, int64(0), at.RemainingMs)
	assert.True(t, at.IsOverdue)

	after := Of(order, base.Add(Window+time.Minute))
	assert.Equal(t, int64(-60000), after.RemainingMs)
	assert.True(t, after.IsOverdue)
}

func TestOfWithTextTimestamp(t *testing.T) {
	order := orderAt(model.TextTimestamp("2024-05-01T10:00:00Z"))
	now := time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC)

	got := Of(order, now)
	assert.Equal(t, (20 * time.Minute).Milliseconds(), got.RemainingMs)
	assert.False(t, got.IsOverdue)
}

func TestToMillis(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	cases := []struct {
		name string
		ts   model.Timestamp
		want int64
	}{
		{"absent", model.Timestamp{}, 0},
		{"zero number", model.MillisTimestamp(0), 0},
		{"nan", model.Timestamp{Kind: model.TimestampNumber, Number: math.NaN()}, 0},
		{"number", model.MillisTimestamp(want), want},
		{"rfc3339", model.TextTimestamp("2024-05-01T10:00:00Z"), want},
		{"rfc3339 offset", model.TextTimestamp("2024-05-01T15:30:00+05:30"), want},
		{"millis fraction", model.TextTimestamp("2024-05-01T10:00:00.000Z"), want},
		{"date only is utc", model.TextTimestamp("2024-05-01"), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{"js date string", model.TextTimestamp("Wed May 01 2024 15:30:00 GMT+0530 (India Standard Time)"), want},
		{"empty", model.TextTimestamp(""), 0},
		{"garbage", model.TextTimestamp("not a date"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToMillis(tc.ts))
		})
	}
}

func TestMalformedTimestampIsOverdue(t *testing.T) {
	got := Of(orderAt(model.TextTimestamp("soon")), time.Now())
	assert.True(t, got.IsOverdue)
}

func TestFormatRemaining(t *testing.T) {
	cases := map[int64]string{
		5:         "00:00",
		0:         "00:00",
		-90_000:   "00:00",
		999:       "00:00",
		1_000:     "00:01",
		125_000:   "02:05",
		1_799_999: "29:59",
		3_725_000: "62:05",
	}
	for ms, want := range cases {
		assert.Equal(t, want, FormatRemaining(ms), "ms=%d", ms)
	}
}
