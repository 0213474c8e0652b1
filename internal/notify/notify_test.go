package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotifyShowsThenExpires(t *testing.T) {
	n := New(20 * time.Millisecond)
	n.Notify("Uploaded & Updated", ToneSuccess)

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Uploaded & Updated", msg.Text)
	assert.Equal(t, ToneSuccess, msg.Tone)

	require.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNewestMessageWins(t *testing.T) {
	n := New(time.Hour)
	defer n.Stop()

	n.Notify("first", ToneSuccess)
	n.Notify("Stock mismatch", ToneError)

	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Stock mismatch", msg.Text)
	assert.Equal(t, ToneError, msg.Tone)
}

func TestEarlierExpiryClearsNewerMessage(t *testing.T) {
	n := New(400 * time.Millisecond)
	defer n.Stop()

	n.Notify("first", ToneSuccess)
	time.Sleep(200 * time.Millisecond)
	n.Notify("second", ToneSuccess)
	msg, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)

	// the first message's timer fires at 400ms and takes "second" with it,
	// well before the second's own expiry at 600ms
	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, 300*time.Millisecond, 5*time.Millisecond)
}

func TestStopCancelsEveryExpiry(t *testing.T) {
	var (
		mu      sync.Mutex
		expired int
	)
	n := New(20*time.Millisecond, WithOnChange(func(m *Message) {
		if m == nil {
			mu.Lock()
			expired++
			mu.Unlock()
		}
	}))
	n.Notify("a", ToneSuccess)
	n.Notify("b", ToneSuccess)
	n.Stop()
	time.Sleep(60 * time.Millisecond)

	_, ok := n.Current()
	assert.False(t, ok)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, expired)
}

func TestEmptyToneDefaultsToSuccess(t *testing.T) {
	n := New(time.Hour)
	defer n.Stop()
	n.Notify("done", "")
	msg, _ := n.Current()
	assert.Equal(t, ToneSuccess, msg.Tone)
}

func TestOnChangeSeesShowAndExpiry(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	n := New(10*time.Millisecond, WithOnChange(func(m *Message) {
		mu.Lock()
		defer mu.Unlock()
		if m == nil {
			events = append(events, "expired")
			return
		}
		events = append(events, m.Text)
	}))

	n.Notify("hello", ToneSuccess)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hello", "expired"}, events)
}

func TestExpiresAtUsesTTL(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	n := New(3*time.Second, WithNow(func() time.Time { return base }))
	defer n.Stop()

	n.Notify("x", ToneError)
	msg, _ := n.Current()
	assert.Equal(t, base.Add(3*time.Second), msg.ExpiresAt)
}
