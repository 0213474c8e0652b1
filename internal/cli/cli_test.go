package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/view"
)

const queueJSON = `{"ok":true,"data":[
 {"orderId":"SO-9","dealerName":"Late Co","primaryTimestamp":1700000600000,"final":{"eligible":true,"url":"https://docs.example/f/9"}},
 {"orderId":42,"dealerName":"Acme","color":"green","primaryTimestamp":1700000000000,
  "final":{"eligible":true,"url":"https://docs.example/f/42"},
  "additional":{"eligible":true,"urlsPending":["https://docs.example/a/1","https://docs.example/a/2"]}}
]}`

type backend struct {
	mu    sync.Mutex
	posts []map[string]any
	queue string
	reply string
}

func newBackend(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{queue: queueJSON, reply: `{"ok":true}`}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, b.queue)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.posts = append(b.posts, body)
		_, _ = io.WriteString(w, b.reply)
	}))
	t.Cleanup(srv.Close)
	return b, srv.URL
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORDERDROP_API_BASE", "")
	t.Setenv("ORDERDROP_CONFIG", "")
	t.Setenv("ORDERDROP_S3_ENDPOINT", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 scan"), 0o600))
	return path
}

func TestRootFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "api-base", "format", "verbose", "tick"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"queue", "watch", "attach", "serve"} {
		assert.True(t, names[want], want)
	}
}

func TestInvalidFormat(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, "queue", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingAPIBase(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, "queue")
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestQueueText(t *testing.T) {
	isolateEnv(t)
	_, base := newBackend(t)

	out, err := execute(t, "queue", "--api-base", base)
	require.NoError(t, err)
	acme := strings.Index(out, "Acme  [green]  Overdue")
	late := strings.Index(out, "Late Co  [Unknown]  Overdue")
	require.GreaterOrEqual(t, acme, 0, out)
	require.Greater(t, late, acme, "queue must be sorted by primary timestamp")
	assert.Contains(t, out, "Show +1 more")

	out, err = execute(t, "queue", "--api-base", base, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "docs.example/a/2")
}

func TestQueueJSON(t *testing.T) {
	isolateEnv(t)
	_, base := newBackend(t)

	out, err := execute(t, "queue", "--api-base", base, "--format", "json")
	require.NoError(t, err)
	var q view.Queue
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	require.Len(t, q.Cards, 2)
	assert.Equal(t, "42", q.Cards[0].OrderID)
	assert.True(t, q.Cards[0].Overdue)
}

func TestAttachFinal(t *testing.T) {
	isolateEnv(t)
	b, base := newBackend(t)
	pdf := writePDF(t, "so-42.pdf")

	out, err := execute(t, "attach", "final", "42", pdf, "--api-base", base)
	require.NoError(t, err)
	assert.Contains(t, out, "Attach SO for Final Order")
	assert.Contains(t, out, "1 file selected")
	assert.Contains(t, out, "* Uploaded & Updated")

	require.Len(t, b.posts, 1)
	assert.Equal(t, "UPLOAD_FINAL", b.posts[0]["action"])
	assert.Equal(t, float64(42), b.posts[0]["orderId"])
}

func TestAttachAdditionalRejected(t *testing.T) {
	isolateEnv(t)
	b, base := newBackend(t)
	b.reply = `{"ok":false,"error":"Stock mismatch"}`
	pdf := writePDF(t, "annex.pdf")

	out, err := execute(t, "attach", "additional", "42", "https://docs.example/a/2", pdf, "--api-base", base, "--format", "json")
	require.Error(t, err)
	assert.True(t, apperr.IsApplication(err))

	var report attachReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Stock mismatch", report.Error)
	assert.True(t, report.Dialog.Open)
	require.NotNil(t, report.Notification)
	assert.Equal(t, "Stock mismatch", report.Notification.Text)

	require.Len(t, b.posts, 1)
	assert.Equal(t, "https://docs.example/a/2", b.posts[0]["additionalUrl"])
}

func TestAttachGuards(t *testing.T) {
	isolateEnv(t)
	b, base := newBackend(t)
	pdf := writePDF(t, "so.pdf")

	_, err := execute(t, "attach", "final", "nope", pdf, "--api-base", base)
	assert.ErrorContains(t, err, "not in the eligible queue")

	_, err = execute(t, "attach", "additional", "42", "https://docs.example/a/9", pdf, "--api-base", base)
	assert.ErrorContains(t, err, "is not a pending additional order")

	png := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(png, []byte("png"), 0o600))
	out, err := execute(t, "attach", "final", "42", png, "--api-base", base)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, out, "photo.png is not a PDF.")

	_, err = execute(t, "attach", "final", "42", "s3://scans/so.pdf", "--api-base", base)
	assert.Error(t, err)

	assert.Empty(t, b.posts)
}

func TestAttachRefusesIneligibleSlots(t *testing.T) {
	isolateEnv(t)
	b, base := newBackend(t)
	b.queue = `{"ok":true,"data":[{"orderId":"SO-3","primaryTimestamp":1700000000000,
 "final":{"eligible":false},
 "additional":{"eligible":false,"urlsPending":["https://docs.example/a/3"]}}]}`
	pdf := writePDF(t, "so-3.pdf")

	_, err := execute(t, "attach", "final", "SO-3", pdf, "--api-base", base)
	assert.ErrorContains(t, err, "is not awaiting an attachment")

	_, err = execute(t, "attach", "additional", "SO-3", "https://docs.example/a/3", pdf, "--api-base", base)
	assert.ErrorContains(t, err, "is not a pending additional order")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.posts)
}

func TestWatchRendersEachTick(t *testing.T) {
	isolateEnv(t)
	_, base := newBackend(t)

	out, err := execute(t, "watch", "--api-base", base, "--tick", "10ms", "--count", "3", "--clear=false")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "Order ID: 42"))
	assert.NotContains(t, out, clearScreen)
}
