// Package session implements the upload session: at most one open attachment
// dialog that collects files for a single order slot and submits them once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/intake"
	"github.com/dharsanguruparan/OrderDrop/internal/model"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
)

// Phase is the lifecycle position of the session.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhaseOpen       Phase = "open"
	PhaseSubmitting Phase = "submitting"
)

// Mode selects which slot of the order receives the upload.
type Mode string

const (
	ModeFinal      Mode = "final"
	ModeAdditional Mode = "additional"
)

const (
	MsgSelectFile   = "Please select at least one PDF."
	MsgNoValidFiles = "No valid PDF files found."
	MsgUploaded     = "Uploaded & Updated"
	MsgUploadFailed = "Upload failed."
)

var (
	// ErrNotOpen is returned by operations that need an open session.
	ErrNotOpen = errors.New("no upload session is open")
	// ErrAlreadyOpen is returned when opening while another session exists.
	ErrAlreadyOpen = errors.New("an upload session is already open")
	// ErrSubmitting is returned while a submit is in flight.
	ErrSubmitting = errors.New("upload already in progress")
)

// Uploader sends encoded files to the backend.
type Uploader interface {
	UploadFinal(ctx context.Context, orderID model.OrderID, files []model.EncodedFile) error
	UploadAdditional(ctx context.Context, orderID model.OrderID, additionalURL string, files []model.EncodedFile) error
}

// Reloader refreshes the order list after a successful upload.
type Reloader interface {
	Load(ctx context.Context) ([]model.Order, error)
}

// Notifier shows transient feedback.
type Notifier interface {
	Notify(message string, tone notify.Tone)
}

// State is a copy of the session as seen by a renderer.
type State struct {
	ID            string             `json:"id,omitempty"`
	Phase         Phase              `json:"phase"`
	Mode          Mode               `json:"mode,omitempty"`
	Order         *model.Order       `json:"order,omitempty"`
	AdditionalURL string             `json:"additionalUrl,omitempty"`
	Files         []intake.Candidate `json:"files"`
	FileLabel     string             `json:"fileLabel"`
	Error         string             `json:"error,omitempty"`
	Title         string             `json:"title,omitempty"`
	Subtitle      string             `json:"subtitle,omitempty"`
}

// Submitting reports whether a submit is in flight.
func (s State) Submitting() bool { return s.Phase == PhaseSubmitting }

// Controller owns the single upload session. All methods are safe for
// concurrent callers; the mutex is never held across I/O.
type Controller struct {
	pipeline *intake.Pipeline
	uploader Uploader
	reloader Reloader
	notifier Notifier
	logger   *slog.Logger

	mu            sync.Mutex
	id            string
	phase         Phase
	mode          Mode
	order         model.Order
	additionalURL string
	selection     intake.Selection
	errMsg        string
}

// New constructs a Controller in the Closed phase.
func New(pipeline *intake.Pipeline, uploader Uploader, reloader Reloader, notifier Notifier, logger *slog.Logger) *Controller {
	if pipeline == nil {
		pipeline = intake.New(0, 0, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		pipeline: pipeline,
		uploader: uploader,
		reloader: reloader,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "session")),
		phase:    PhaseClosed,
	}
}

// OpenFinal opens a session targeting the order's final slot.
func (c *Controller) OpenFinal(order model.Order) error {
	return c.open(order, ModeFinal, "")
}

// OpenAdditional opens a session targeting the additional slot keyed by url.
func (c *Controller) OpenAdditional(order model.Order, additionalURL string) error {
	return c.open(order, ModeAdditional, additionalURL)
}

func (c *Controller) open(order model.Order, mode Mode, additionalURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseOpen:
		return ErrAlreadyOpen
	}
	c.id = uuid.NewString()
	c.phase = PhaseOpen
	c.mode = mode
	c.order = order
	c.additionalURL = additionalURL
	c.selection.Clear()
	c.errMsg = ""
	c.logger.Info("session opened",
		slog.String("session", c.id),
		slog.String("order", order.OrderID.String()),
		slog.String("mode", string(mode)),
	)
	return nil
}

// AddFiles validates candidates and appends the accepted ones to the
// selection. The inline error is replaced by this batch's rejections, or
// cleared when there were none.
func (c *Controller) AddFiles(candidates []intake.Candidate) (intake.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOpen(); err != nil {
		return intake.Result{}, err
	}
	if len(candidates) == 0 {
		return intake.Result{}, nil
	}
	res := c.pipeline.Validate(candidates)
	c.errMsg = res.ErrorText()
	c.selection.Add(res.Accepted...)
	return res, nil
}

// RemoveFile drops the selected file at index i.
func (c *Controller) RemoveFile(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireOpen(); err != nil {
		return err
	}
	if !c.selection.Remove(i) {
		return fmt.Errorf("no selected file at index %d", i)
	}
	return nil
}

// Close discards the session. It is a no-op while a submit is in flight and
// when nothing is open.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOpen {
		return
	}
	c.logger.Info("session closed", slog.String("session", c.id))
	c.reset()
}

// Submit encodes the selection and sends it to the backend in one request.
// It returns once the session is back in Closed (success) or Open (any failure).
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireOpen(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.selection.Len() == 0 {
		c.errMsg = MsgSelectFile
		c.mu.Unlock()
		return &apperr.ValidationError{Message: MsgSelectFile}
	}
	c.phase = PhaseSubmitting
	c.errMsg = ""
	id, mode, order, additionalURL := c.id, c.mode, c.order, c.additionalURL
	files := c.selection.Files()
	c.mu.Unlock()

	log := c.logger.With(slog.String("session", id), slog.String("order", order.OrderID.String()))

	batch := c.pipeline.Encode(ctx, files)
	if len(batch) == 0 {
		c.mu.Lock()
		c.phase = PhaseOpen
		c.errMsg = MsgNoValidFiles
		c.mu.Unlock()
		log.Warn("nothing to upload after encoding", slog.Int("selected", len(files)))
		return &apperr.ValidationError{Message: MsgNoValidFiles}
	}

	payload := intake.Files(batch)
	var err error
	switch mode {
	case ModeAdditional:
		err = c.uploader.UploadAdditional(ctx, order.OrderID, additionalURL, payload)
	default:
		err = c.uploader.UploadFinal(ctx, order.OrderID, payload)
	}
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseOpen
		c.selection.Clear()
		c.mu.Unlock()
		msg := apperr.Message(err, MsgUploadFailed)
		log.Warn("upload failed", slog.String("error", msg), slog.Any("cause", errors.Unwrap(err)))
		c.notify(msg, notify.ToneError)
		return err
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
	pages := 0
	for _, enc := range batch {
		pages += enc.Pages
	}
	log.Info("upload complete",
		slog.Int("files", len(payload)),
		slog.Int("pages", pages),
		slog.String("mode", string(mode)),
	)
	c.notify(MsgUploaded, notify.ToneSuccess)

	if c.reloader != nil {
		if _, rerr := c.reloader.Load(ctx); rerr != nil {
			log.Warn("reload after upload failed", slog.Any("error", rerr))
		}
	}
	return nil
}

// State returns a copy of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Phase:     c.phase,
		Files:     c.selection.Files(),
		FileLabel: c.selection.Label(),
		Error:     c.errMsg,
	}
	if st.Files == nil {
		st.Files = []intake.Candidate{}
	}
	if c.phase == PhaseClosed {
		return st
	}
	order := c.order
	st.ID = c.id
	st.Mode = c.mode
	st.Order = &order
	st.AdditionalURL = c.additionalURL
	st.Title = Title(c.mode)
	st.Subtitle = Subtitle(c.mode, c.additionalURL)
	return st
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) requireOpen() error {
	switch c.phase {
	case PhaseOpen:
		return nil
	case PhaseSubmitting:
		return ErrSubmitting
	default:
		return ErrNotOpen
	}
}

func (c *Controller) reset() {
	c.id = ""
	c.phase = PhaseClosed
	c.mode = ""
	c.order = model.Order{}
	c.additionalURL = ""
	c.selection.Clear()
	c.errMsg = ""
}

func (c *Controller) notify(msg string, tone notify.Tone) {
	if c.notifier != nil {
		c.notifier.Notify(msg, tone)
	}
}

// Title is the dialog heading for mode.
func Title(mode Mode) string {
	if mode == ModeAdditional {
		return "Attach SO for Additional Order"
	}
	return "Attach SO for Final Order"
}

// Subtitle names the additional slot being filled, or "" for final uploads.
func Subtitle(mode Mode, additionalURL string) string {
	if mode != ModeAdditional || additionalURL == "" {
		return ""
	}
	return "Additional URL: " + additionalURL
}

// URLLabel shortens an additional slot URL to host and path for buttons.
// Unparseable values are shown raw; an empty value gets a generic name.
func URLLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Additional Order"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Hostname() + path
}
