// Package server exposes the order workflow over a local HTTP API so a thin
// front end (or curl) can drive the queue and the upload session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/clock"
	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/intake"
	"github.com/dharsanguruparan/OrderDrop/internal/notify"
	"github.com/dharsanguruparan/OrderDrop/internal/session"
	"github.com/dharsanguruparan/OrderDrop/internal/store"
	"github.com/dharsanguruparan/OrderDrop/internal/view"
)

// maxFilesPerRequest bounds a single multipart body to this many full-size files.
const maxFilesPerRequest = 16

// Deps are the controllers the server drives.
type Deps struct {
	Orders   *store.Store
	Session  *session.Controller
	Notifier *notify.Notifier
	Clock    *clock.Clock
	Logger   *slog.Logger
}

// Server hosts the HTTP handlers.
type Server struct {
	cfg      *config.Config
	orders   *store.Store
	session  *session.Controller
	notifier *notify.Notifier
	clock    *clock.Clock
	logger   *slog.Logger
	once     sync.Once
}

// New creates a configured server.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New(cfg.Tick)
	}
	return &Server{
		cfg:      cfg,
		orders:   deps.Orders,
		session:  deps.Session,
		notifier: deps.Notifier,
		clock:    clk,
		logger:   logger.With(slog.String("component", "server")),
	}
}

// Serve loads the queue once, then serves HTTP until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.once.Do(func() {
		go func() {
			if _, err := s.orders.Load(ctx); err != nil {
				s.logger.Warn("initial load failed", slog.Any("error", err))
			}
		}()
	})
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	s.logger.Info("listening", slog.String("address", s.cfg.Address))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the router with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware, s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/orders", s.handleOrders)
	r.Post("/orders/refresh", s.handleRefresh)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Delete("/", s.handleClose)
		r.Post("/final/{orderId}", s.handleOpenFinal)
		r.Post("/additional/{orderId}", s.handleOpenAdditional)
		r.Post("/files", s.handleAddFiles)
		r.Delete("/files/{index}", s.handleRemoveFile)
		r.Post("/submit", s.handleSubmit)
	})
	r.Get("/notification", s.handleNotification)
	return r
}

type healthResponse struct {
	Status       string `json:"status"`
	OrdersLoaded bool   `json:"ordersLoaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", OrdersLoaded: s.orders.Snapshot().Loaded})
}

func (s *Server) queue() view.Queue {
	var msg *notify.Message
	if s.notifier != nil {
		if m, ok := s.notifier.Current(); ok {
			msg = &m
		}
	}
	return view.BuildQueue(s.orders.Snapshot(), s.clock.Latest(), msg)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.queue())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.orders.Load(r.Context()); err != nil {
		respondJSON(w, http.StatusBadGateway, s.queue())
		return
	}
	respondJSON(w, http.StatusOK, s.queue())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, view.BuildDialog(s.session.State()))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.session.Close()
	respondJSON(w, http.StatusOK, view.BuildDialog(s.session.State()))
}

func (s *Server) handleOpenFinal(w http.ResponseWriter, r *http.Request) {
	order, ok := s.orders.Find(chi.URLParam(r, "orderId"))
	if !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if !order.Final.Eligible {
		respondError(w, http.StatusConflict, "final order is not awaiting an attachment")
		return
	}
	if err := s.session.OpenFinal(order); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view.BuildDialog(s.session.State()))
}

type openAdditionalRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleOpenAdditional(w http.ResponseWriter, r *http.Request) {
	var req openAdditionalRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil || req.URL == "" {
		respondError(w, http.StatusBadRequest, `invalid body: {"url":"..."}`)
		return
	}
	order, ok := s.orders.Find(chi.URLParam(r, "orderId"))
	if !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if !order.Additional.Eligible || !order.Additional.HasURL(req.URL) {
		respondError(w, http.StatusConflict, "additional order is not awaiting an attachment")
		return
	}
	if err := s.session.OpenAdditional(order, req.URL); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view.BuildDialog(s.session.State()))
}

type addFilesResponse struct {
	Accepted []string           `json:"accepted"`
	Rejected []intake.Rejection `json:"rejected"`
	Dialog   view.Dialog        `json:"dialog"`
}

func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, (s.cfg.MaxFileBytes+1)*maxFilesPerRequest+1<<20)
	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, http.StatusBadRequest, "expecting multipart form")
		return
	}
	candidates, err := s.readCandidates(mr)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.session.AddFiles(candidates)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	accepted := make([]string, 0, len(res.Accepted))
	for _, c := range res.Accepted {
		accepted = append(accepted, c.Name)
	}
	rejected := res.Rejected
	if rejected == nil {
		rejected = []intake.Rejection{}
	}
	respondJSON(w, http.StatusOK, addFilesResponse{
		Accepted: accepted,
		Rejected: rejected,
		Dialog:   view.BuildDialog(s.session.State()),
	})
}

// readCandidates buffers every "file" part. A part is read to at most one
// byte past the limit, which leaves the size rule to reject it.
func (s *Server) readCandidates(mr *multipart.Reader) ([]intake.Candidate, error) {
	var out []intake.Candidate
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("failed to read upload")
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxFileBytes+1))
		part.Close()
		if err != nil {
			return nil, errors.New("failed to read upload")
		}
		name := part.FileName()
		if name == "" {
			name = "upload.pdf"
		}
		out = append(out, intake.BytesCandidate(name, declaredType(part), data))
	}
	if len(out) == 0 {
		return nil, errors.New("missing file part")
	}
	return out, nil
}

// declaredType is the part's Content-Type, without parameters. The generic
// binary type counts as undeclared.
func declaredType(part *multipart.Part) string {
	ct, _, _ := strings.Cut(part.Header.Get("Content-Type"), ";")
	ct = strings.TrimSpace(ct)
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if err := s.session.RemoveFile(idx); err != nil {
		status := http.StatusNotFound
		if errors.Is(err, session.ErrNotOpen) || errors.Is(err, session.ErrSubmitting) {
			status = http.StatusConflict
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view.BuildDialog(s.session.State()))
}

type submitResponse struct {
	Error        string          `json:"error,omitempty"`
	Dialog       view.Dialog     `json:"dialog"`
	Notification *notify.Message `json:"notification,omitempty"`
}

// handleSubmit runs the upload detached from the request context: a client
// that disconnects must not leave the session stuck between phases.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	err := s.session.Submit(context.WithoutCancel(r.Context()))
	resp := submitResponse{Dialog: view.BuildDialog(s.session.State())}
	if s.notifier != nil {
		if m, ok := s.notifier.Current(); ok {
			resp.Notification = &m
		}
	}
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotOpen), errors.Is(err, session.ErrSubmitting):
		status = http.StatusConflict
	case apperr.IsValidation(err):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadGateway
	}
	if err != nil {
		resp.Error = apperr.Message(err, session.MsgUploadFailed)
	}
	respondJSON(w, status, resp)
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	msg, ok := s.notifier.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		slog.Default().Warn("encode json failed", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
