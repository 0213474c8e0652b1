package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/OrderDrop/internal/model"
	pdfutil "github.com/dharsanguruparan/OrderDrop/internal/pdf"
)

const (
	// PDFMimeType is the canonical PDF type, also used when none is declared.
	PDFMimeType = "application/pdf"
	// DefaultMaxBytes is the per-file size limit (10 MiB).
	DefaultMaxBytes int64 = 10 << 20
	// DefaultWorkers bounds concurrent reads during Encode.
	DefaultWorkers = 4

	ReasonNotPDF = "not a PDF"
)

// Rejection explains why a candidate was not accepted.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Message is the sentence shown to the user.
func (r Rejection) Message() string {
	if r.Reason == ReasonNotPDF {
		return fmt.Sprintf("%s is %s.", r.Name, r.Reason)
	}
	return fmt.Sprintf("%s %s.", r.Name, r.Reason)
}

// Result is the outcome of one Validate call.
type Result struct {
	Accepted []Candidate `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// ErrorText joins every rejection message, or returns "" when all passed.
func (r Result) ErrorText() string {
	msgs := make([]string, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		msgs = append(msgs, rej.Message())
	}
	return strings.Join(msgs, " ")
}

// Encoded is an accepted file in transport form. Pages is 0 when the PDF
// could not be parsed.
type Encoded struct {
	File  model.EncodedFile
	Size  int64
	Pages int
}

// Pipeline applies the intake rules.
type Pipeline struct {
	maxBytes int64
	workers  int
	logger   *slog.Logger
}

// New builds a Pipeline. Non-positive arguments fall back to the defaults.
func New(maxBytes int64, workers int, logger *slog.Logger) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		maxBytes: maxBytes,
		workers:  workers,
		logger:   logger.With(slog.String("component", "intake")),
	}
}

// SizeReason is the rejection reason for oversized files, "exceeds 10MB" at
// the default limit.
func (p *Pipeline) SizeReason() string {
	if p.maxBytes%(1<<20) == 0 {
		return fmt.Sprintf("exceeds %dMB", p.maxBytes>>20)
	}
	return "exceeds " + humanize.IBytes(uint64(p.maxBytes))
}

// IsPDF applies the type rule: declared PDF type, or a .pdf name in any case.
func IsPDF(c Candidate) bool {
	return c.MimeType == PDFMimeType || strings.HasSuffix(strings.ToLower(c.Name), ".pdf")
}

// Validate splits candidates into accepted and rejected, preserving order.
// The type rule is checked first; a non-PDF is never also reported as too large.
func (p *Pipeline) Validate(candidates []Candidate) Result {
	var res Result
	for _, c := range candidates {
		switch {
		case !IsPDF(c):
			res.Rejected = append(res.Rejected, Rejection{Name: c.Name, Reason: ReasonNotPDF})
		case c.Size > p.maxBytes:
			res.Rejected = append(res.Rejected, Rejection{Name: c.Name, Reason: p.SizeReason()})
		default:
			res.Accepted = append(res.Accepted, c)
		}
	}
	return res
}

// Encode reads and base64-encodes files concurrently. The output keeps the
// input order. Files that fail to read or encode to nothing are dropped.
func (p *Pipeline) Encode(ctx context.Context, files []Candidate) []Encoded {
	slots := make([]*Encoded, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			enc, err := p.encodeOne(gctx, f)
			if err != nil {
				p.logger.Warn("dropping unreadable file", slog.String("file", f.Name), slog.Any("error", err))
				return nil
			}
			slots[i] = enc
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Encoded, 0, len(files))
	for i, enc := range slots {
		if enc == nil || enc.File.Base64 == "" {
			if enc != nil {
				p.logger.Warn("dropping empty file", slog.String("file", files[i].Name))
			}
			continue
		}
		out = append(out, *enc)
	}
	return out
}

func (p *Pipeline) encodeOne(ctx context.Context, f Candidate) (*Encoded, error) {
	if f.Source == nil {
		return nil, errors.New("no byte source")
	}
	rc, err := f.Source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("read %s: content larger than %d bytes", f.Name, p.maxBytes)
	}
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = PDFMimeType
	}
	var pages int
	if pdfutil.LooksLikePDF(data) {
		if pages, err = pdfutil.PageCount(data); err != nil {
			p.logger.Debug("page count unavailable", slog.String("file", f.Name), slog.Any("error", err))
		}
	} else if len(data) > 0 {
		p.logger.Warn("content has no PDF header", slog.String("file", f.Name))
	}
	return &Encoded{
		File: model.EncodedFile{
			Name:     f.Name,
			MimeType: mimeType,
			Base64:   base64.StdEncoding.EncodeToString(data),
		},
		Size:  int64(len(data)),
		Pages: pages,
	}, nil
}

// Files strips the intake metadata, leaving the wire payload.
func Files(batch []Encoded) []model.EncodedFile {
	out := make([]model.EncodedFile, len(batch))
	for i, enc := range batch {
		out[i] = enc.File
	}
	return out
}
