package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/bookapi"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/ingest"
)

// ErrRefreshAfterMutation marks a mutation that succeeded remotely whose
// follow-up refresh failed. The previous snapshot is still held.
var ErrRefreshAfterMutation = errors.New("catalog refresh after mutation failed")

// Mutator issues create and delete requests to the remote service.
type Mutator interface {
	CreateBook(ctx context.Context, req bookapi.CreateRequest) (*catalog.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// UploadRequest is one book upload.
type UploadRequest struct {
	File     *ingest.Source
	Title    string
	Category string
	// Progress optionally wraps the body as it is streamed.
	Progress func(io.Reader) io.Reader
}

// Pipeline runs uploads and deletes through a Store's busy gate and
// refreshes the store after each success.
type Pipeline struct {
	store   *Store
	remote  Mutator
	formats []string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithAllowedFormats restricts uploads to the given file extensions.
func WithAllowedFormats(exts []string) PipelineOption {
	return func(p *Pipeline) { p.formats = exts }
}

// NewPipeline returns a Pipeline bound to s.
func NewPipeline(s *Store, remote Mutator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{store: s, remote: remote}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Upload validates req, sends it as one create request and refreshes the
// store. A blank category is sent as catalog.DefaultCategory.
//
// If the create succeeds but the refresh fails, the created book is
// returned together with an error wrapping ErrRefreshAfterMutation.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (book *catalog.Book, err error) {
	const op = "upload"
	start := time.Now()
	release, err := p.store.acquire(op)
	if err != nil {
		p.store.metrics.observe(op, start, err)
		return nil, err
	}
	defer func() {
		release(err)
		p.store.metrics.observe(op, start, err)
	}()

	if req.File == nil {
		return nil, apperr.Validation(op, "no file selected")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation(op, "title is required")
	}
	if err := ingest.CheckFormat(req.File.Name, p.formats); err != nil {
		return nil, apperr.Validation(op, err.Error())
	}
	category := catalog.NormalizeCategory(req.Category)

	rc, err := req.File.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("opening %s: %w", req.File.Name, err))
	}
	body := ingest.NewReader(rc)
	defer func() { _ = body.Close() }()
	var r io.Reader = body
	if req.Progress != nil {
		r = req.Progress(body)
	}

	book, err = p.remote.CreateBook(ctx, bookapi.CreateRequest{
		Title:       title,
		Category:    category,
		FileName:    req.File.Name,
		ContentType: req.File.ContentType,
		Body:        r,
	})
	if err != nil {
		return nil, err
	}
	p.store.log.Info("uploaded",
		slog.String("op", op),
		slog.String("id", book.ID),
		slog.Int64("bytes", body.Size()),
		slog.String("sha256", body.SHA256()))

	if err := p.store.refresh(ctx); err != nil {
		return book, fmt.Errorf("%w: %w", ErrRefreshAfterMutation, err)
	}
	return book, nil
}

// Delete removes id after the caller has asked the user. A declined
// confirmation returns (false, nil) without contacting the service. The
// service is the authority on whether id exists.
func (p *Pipeline) Delete(ctx context.Context, id string, confirmed bool) (deleted bool, err error) {
	const op = "delete"
	start := time.Now()
	release, err := p.store.acquire(op)
	if err != nil {
		p.store.metrics.observe(op, start, err)
		return false, err
	}
	defer func() {
		release(err)
		p.store.metrics.observe(op, start, err)
	}()

	id = strings.TrimSpace(id)
	if id == "" {
		return false, apperr.Validation(op, "book id is required")
	}
	if !confirmed {
		p.store.log.Debug("delete declined", slog.String("id", id))
		return false, nil
	}

	if err := p.remote.DeleteBook(ctx, id); err != nil {
		return false, err
	}
	p.store.log.Info("deleted", slog.String("op", op), slog.String("id", id))

	if err := p.store.refresh(ctx); err != nil {
		return true, fmt.Errorf("%w: %w", ErrRefreshAfterMutation, err)
	}
	return true, nil
}
