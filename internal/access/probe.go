package access

import (
	"context"
	"io"
	"log/slog"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/objectstore"
)

// Prober checks that an object-store URL is retrievable.
type Prober interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// Probe builds object-store URLs from templates and returns them only after
// a metadata-only existence check succeeds.
type Probe struct {
	cat    Catalog
	tmpl   objectstore.Templates
	prober Prober
	log    *slog.Logger
}

// NewProbe returns a Probe resolver.
func NewProbe(cat Catalog, tmpl objectstore.Templates, p Prober) *Probe {
	return &Probe{
		cat:    cat,
		tmpl:   tmpl,
		prober: p,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// ResolveView returns the inline view URL for ref.
func (p *Probe) ResolveView(ctx context.Context, ref string) (Target, error) {
	return p.resolve(ctx, "resolve view", ref, p.tmpl.ViewURL)
}

// ResolveDownload returns the attachment download URL for ref.
func (p *Probe) ResolveDownload(ctx context.Context, ref string) (Target, error) {
	return p.resolve(ctx, "resolve download", ref, p.tmpl.DownloadURL)
}

func (p *Probe) resolve(ctx context.Context, op, ref string, build func(string) (string, error)) (Target, error) {
	book, err := guard(p.cat, op, ref)
	if err != nil {
		return Target{}, err
	}
	u, err := build(book.Ref())
	if err != nil {
		return Target{}, apperr.Wrap(apperr.KindValidation, op, err)
	}
	ok, err := p.prober.Exists(ctx, u)
	if err != nil {
		return Target{}, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	p.log.Debug("probed", slog.String("op", op), slog.String("ref", book.Ref()), slog.Bool("exists", ok))
	if !ok {
		return Target{}, apperr.New(apperr.KindNotFound, op, "object for %q is not in the object store", book.Title)
	}
	return Target{URL: u, Book: book, Strategy: StrategyProbe}, nil
}

var _ Resolver = (*Probe)(nil)
