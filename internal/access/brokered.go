package access

import (
	"context"
	"io"
	"log/slog"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
)

// Broker is the catalog service's URL-issuing side.
type Broker interface {
	AccessURL(ctx context.Context, id string) (string, error)
	StreamURL(id string) string
}

// Brokered asks the catalog service for access URLs and trusts its
// existence check. Service errors are surfaced as the service reported them.
type Brokered struct {
	cat        Catalog
	broker     Broker
	streamView bool
	log        *slog.Logger
}

// NewBrokered returns a Brokered resolver. With streamView set, view targets
// point at the service's stream endpoint once the access URL has been issued.
func NewBrokered(cat Catalog, b Broker, streamView bool) *Brokered {
	return &Brokered{
		cat:        cat,
		broker:     b,
		streamView: streamView,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// ResolveView returns the issued access URL, or the stream URL when
// configured.
func (r *Brokered) ResolveView(ctx context.Context, ref string) (Target, error) {
	t, err := r.resolve(ctx, "resolve view", ref)
	if err != nil {
		return Target{}, err
	}
	if r.streamView {
		t.URL = r.broker.StreamURL(t.Book.ID)
	}
	return t, nil
}

// ResolveDownload returns the issued access URL.
func (r *Brokered) ResolveDownload(ctx context.Context, ref string) (Target, error) {
	return r.resolve(ctx, "resolve download", ref)
}

func (r *Brokered) resolve(ctx context.Context, op, ref string) (Target, error) {
	book, err := guard(r.cat, op, ref)
	if err != nil {
		return Target{}, err
	}
	u, err := r.broker.AccessURL(ctx, book.ID)
	if err != nil {
		return Target{}, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	r.log.Debug("access url issued", slog.String("op", op), slog.String("id", book.ID))
	return Target{URL: u, Book: book, Strategy: StrategyBrokered}, nil
}

var _ Resolver = (*Brokered)(nil)
