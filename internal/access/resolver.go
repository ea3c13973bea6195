// Package access resolves catalog references to view and download targets.
// A target is only returned once the referenced object is known to be
// retrievable; nothing here mutates the catalog.
package access

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/objectstore"
)

// Strategy names accepted by New.
const (
	StrategyProbe    = "probe"
	StrategyBrokered = "brokered"
)

// Catalog is the locally held snapshot a reference must appear in.
type Catalog interface {
	Lookup(ref string) (catalog.Book, bool)
}

// Target is a verified, user-presentable URL for a book.
type Target struct {
	URL      string
	Book     catalog.Book
	Strategy string
}

// Resolver turns a book reference into a view or download target.
type Resolver interface {
	ResolveView(ctx context.Context, ref string) (Target, error)
	ResolveDownload(ctx context.Context, ref string) (Target, error)
}

// Options configures New.
type Options struct {
	Strategy   string
	Catalog    Catalog
	Templates  objectstore.Templates
	Prober     Prober
	Broker     Broker
	StreamView bool
	Logger     *slog.Logger
}

// New returns the resolver for opts.Strategy. An empty strategy means probe.
func New(opts Options) (Resolver, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("access: catalog is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch opts.Strategy {
	case "", StrategyProbe:
		if opts.Prober == nil {
			return nil, fmt.Errorf("access: probe strategy needs a prober")
		}
		p := NewProbe(opts.Catalog, opts.Templates, opts.Prober)
		p.log = log
		return p, nil
	case StrategyBrokered:
		if opts.Broker == nil {
			return nil, fmt.Errorf("access: brokered strategy needs a broker")
		}
		b := NewBrokered(opts.Catalog, opts.Broker, opts.StreamView)
		b.log = log
		return b, nil
	default:
		return nil, fmt.Errorf("access: unknown strategy %q", opts.Strategy)
	}
}

// guard checks ref against the local catalog before any remote call.
func guard(cat Catalog, op, ref string) (catalog.Book, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return catalog.Book{}, apperr.Validation(op, "book reference is required")
	}
	b, ok := cat.Lookup(ref)
	if !ok {
		return catalog.Book{}, apperr.New(apperr.KindCatalogReference, op, "%q is not in the catalog", ref)
	}
	return b, nil
}
