package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookstorectl/internal/access"
	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/objectstore"
)

type fakeProber struct {
	exists bool
	err    error
	urls   []string
}

func (f *fakeProber) Exists(_ context.Context, u string) (bool, error) {
	f.urls = append(f.urls, u)
	return f.exists, f.err
}

type fakeBroker struct {
	url   string
	err   error
	calls []string
}

func (f *fakeBroker) AccessURL(_ context.Context, id string) (string, error) {
	f.calls = append(f.calls, id)
	return f.url, f.err
}

func (f *fakeBroker) StreamURL(id string) string { return "https://svc.example/api/books/" + id + "/stream" }

var tmpl = objectstore.Templates{
	View:     "https://cdn.example/image/upload/{ref}",
	Download: "https://cdn.example/raw/upload/fl_attachment/{ref}",
}

func snapshot() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Book{
		{ID: "a1", Title: "Dune", Category: "Scifi", ObjectRef: "books/dune.pdf"},
		{ID: "b2", Title: "Emma"},
	})
}

func TestProbe_UnknownRefMakesNoNetworkCall(t *testing.T) {
	p := &fakeProber{exists: true}
	r := access.NewProbe(snapshot(), tmpl, p)

	_, err := r.ResolveView(context.Background(), "zz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrCatalogReference))

	_, err = r.ResolveDownload(context.Background(), "zz")
	assert.True(t, apperr.Is(err, apperr.KindCatalogReference))
	assert.Empty(t, p.urls)
}

func TestProbe_BlankRefIsValidation(t *testing.T) {
	p := &fakeProber{exists: true}
	r := access.NewProbe(snapshot(), tmpl, p)
	_, err := r.ResolveView(context.Background(), "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, p.urls)
}

func TestProbe_ResolvesByObjectRef(t *testing.T) {
	p := &fakeProber{exists: true}
	r := access.NewProbe(snapshot(), tmpl, p)

	v, err := r.ResolveView(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/image/upload/books/dune.pdf", v.URL)
	assert.Equal(t, "Dune", v.Book.Title)
	assert.Equal(t, access.StrategyProbe, v.Strategy)

	d, err := r.ResolveDownload(context.Background(), "books/dune.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/raw/upload/fl_attachment/books/dune.pdf", d.URL)
	assert.Len(t, p.urls, 2)
}

func TestProbe_IDUsedWhenNoObjectRef(t *testing.T) {
	p := &fakeProber{exists: true}
	r := access.NewProbe(snapshot(), tmpl, p)
	v, err := r.ResolveView(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/image/upload/b2", v.URL)
}

func TestProbe_AbsentObjectIsNotFound(t *testing.T) {
	p := &fakeProber{exists: false}
	r := access.NewProbe(snapshot(), tmpl, p)

	tgt, err := r.ResolveDownload(context.Background(), "a1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, tgt.URL, "no download target on a failed probe")
	assert.Len(t, p.urls, 1)
}

func TestProbe_ProbeFailureIsNetwork(t *testing.T) {
	p := &fakeProber{err: errors.New("connection reset")}
	r := access.NewProbe(snapshot(), tmpl, p)
	_, err := r.ResolveView(context.Background(), "a1")
	assert.True(t, apperr.Is(err, apperr.KindNetwork))
}

func TestBrokered_UnknownRefMakesNoNetworkCall(t *testing.T) {
	b := &fakeBroker{url: "https://signed.example/x"}
	r := access.NewBrokered(snapshot(), b, false)
	_, err := r.ResolveDownload(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindCatalogReference))
	assert.Empty(t, b.calls)
}

func TestBrokered_UsesServiceID(t *testing.T) {
	b := &fakeBroker{url: "https://signed.example/a1"}
	r := access.NewBrokered(snapshot(), b, false)

	d, err := r.ResolveDownload(context.Background(), "books/dune.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a1", d.URL)
	assert.Equal(t, access.StrategyBrokered, d.Strategy)
	assert.Equal(t, []string{"a1"}, b.calls)
}

func TestBrokered_StreamView(t *testing.T) {
	b := &fakeBroker{url: "https://signed.example/a1"}
	r := access.NewBrokered(snapshot(), b, true)

	v, err := r.ResolveView(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://svc.example/api/books/a1/stream", v.URL)
	assert.Len(t, b.calls, 1, "access url is still checked first")

	d, err := r.ResolveDownload(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a1", d.URL)
}

func TestBrokered_SurfacesServiceErrors(t *testing.T) {
	b := &fakeBroker{err: apperr.New(apperr.KindService, "access url", "object expired")}
	r := access.NewBrokered(snapshot(), b, false)

	_, err := r.ResolveView(context.Background(), "a1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.Contains(t, err.Error(), "object expired")

	b.err = apperr.New(apperr.KindNotFound, "access url", "Book not found")
	_, err = r.ResolveView(context.Background(), "a1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestNew_SelectsStrategy(t *testing.T) {
	cat := snapshot()

	r, err := access.New(access.Options{Catalog: cat, Templates: tmpl, Prober: &fakeProber{}})
	require.NoError(t, err)
	assert.IsType(t, &access.Probe{}, r)

	r, err = access.New(access.Options{Strategy: access.StrategyBrokered, Catalog: cat, Broker: &fakeBroker{}})
	require.NoError(t, err)
	assert.IsType(t, &access.Brokered{}, r)

	_, err = access.New(access.Options{Strategy: "cdn", Catalog: cat})
	assert.Error(t, err)

	_, err = access.New(access.Options{Strategy: access.StrategyBrokered, Catalog: cat})
	assert.Error(t, err, "brokered without a broker")
}
