package store_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
	"github.com/blackwell-systems/bookstorectl/internal/ingest"
	"github.com/blackwell-systems/bookstorectl/internal/store"
)

func TestDelete_ConfirmedThenRefreshedToEmpty(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)
	require.Equal(t, []string{"Scifi"}, s.Categories().Names)

	remote.queue(listResult{body: `[]`})
	deleted, err := p.Delete(context.Background(), "a1", true)
	require.NoError(t, err)
	assert.True(t, deleted)

	lists, _, deletes := remote.calls()
	assert.Equal(t, 1, deletes)
	assert.Equal(t, []string{"a1"}, remote.deleted)
	assert.Equal(t, 2, lists, "initial load plus exactly one refresh")

	cats := s.Categories()
	assert.Equal(t, 0, cats.Len())
	assert.Empty(t, cats.Books)
}

func TestDelete_DeclinedPerformsNoIO(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	deleted, err := p.Delete(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.False(t, deleted)

	lists, _, deletes := remote.calls()
	assert.Zero(t, deletes)
	assert.Equal(t, 1, lists)
	assert.True(t, s.Contains("a1"))
	assert.False(t, s.State().Busy)
}

func TestDelete_BlankIDIsValidation(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	_, err := p.Delete(context.Background(), "   ", true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, _, deletes := remote.calls()
	assert.Zero(t, deletes)
	assert.Equal(t, apperr.KindValidation, s.State().LastKind())
	assert.False(t, s.State().Busy, "gate released on validation failure")
}

func TestDelete_ServiceErrorSurfacedWithoutRefresh(t *testing.T) {
	remote := &fakeRemote{deleteErr: apperr.New(apperr.KindNotFound, "delete book", "Book not found")}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	deleted, err := p.Delete(context.Background(), "ghost", true)
	require.Error(t, err)
	assert.False(t, deleted)
	assert.Contains(t, err.Error(), "Book not found")
	assert.Equal(t, []string{"ghost"}, remote.deleted, "no local existence pre-check")

	lists, _, _ := remote.calls()
	assert.Equal(t, 1, lists, "no refresh after a failed delete")
	assert.False(t, s.State().Busy)
}

func TestDelete_RefreshFailureAfterSuccess(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	remote.queue(listResult{err: apperr.New(apperr.KindNetwork, "list books", "timeout")})
	deleted, err := p.Delete(context.Background(), "a1", true)
	assert.True(t, deleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrRefreshAfterMutation))
	assert.True(t, apperr.Is(err, apperr.KindNetwork))
	assert.True(t, s.Contains("a1"), "stale snapshot kept rather than emptied")
}

func TestUpload_EmptyTitleIsValidationWithoutIO(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)
	before := s.Snapshot()

	_, err := p.Upload(context.Background(), store.UploadRequest{
		File:     memSource("foo.pdf", "%PDF"),
		Title:    "  ",
		Category: "X",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	lists, creates, _ := remote.calls()
	assert.Zero(t, creates, "no request sent")
	assert.Equal(t, 1, lists)
	assert.Same(t, before, s.Snapshot())
}

func TestUpload_URLSourceWithBlankTitleMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, "%PDF-1.4")
	}))
	defer srv.Close()

	src, err := ingest.Resolve(srv.URL + "/books/dune.pdf")
	require.NoError(t, err)

	remote := &fakeRemote{}
	p := store.NewPipeline(loaded(t, remote), remote)
	_, err = p.Upload(context.Background(), store.UploadRequest{File: src, Title: ""})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, atomic.LoadInt32(&hits), "source URL must not be contacted")

	_, creates, _ := remote.calls()
	assert.Zero(t, creates)
}

func TestUpload_NoFileIsValidation(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	_, err := p.Upload(context.Background(), store.UploadRequest{Title: "Foo"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, creates, _ := remote.calls()
	assert.Zero(t, creates)
}

func TestUpload_DisallowedFormatIsValidation(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote, store.WithAllowedFormats(ingest.DefaultFormats))

	_, err := p.Upload(context.Background(), store.UploadRequest{File: memSource("cover.png", "png"), Title: "Cover"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), ".png")
	_, creates, _ := remote.calls()
	assert.Zero(t, creates)
}

func TestUpload_BlankCategoryNormalized(t *testing.T) {
	remote := &fakeRemote{createResp: &catalog.Book{ID: "b7", Title: "Foo", Category: catalog.DefaultCategory}}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	remote.queue(listResult{body: `[{"id":"a1","title":"Dune","category":"Scifi"},{"id":"b7","title":"Foo"}]`})
	book, err := p.Upload(context.Background(), store.UploadRequest{
		File:     memSource("foo.pdf", "%PDF-1.4 body"),
		Title:    " Foo ",
		Category: "",
	})
	require.NoError(t, err)
	assert.Equal(t, "b7", book.ID)

	require.Len(t, remote.created, 1)
	sent := remote.created[0]
	assert.Equal(t, catalog.DefaultCategory, sent.Category)
	assert.Equal(t, "Foo", sent.Title)
	assert.Equal(t, "foo.pdf", sent.FileName)
	assert.Equal(t, "application/pdf", sent.ContentType)
	assert.Equal(t, "%PDF-1.4 body", remote.createdRaw[0])

	lists, _, _ := remote.calls()
	assert.Equal(t, 2, lists, "exactly one refresh after upload")

	// A freshly uploaded book with a blank category groups where a fetched one would.
	cats := s.Categories()
	assert.Equal(t, []string{"Scifi", catalog.DefaultCategory}, cats.Names)
	assert.Equal(t, "b7", cats.Get(catalog.DefaultCategory)[0].ID)
}

func TestUpload_ProgressWrapperSeesBody(t *testing.T) {
	remote := &fakeRemote{createResp: &catalog.Book{ID: "b7", Title: "Foo"}}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	var wrapped bool
	_, err := p.Upload(context.Background(), store.UploadRequest{
		File:  memSource("foo.pdf", "abc"),
		Title: "Foo",
		Progress: func(r io.Reader) io.Reader {
			wrapped = true
			return r
		},
	})
	require.NoError(t, err)
	assert.True(t, wrapped)
	assert.Equal(t, "abc", remote.createdRaw[0])
}

func TestUpload_CreateFailureSkipsRefresh(t *testing.T) {
	remote := &fakeRemote{createErr: apperr.New(apperr.KindInvalidResponse, "create book", "response did not include the new book's identifier")}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	book, err := p.Upload(context.Background(), store.UploadRequest{File: memSource("foo.pdf", "x"), Title: "Foo"})
	require.Error(t, err)
	assert.Nil(t, book)
	assert.True(t, apperr.Is(err, apperr.KindInvalidResponse))
	lists, creates, _ := remote.calls()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, lists)
	assert.Equal(t, apperr.KindInvalidResponse, s.State().LastKind())
}

func TestUpload_RefreshFailureReturnsBookAndError(t *testing.T) {
	remote := &fakeRemote{createResp: &catalog.Book{ID: "b7", Title: "Foo"}}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	remote.queue(listResult{err: apperr.New(apperr.KindNetwork, "list books", "reset")})
	book, err := p.Upload(context.Background(), store.UploadRequest{File: memSource("foo.pdf", "x"), Title: "Foo"})
	require.NotNil(t, book)
	assert.Equal(t, "b7", book.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrRefreshAfterMutation))
	assert.True(t, s.Contains("a1"))
	assert.False(t, s.Contains("b7"))
	assert.True(t, errors.Is(s.State().LastError, store.ErrRefreshAfterMutation))
}

func TestUpload_OpenFailureIsValidation(t *testing.T) {
	remote := &fakeRemote{}
	s := loaded(t, remote)
	p := store.NewPipeline(s, remote)

	src := &ingest.Source{
		Name: "gone.pdf",
		Open: func() (io.ReadCloser, error) { return nil, errors.New("no such file") },
	}
	_, err := p.Upload(context.Background(), store.UploadRequest{File: src, Title: "Gone"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.True(t, strings.Contains(err.Error(), "gone.pdf"))
	_, creates, _ := remote.calls()
	assert.Zero(t, creates)
}
