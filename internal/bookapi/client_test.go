package bookapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/bookapi"
	"github.com/blackwell-systems/bookstorectl/internal/ingest"
)

func newClient(t *testing.T, h http.Handler, mutate ...func(*bookapi.Options)) *bookapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts := bookapi.Options{BaseURL: srv.URL + "/api/", UserAgent: "test-agent"}
	for _, m := range mutate {
		m(&opts)
	}
	return bookapi.New(opts)
}

func TestListBooks_ReturnsBody(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[{"id":"a1","title":"Dune"}]`)
	}))

	body, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a1","title":"Dune"}]`, string(body))
}

func TestListBooks_SingleRequestOnServerError(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}), func(o *bookapi.Options) { o.Retries = 2 })

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestAccessURL_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"url":"https://signed.example/a1"}`)
	}), func(o *bookapi.Options) { o.Retries = 2 })

	u, err := c.AccessURL(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a1", u)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestListBooks_NoRetryOnClientError(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"bad query"}`)
	}), func(o *bookapi.Options) { o.Retries = 3 })

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.Contains(t, err.Error(), "bad query")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestListBooks_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := bookapi.New(bookapi.Options{BaseURL: srv.URL})

	_, err := c.ListBooks(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNetwork), "kind = %q", apperr.KindOf(err))
}

func TestCreateBook_Multipart(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/books", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Foo", r.FormValue("title"))
		assert.Equal(t, "Uncategorized", r.FormValue("category"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4 body", string(data))
		assert.Equal(t, "foo.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"publicId":"books/foo","url":"https://cdn/books/foo"}`)
	}))

	b, err := c.CreateBook(context.Background(), bookapi.CreateRequest{
		Title:       "Foo",
		Category:    "Uncategorized",
		FileName:    "foo.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4 body"),
	})
	require.NoError(t, err)
	assert.Equal(t, "books/foo", b.ID)
	assert.Equal(t, "books/foo", b.ObjectRef)
	assert.Equal(t, "Foo", b.Title, "title falls back to the request")
}

// lateReader counts reads that happen after the owner marked it finished.
type lateReader struct {
	r        io.Reader
	finished atomic.Bool
	late     atomic.Int32
}

func (l *lateReader) Read(p []byte) (int, error) {
	if l.finished.Load() {
		l.late.Add(1)
	}
	return l.r.Read(p)
}

func TestCreateBook_EarlyResponseStopsBodyWriter(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"x","title":"Foo"}`)
	}))

	body := ingest.NewReader(io.LimitReader(zeroReader{}, 32<<20))
	lr := &lateReader{r: body}
	b, err := c.CreateBook(context.Background(), bookapi.CreateRequest{Title: "Foo", FileName: "big.pdf", Body: lr})
	lr.finished.Store(true)
	if err == nil {
		assert.Equal(t, "x", b.ID)
	}

	// Size and SHA256 are read by the caller right after CreateBook returns.
	assert.LessOrEqual(t, body.Size(), int64(32<<20))
	assert.NotEmpty(t, body.SHA256())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, lr.late.Load(), "body was read after CreateBook returned")
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestCreateBook_EnvelopeResponse(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"book":{"id":"b7","title":"Bar","category":"X"}}`)
	}))
	b, err := c.CreateBook(context.Background(), bookapi.CreateRequest{Title: "Bar", FileName: "b.epub", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "b7", b.ID)
	assert.Equal(t, "X", b.Category)
}

func TestCreateBook_MissingIdentifier(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"message":"uploaded"}`)
	}))
	_, err := c.CreateBook(context.Background(), bookapi.CreateRequest{Title: "Foo", FileName: "f.pdf", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidResponse), "kind = %q", apperr.KindOf(err))
}

func TestCreateBook_NotRetried(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, `{"message":"storage unavailable"}`, http.StatusBadGateway)
	}), func(o *bookapi.Options) { o.Retries = 3 })

	_, err := c.CreateBook(context.Background(), bookapi.CreateRequest{Title: "Foo", FileName: "f.pdf", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDeleteBook_EscapesIDAndCustomRoute(t *testing.T) {
	var gotPath atomic.Value
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath.Store(r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}), func(o *bookapi.Options) { o.Routes = bookapi.Routes{Delete: "books/delete/{id}"} })

	require.NoError(t, c.DeleteBook(context.Background(), "books/dune"))
	assert.Equal(t, "/api/books/delete/books%2Fdune", gotPath.Load())
}

func TestDeleteBook_SurfacesServiceError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Book not found"}`)
	}))
	err := c.DeleteBook(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "Book not found")
}

func TestAccessURL(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/books/a1/access-url":
			_, _ = io.WriteString(w, `{"url":"https://signed.example/a1?sig=1"}`)
		case "/api/books/empty/access-url":
			_, _ = io.WriteString(w, `{"url":""}`)
		default:
			http.NotFound(w, r)
		}
	}))

	u, err := c.AccessURL(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a1?sig=1", u)

	_, err = c.AccessURL(context.Background(), "empty")
	assert.True(t, apperr.Is(err, apperr.KindInvalidResponse))

	_, err = c.AccessURL(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStreamURL(t *testing.T) {
	c := bookapi.New(bookapi.Options{BaseURL: "https://svc.example/api"})
	assert.Equal(t, "https://svc.example/api/books/a%201/stream", c.StreamURL("a 1"))
}

func TestRateLimitedClientStillServes(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}), func(o *bookapi.Options) { o.RateLimit = 100 })
	for i := 0; i < 3; i++ {
		_, err := c.ListBooks(context.Background())
		require.NoError(t, err)
	}
}
