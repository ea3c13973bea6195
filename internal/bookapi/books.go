package bookapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
)

// ListBooks fetches the full catalog and returns the raw response body.
// It sends exactly one request; a failed refresh is reported, not retried.
// Shape validation is left to catalog.Parse.
func (c *Client) ListBooks(ctx context.Context) ([]byte, error) {
	return c.getBody(ctx, "list books", c.url(c.routes.List, ""), 0)
}

// CreateRequest is one multipart upload.
type CreateRequest struct {
	Title       string
	Category    string
	FileName    string
	ContentType string
	Body        io.Reader
}

// CreateBook uploads a file with its title and category. The response must
// carry the new book's identifier; a 2xx without one is KindInvalidResponse.
// Uploads are never retried.
func (c *Client) CreateBook(ctx context.Context, cr CreateRequest) (*catalog.Book, error) {
	const op = "create book"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pw.CloseWithError(writeMultipart(mw, cr))
	}()
	// The server may answer before reading the whole body. Closing pr
	// unblocks the writer; cr.Body is not touched once this returns.
	defer func() {
		_ = pr.Close()
		<-done
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.routes.Create, ""), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	book, err := decodeCreated(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidResponse, op, err)
	}
	if strings.TrimSpace(book.ID) == "" {
		return nil, apperr.New(apperr.KindInvalidResponse, op, "response did not include the new book's identifier")
	}
	if book.Title == "" {
		book.Title = cr.Title
	}
	if book.Category == "" {
		book.Category = cr.Category
	}
	return book, nil
}

// decodeCreated accepts a bare book object or one wrapped under "book" or
// "data".
func decodeCreated(raw []byte) (*catalog.Book, error) {
	var env struct {
		Book json.RawMessage `json:"book"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	inner := raw
	switch {
	case len(env.Book) > 0 && env.Book[0] == '{':
		inner = env.Book
	case len(env.Data) > 0 && env.Data[0] == '{':
		inner = env.Data
	}
	var b catalog.Book
	if err := json.Unmarshal(inner, &b); err != nil {
		return nil, fmt.Errorf("decoding book: %w", err)
	}
	return &b, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeMultipart(mw *multipart.Writer, cr CreateRequest) error {
	if err := mw.WriteField("title", cr.Title); err != nil {
		return err
	}
	if err := mw.WriteField("category", cr.Category); err != nil {
		return err
	}
	ct := cr.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(cr.FileName)))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if cr.Body != nil {
		if _, err := io.Copy(part, cr.Body); err != nil {
			return fmt.Errorf("streaming file: %w", err)
		}
	}
	return mw.Close()
}

// DeleteBook removes a book. Errors from the service, including for unknown
// IDs, are returned as the service reported them. Never retried.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	const op = "delete book"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(c.routes.Delete, id), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(op, resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// AccessURL asks the service for an access URL for the book. The service is
// trusted to have checked the object exists.
func (c *Client) AccessURL(ctx context.Context, id string) (string, error) {
	const op = "access url"
	raw, err := c.getBody(ctx, op, c.url(c.routes.AccessURL, id), c.retries)
	if err != nil {
		return "", err
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidResponse, op, err)
	}
	if strings.TrimSpace(body.URL) == "" {
		return "", apperr.New(apperr.KindInvalidResponse, op, "response did not include a url")
	}
	return body.URL, nil
}

// StreamURL returns the service's embeddable stream endpoint for a book.
func (c *Client) StreamURL(id string) string {
	return c.url(c.routes.Stream, id)
}
