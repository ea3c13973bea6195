// Package ingest resolves upload inputs (local paths or http(s) URLs) into
// readable sources and applies the client-side format checks.
package ingest

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Source holds a resolved input ready for reading.
type Source struct {
	// Name is the original filename (no directory), sent as the multipart
	// filename.
	Name string
	// Size is the byte count if known in advance (-1 if unknown).
	Size int64
	// ContentType is the sniffed or advertised media type.
	ContentType string
	// Path is set for local files only.
	Path string
	// Open returns a new ReadCloser. May be called once. For URL sources it
	// also updates Size and ContentType from the response.
	Open func() (io.ReadCloser, error)
}

// Resolve determines the type of input and returns a Source.
// Supported formats:
//
//	/path/to/file.pdf          local file
//	https://example.com/f.pdf  HTTP URL
func Resolve(input string) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("no file selected")
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return resolveHTTP(input, &http.Client{Timeout: 15 * time.Second})
	}
	return resolveFile(input)
}

func resolveFile(path string) (*Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	ct := "application/octet-stream"
	if m, err := mimetype.DetectFile(path); err == nil {
		ct = m.String()
	}
	return &Source{
		Name:        filepath.Base(path),
		Size:        fi.Size(),
		ContentType: ct,
		Path:        path,
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// resolveHTTP does no network I/O. Size and content type are filled in
// from the GET response when Open is called.
func resolveHTTP(url string, client *http.Client) (*Source, error) {
	name := guessFilenameFromURL(url)
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}

	src := &Source{
		Name:        name,
		Size:        -1,
		ContentType: ct,
	}
	src.Open = func() (io.ReadCloser, error) {
		r, err := client.Get(url)
		if err != nil {
			return nil, err
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			return nil, fmt.Errorf("GET %s: status %d", url, r.StatusCode)
		}
		if r.ContentLength > 0 {
			src.Size = r.ContentLength
		}
		if rct := r.Header.Get("Content-Type"); rct != "" && !strings.HasPrefix(rct, "application/octet-stream") {
			src.ContentType = rct
		}
		return r.Body, nil
	}
	return src, nil
}

func guessFilenameFromURL(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	rawURL = strings.TrimSuffix(rawURL, "/")
	if i := strings.Index(rawURL, "://"); i >= 0 && !strings.Contains(rawURL[i+3:], "/") {
		return "download"
	}
	base := filepath.Base(rawURL)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
