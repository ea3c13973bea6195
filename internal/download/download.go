// Package download saves resolved download targets to disk.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/util"
)

// WrapFunc lets the caller observe the body as it is copied, e.g. for a
// progress bar. total is -1 when the server did not send a length.
type WrapFunc func(r io.Reader, total int64) io.Reader

// Fetch GETs u into destDir and returns the final path. The file name comes
// from Content-Disposition, then name, then the URL path. The body is
// written to a .tmp file and renamed into place only when complete.
func Fetch(ctx context.Context, hc *http.Client, u, destDir, name string, wrap WrapFunc) (string, error) {
	const op = "download"
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, op, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindNetwork, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", apperr.New(apperr.KindNotFound, op, "object is no longer available (%d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", apperr.New(apperr.KindNetwork, op, "object store returned %d", resp.StatusCode)
	}

	if err := util.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	destPath := filepath.Join(destDir, FileName(resp.Header.Get("Content-Disposition"), name, u))
	tmpPath := destPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	var body io.Reader = resp.Body
	if wrap != nil {
		body = wrap(resp.Body, resp.ContentLength)
	}
	n, err := io.Copy(f, body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", apperr.Wrap(apperr.KindNetwork, op, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		_ = os.Remove(tmpPath)
		return "", apperr.New(apperr.KindNetwork, op, "short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return destPath, nil
}

// FileName picks a safe local file name for a download.
func FileName(disposition, fallback, rawURL string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if fn := clean(params["filename"]); fn != "" {
				return fn
			}
		}
	}
	if fn := clean(fallback); fn != "" {
		return fn
	}
	if pu, err := url.Parse(rawURL); err == nil {
		if fn := clean(path.Base(pu.Path)); fn != "" {
			return fn
		}
	}
	return "download"
}

// clean strips any directory part so a server cannot write outside destDir.
func clean(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
