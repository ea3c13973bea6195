// Package objectstore builds object-store URLs for book payloads and checks
// that an object is retrievable before it is shown to anyone.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
)

// Placeholder is replaced with the escaped object reference.
const Placeholder = "{ref}"

// Templates are the fixed URL layouts for viewing and for forced download
// (attachment disposition).
type Templates struct {
	View     string
	Download string
}

// ViewURL returns the inline view URL for ref.
func (t Templates) ViewURL(ref string) (string, error) {
	return expand(t.View, ref)
}

// DownloadURL returns the attachment download URL for ref.
func (t Templates) DownloadURL(ref string) (string, error) {
	return expand(t.Download, ref)
}

func expand(tmpl, ref string) (string, error) {
	if !strings.Contains(tmpl, Placeholder) {
		return "", fmt.Errorf("url template %q has no %s placeholder", tmpl, Placeholder)
	}
	// Object keys may contain folders; keep the slashes, escape each segment.
	segs := strings.Split(ref, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.ReplaceAll(tmpl, Placeholder, strings.Join(segs, "/")), nil
}

// Prober issues metadata-only existence checks.
type Prober struct {
	http    *http.Client
	retries int
	log     *slog.Logger
}

// NewProber returns a Prober. A nil client gets a 30s timeout client.
func NewProber(hc *http.Client, retries int, log *slog.Logger) *Prober {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Prober{http: hc, retries: retries, log: log}
}

// Exists sends a HEAD request to u. 2xx means present, 404/410 absent.
// Other statuses and transport failures are KindNetwork errors after the
// configured retries.
func (p *Prober) Exists(ctx context.Context, u string) (bool, error) {
	const op = "probe object"
	var exists bool
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := p.http.Do(req)
		if err != nil {
			return apperr.Wrap(apperr.KindNetwork, op, err)
		}
		_ = resp.Body.Close()
		p.log.Debug("probe", slog.String("url", u), slog.Int("status", resp.StatusCode))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			exists = true
			return nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			exists = false
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return apperr.New(apperr.KindNetwork, op, "object store returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(apperr.New(apperr.KindNetwork, op, "object store returned %d", resp.StatusCode))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.retries, 0))), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		if apperr.KindOf(err) != "" {
			return false, err
		}
		return false, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	return exists, nil
}
