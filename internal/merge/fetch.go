package merge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipgate/internal/clipstore"
	"clipgate/internal/config"
	"clipgate/internal/media"
	"clipgate/internal/services"
)

// Fetcher retrieves the payload of a stored clip.
type Fetcher interface {
	Fetch(ctx context.Context, clip media.Clip) ([]byte, error)
}

// HTTPFetcher retrieves clip payloads over HTTP, resolving relative store
// URLs against a configured base.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher builds a fetcher from the merge configuration.
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	timeout := time.Duration(cfg.Merge.FetchTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.Paths.BaseURL, "/"),
	}
}

// Fetch downloads a clip payload. Any transport or status failure aborts the
// merge; a partial body is never returned.
func (f *HTTPFetcher) Fetch(ctx context.Context, clip media.Clip) ([]byte, error) {
	target, err := f.resolve(clip.URL)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "merge", "fetch", fmt.Sprintf("resolve clip URL %q", clip.URL), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "merge", "fetch", "build request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "merge", "fetch", fmt.Sprintf("fetch clip %s", clip.ID), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "merge", "fetch", fmt.Sprintf("fetch clip %s: status %d", clip.ID, resp.StatusCode), nil)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "merge", "fetch", fmt.Sprintf("read clip %s body", clip.ID), err)
	}
	return payload, nil
}

func (f *HTTPFetcher) resolve(clipURL string) (string, error) {
	parsed, err := url.Parse(clipURL)
	if err != nil {
		return "", err
	}
	if parsed.IsAbs() {
		return clipURL, nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("relative clip URL with no base_url configured")
	}
	return f.baseURL + "/" + strings.TrimLeft(clipURL, "/"), nil
}

// StoreFetcher reads clip payloads straight from the local store. Used when
// the merge runs inside the daemon that owns the clips.
type StoreFetcher struct {
	store *clipstore.Store
}

// NewStoreFetcher wraps a clip store as a Fetcher.
func NewStoreFetcher(store *clipstore.Store) *StoreFetcher {
	return &StoreFetcher{store: store}
}

func (f *StoreFetcher) Fetch(_ context.Context, clip media.Clip) ([]byte, error) {
	payload, err := f.store.ReadPayload(clip)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "merge", "fetch", fmt.Sprintf("read clip %s", clip.ID), err)
	}
	return payload, nil
}
