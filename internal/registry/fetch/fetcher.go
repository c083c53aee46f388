package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fieldregistry-server/internal/registry/domain"
)

var ErrConfigNotFound = errors.New("registry config not found")

// Fetcher retrieves the registry document for a key. Failures are terminal
// for the activation that issued them; retry policy belongs to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, key domain.Key) (domain.Config, error)
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  client,
		now:     time.Now,
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher reads registry documents over the wire contract
// GET {base}/v1/registry/{module}/{entity}. Every request carries a
// cache-busting token so intermediate caches can never serve a stale
// document to a newly opened screen.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func (f *HTTPFetcher) Fetch(ctx context.Context, key domain.Key) (domain.Config, error) {
	endpoint := fmt.Sprintf("%s/v1/registry/%s/%s",
		f.baseURL,
		url.PathEscape(key.Module),
		url.PathEscape(key.Entity),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Config{}, fmt.Errorf("building request: %w", err)
	}

	query := req.URL.Query()
	query.Set("_", strconv.FormatInt(f.now().UnixNano(), 10))
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Cache-Control", "no-cache")

	res, err := f.client.Do(req)
	if err != nil {
		return domain.Config{}, fmt.Errorf("fetching registry config for %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return domain.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, key)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return domain.Config{}, fmt.Errorf("fetching registry config for %s: unexpected status %d", key, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.Config{}, fmt.Errorf("reading response body: %w", err)
	}

	config, err := domain.ParseConfig(body)
	if err != nil {
		return domain.Config{}, fmt.Errorf("parsing registry config for %s: %w", key, err)
	}

	return config, nil
}
