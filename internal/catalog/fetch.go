package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher retrieves the full product list from the upstream catalog source.
// There is no pagination; a fetch either yields the whole catalog or fails.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]Product, error)
}

var (
	ErrBadStatus      = errors.New("catalog bad status")
	ErrUnavailable    = errors.New("catalog unavailable")
	ErrInvalidCatalog = errors.New("catalog payload invalid")
)

type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPFetcher) FetchCatalog(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := validateCatalog(products); err != nil {
		return nil, err
	}
	return products, nil
}

// validateCatalog enforces the structural invariants downstream consumers
// assume: unique SKUs and non-negative stock counts.
func validateCatalog(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.SKU == "" {
			return fmt.Errorf("%w: product without sku", ErrInvalidCatalog)
		}
		if _, dup := seen[p.SKU]; dup {
			return fmt.Errorf("%w: duplicate sku %q", ErrInvalidCatalog, p.SKU)
		}
		seen[p.SKU] = struct{}{}

		for _, s := range p.Sizes {
			if s.Count < 0 {
				return fmt.Errorf("%w: sku %q size %q has negative count", ErrInvalidCatalog, p.SKU, s.Size)
			}
		}
	}
	return nil
}
