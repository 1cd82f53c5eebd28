package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gridloom/bessarb/core/model"
	"github.com/gridloom/bessarb/core/pricing"
	"github.com/gridloom/bessarb/infra/logger"
)

// HTTPSource fetches the price series from a JSON endpoint. The endpoint
// returns an array of raw entries which are normalized before crossing into
// the core.
type HTTPSource struct {
	url    string
	client *http.Client
	log    logger.Logger
}

// NewHTTPSource creates a source for the given endpoint URL.
func NewHTTPSource(url string, timeout time.Duration) (*HTTPSource, error) {
	if url == "" {
		return nil, fmt.Errorf("price endpoint url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    logger.New("price-source"),
	}, nil
}

// Prices fetches and normalizes the series. Entries that fail to parse are
// skipped individually.
func (s *HTTPSource) Prices(ctx context.Context, _ time.Time) ([]model.PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price endpoint returned %s", resp.Status)
	}

	var entries []pricing.RawEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	points, err := pricing.Normalize(entries)
	if err != nil {
		return nil, err
	}
	if len(points) < len(entries) {
		s.log.Warnf("skipped %d malformed price entries", len(entries)-len(points))
	}
	return points, nil
}
