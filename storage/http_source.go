package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"crous-x/models"
	"crous-x/utils"
)

// maxBodyBytes bounds the listings payload.
const maxBodyBytes = 16 << 20

// HTTPSource reads the listing collection from a JSON endpoint that answers a
// GET with an array of listing records.
type HTTPSource struct {
	url    string
	client *http.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewHTTPSource creates a source for url. maxRetries <= 1 means a single attempt.
func NewHTTPSource(url string, timeout time.Duration, maxRetries int, logger *utils.Logger) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
		logger: logger,
	}
}

// FetchAll performs the GET and decodes the array. Records that do not
// decode are dropped.
func (s *HTTPSource) FetchAll(ctx context.Context) ([]*models.RawListing, error) {
	var listings []*models.RawListing

	err := s.retry.Do(ctx, "fetch-listings", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return fmt.Errorf("http source: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("http source: get %s: %w", s.url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("http source: get %s: unexpected status %d", s.url, resp.StatusCode)
		}

		decoded, err := DecodeListings(io.LimitReader(resp.Body, maxBodyBytes), s.logger)
		if err != nil {
			return fmt.Errorf("http source: %w", err)
		}
		listings = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("[http-source] Fetched %d records from %s", len(listings), s.url)
	return listings, nil
}
