package racesim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tvemc/raceline/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// postJSON posts body and drains the response, returning the status code.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body interface{}) (int, error) {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// submitPasses submits passes concurrently using a worker pool. Aid-station
// scans for a bib must land before its finish scan, so the pass slice is fed
// to the pool in order and each worker drains from the shared channel.
func submitPasses(ctx context.Context, config *Config, client *HTTPClient, passes []PassSubmission, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting passes",
		logger.Int("passes", len(passes)),
		logger.Int("workers", config.Workers))

	url := config.BaseURL + "/passes"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	passChan := make(chan PassSubmission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range passChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				switch submitSinglePass(ctx, client, url, p) {
				case "success":
					atomic.AddInt64(&successful, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(passChan)
		for _, p := range passes {
			select {
			case <-ctx.Done():
				return
			case passChan <- p:
			}
		}
	}()

	wg.Wait()

	stats.PassesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.PassesSuccessful = int(atomic.LoadInt64(&successful))
	stats.PassesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.PassesFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "pass submission completed",
		logger.Int("successful", stats.PassesSuccessful),
		logger.Int("duplicate", stats.PassesDuplicate),
		logger.Int("failed", stats.PassesFailed))

	if stats.PassesFailed > 0 {
		return fmt.Errorf("%d of %d passes failed to submit", stats.PassesFailed, stats.PassesSubmitted)
	}
	return nil
}

// submitSinglePass submits one pass, classifying the outcome.
func submitSinglePass(ctx context.Context, client *HTTPClient, url string, p PassSubmission) string {
	resp, err := client.Post(ctx, url, p)
	if err != nil {
		return "failed"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "success"
	default:
		return "failed"
	}
}

// fetchResults retrieves the derived rows.
func fetchResults(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]ResultRow, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/results")
	if err != nil {
		return nil, fmt.Errorf("fetching results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("results fetch failed with status: %d", resp.StatusCode)
	}

	var rows []ResultRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding results: %w", err)
	}
	stats.ResultRows = len(rows)
	return rows, nil
}
