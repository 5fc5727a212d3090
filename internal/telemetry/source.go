package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source is the backend-provided telemetry feed, polled in the absence of
// push.
type Source interface {
	Fetch(ctx context.Context) ([]Snapshot, error)
}

// HTTPSource pulls snapshots from the external telemetry endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 4 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telemetry source returned status %d", resp.StatusCode)
	}

	var body struct {
		Snapshots []Snapshot `json:"snapshots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding telemetry: %w", err)
	}
	return body.Snapshots, nil
}
