package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/linnemanlabs/logtriage/internal/event"
)

const httpTimeout = 30 * time.Second

// HTTPSource reads raw record batches from an event-source agent over HTTP.
// The agent serves GET {base}/logs/{logType}?limit=N with the same batch
// shape the push ingest endpoint accepts.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	parsers fastjson.ParserPool
}

// NewHTTPSource creates a source for the given agent base URL.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// ReadLatest fetches up to limit newest records for the given log type.
func (s *HTTPSource) ReadLatest(ctx context.Context, lt event.LogType, limit int) ([]event.RawRecord, error) {
	u := fmt.Sprintf("%s/logs/%s?limit=%s",
		s.baseURL, url.PathEscape(string(lt)), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", lt, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("agent returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	p := s.parsers.Get()
	defer s.parsers.Put(p)
	return event.ParseBatch(p, body)
}
