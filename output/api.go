package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shivakharbanda/agent-builder/log"
)

// APIWriter posts records as a JSON array to an HTTP endpoint.
type APIWriter struct {
	URL     string
	Method  string
	Headers map[string]string
	Client  *http.Client
}

// Write implements Writer.
func (w *APIWriter) Write(ctx context.Context, records []map[string]any) (*Summary, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, w.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("output request to %s failed: %w", w.URL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("output endpoint %s returned status %d", w.URL, resp.StatusCode)
	}

	log.Infof("posted %d rows to %s", len(records), w.URL)
	return &Summary{
		Status:      "success",
		OutputType:  "api",
		RowsWritten: len(records),
		Destination: w.URL,
	}, nil
}
