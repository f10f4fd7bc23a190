package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single vendor call.
const DefaultTimeout = 60 * time.Second

// PostJSON sends body as JSON to url and decodes a 200 response into out.
// Every failure is wrapped with ErrUnavailable and tagged with vendor.
func PostJSON(ctx context.Context, client *http.Client, vendor, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %s: marshal request: %v", ErrUnavailable, vendor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: create request: %v", ErrUnavailable, vendor, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request: %v", ErrUnavailable, vendor, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read response: %v", ErrUnavailable, vendor, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s API error (status %d): %s", ErrUnavailable, vendor, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: unmarshal response: %v", ErrUnavailable, vendor, err)
	}

	return nil
}
