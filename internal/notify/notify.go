// Package notify turns client errors and connectivity changes into
// user-facing notifications and delivers them to a sink.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Send posts message to endpoint as text/plain. Extra headers are applied
// as given; ntfy reads Title, Tags and Priority from them.
func Send(ctx context.Context, client *http.Client, endpoint, message string, headers ...http.Header) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	for _, h := range headers {
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
