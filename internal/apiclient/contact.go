package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgnsrekt/site_gateway/internal/forms"
)

const healthTimeout = 5 * time.Second

// SubmitContact posts the form. Submissions have side effects, so the retry
// budget is pinned to one retry whatever the caller asks for.
func (c *Client) SubmitContact(ctx context.Context, form forms.Contact, opts ...CallOption) (ContactSubmission, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return ContactSubmission{}, newError(CodeUnknown, 0, "encode contact form", nil, err)
	}
	s := c.settings(opts)
	s.retry.MaxRetries = 1

	req := Request{Method: http.MethodPost, Path: []string{"contact", "submit"}, Body: body}
	return fetch[ContactSubmission](ctx, c, req, s, "Failed to submit contact form")
}

// HealthCheck reports whether the gateway answers GET /health with 200. It
// makes a single attempt with a 5s timeout.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.dispatch(ctx, Request{Method: http.MethodGet, Path: []string{"health"}, Timeout: healthTimeout})
	return err == nil
}
