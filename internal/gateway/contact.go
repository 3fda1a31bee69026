package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/site_gateway/internal/forms"
)

const (
	contactSource         = "site-gateway"
	contactThanks         = "Thank you for your message! We will get back to you soon."
	contactInternalError  = "Internal server error. Please try again later."
	contactInvalidJSON    = "Invalid JSON body"
	contactMaxRequestBody = 64 << 10
)

// AuditWriter receives one record per accepted contact submission.
type AuditWriter interface {
	Write(record any) error
}

// ContactAudit is the persisted form of a relayed submission.
type ContactAudit struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Outcome    string    `json:"outcome"`
}

type contactRelay struct {
	backend    string
	client     *http.Client
	timeout    time.Duration
	corsOrigin string
	audit      AuditWriter
	metrics    *Metrics
}

type contactForward struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Company string `json:"company"`
	Source  string `json:"source"`
}

type contactReply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type contactError struct {
	Error string `json:"error"`
}

func (c *contactRelay) cors(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", c.corsOrigin)
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func (c *contactRelay) handleOptions(w http.ResponseWriter, _ *http.Request) {
	c.cors(w)
	w.WriteHeader(http.StatusOK)
}

func (c *contactRelay) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "POST")
	writeJSON(w, http.StatusMethodNotAllowed, contactError{Error: "Method Not Allowed"})
}

func (c *contactRelay) handlePost(w http.ResponseWriter, r *http.Request) {
	c.cors(w)

	var form forms.Contact
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, contactMaxRequestBody)).Decode(&form); err != nil {
		c.metrics.observeContact("invalid")
		writeJSON(w, http.StatusBadRequest, contactError{Error: contactInvalidJSON})
		return
	}
	if err := form.CheckRelay(); err != nil {
		c.metrics.observeContact("invalid")
		writeJSON(w, http.StatusBadRequest, contactError{Error: err.Error()})
		return
	}

	data, err := c.forward(r.Context(), form)
	outcome := "relayed"
	if err != nil {
		outcome = "failed"
		slog.Error("contact relay failed", "email", form.Email, "error", err)
	}
	c.record(form, outcome)
	c.metrics.observeContact(outcome)

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, contactError{Error: contactInternalError})
		return
	}
	writeJSON(w, http.StatusOK, contactReply{Success: true, Message: contactThanks, Data: data})
}

func (c *contactRelay) forward(ctx context.Context, form forms.Contact) (json.RawMessage, error) {
	payload, err := json.Marshal(contactForward{
		Name:    form.Name,
		Email:   form.Email,
		Message: form.Message,
		Company: form.Company,
		Source:  contactSource,
	})
	if err != nil {
		return nil, fmt.Errorf("encode contact payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backend+"/contact/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxForwardBody))
	if err != nil {
		return nil, fmt.Errorf("read contact response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", errBackendStatus, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, errors.New("contact response is not valid JSON")
	}
	return body, nil
}

func (c *contactRelay) record(form forms.Contact, outcome string) {
	if c.audit == nil {
		return
	}
	rec := ContactAudit{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		Name:       form.Name,
		Email:      form.Email,
		Company:    form.Company,
		Outcome:    outcome,
	}
	if err := c.audit.Write(rec); err != nil {
		slog.Warn("contact audit write failed", "id", rec.ID, "error", err)
	}
}
