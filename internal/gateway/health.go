package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type healthOutput struct {
	Body struct {
		Status    string `json:"status" example:"healthy"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp" doc:"RFC 3339 time the probe was answered"`
	}
}

func registerHealthHandlers(api huma.API, now func() time.Time) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Gateway liveness probe",
		Description: "Answers without contacting the backend.",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "healthy"
		out.Body.Message = "Site gateway is running"
		out.Body.Timestamp = now().UTC().Format(time.RFC3339Nano)
		return out, nil
	})
}
