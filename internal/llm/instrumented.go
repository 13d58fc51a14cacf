package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/helixir/researcher-discovery-service/internal/observability"
)

// Instrument wraps c so every completion is recorded in metrics under
// Request.Operation. A nil metrics value returns c unchanged.
func Instrument(c Completer, metrics *observability.Metrics) Completer {
	if c == nil || metrics == nil {
		return c
	}
	return &instrumented{next: c, metrics: metrics}
}

type instrumented struct {
	next    Completer
	metrics *observability.Metrics
}

func (i *instrumented) Complete(ctx context.Context, req Request) (*Response, error) {
	operation := req.Operation
	if operation == "" {
		operation = "unspecified"
	}

	start := time.Now()
	resp, err := i.next.Complete(ctx, req)
	if err != nil {
		i.metrics.RecordLLMFailure(operation, i.next.Model(), errorType(err))
		return nil, err
	}

	i.metrics.RecordLLMCall(operation, resp.Model, time.Since(start).Seconds(), resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

func (i *instrumented) Provider() string { return i.next.Provider() }

func (i *instrumented) Model() string { return i.next.Model() }

// errorType classifies err for the failure metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case apiErr.StatusCode == 0:
			return "network"
		case apiErr.StatusCode >= 500:
			return "server"
		default:
			return "client"
		}
	}
	return "unknown"
}
