package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	assert.Equal(t, "run-42", RunIDFromContext(ctx))
	assert.Equal(t, "", RunIDFromContext(context.Background()))
}

func TestRequestContextFull(t *testing.T) {
	t.Run("round trips all identifiers", func(t *testing.T) {
		rc := RequestContext{RequestID: "req-1", CorrelationID: "corr-1", RunID: "run-1"}

		ctx := WithRequestContextFull(context.Background(), rc)
		assert.Equal(t, rc, RequestContextFromContext(ctx))
	})

	t.Run("empty fields are not stored", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "kept")
		ctx = WithRequestContextFull(ctx, RequestContext{RunID: "run-2"})

		result := RequestContextFromContext(ctx)
		assert.Equal(t, "kept", result.RequestID)
		assert.Equal(t, "", result.CorrelationID)
		assert.Equal(t, "run-2", result.RunID)
	})

	t.Run("empty context", func(t *testing.T) {
		assert.Equal(t, RequestContext{}, RequestContextFromContext(context.Background()))
	})
}

func TestContextOverwrite(t *testing.T) {
	ctx := context.Background()

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithRequestID(ctx, "req-2")

	assert.Equal(t, "req-2", RequestIDFromContext(ctx))
}
