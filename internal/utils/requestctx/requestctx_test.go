package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		assert.Equal(t, "req-1", RequestID(ctx))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Empty(t, RequestID(context.Background()))
	})

	t.Run("empty id leaves ctx untouched", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, WithRequestID(ctx, ""))
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	Logger(WithRequestID(context.Background(), "req-2"), base).Info("tagged")
	Logger(context.Background(), base).Info("plain")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "req-2", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}
