package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger("warn", true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger("loud", false)
	assert.Error(t, err)
}

func TestTraceID(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Len(t, TraceID(ctx), 32)
}
