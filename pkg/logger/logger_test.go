package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "autobill/internal/core/context"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContext_AddsTraceAndOperator(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	ctx := WithLogger(context.Background(), log)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithOperator(ctx, &appctx.Operator{OperatorID: "op-7"})

	Info(ctx, "invoice created", "number", "MFES-00001")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "invoice created", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "op-7", fields["operator_id"])
	assert.Equal(t, "MFES-00001", fields["number"])
}

func TestLevelFiltering(t *testing.T) {
	log, logs := observed(zapcore.WarnLevel)
	ctx := WithLogger(context.Background(), log.WithComponent("numerator"))

	Debug(ctx, "allocating")
	Info(ctx, "allocated")
	Warn(ctx, "sequence conflict, retrying", "attempt", 1)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "numerator", entry.ContextMap()["component"])
}

func TestNew(t *testing.T) {
	log, err := New(Config{Level: "not-a-level", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))

	dev, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, dev.Desugar().Core().Enabled(zapcore.DebugLevel))
}
