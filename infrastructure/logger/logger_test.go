package logger

import (
	"context"
	"testing"

	"github.com/prasetyowira/certgen/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("INFO"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestCtxInfo_IncludesContextIDs(t *testing.T) {
	// Arrange
	logs := observe(t, zapcore.DebugLevel)
	ctx := WithBatchID(WithRequestID(context.Background(), "req-1"), "batch-1")

	// Act
	CtxInfo(ctx, "rendered", LoggerInfo{
		ContextFunction: constant.CtxRender,
		Data: map[string]interface{}{
			constant.DataAttendee: "Alice",
		},
	})

	// Assert
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields[constant.LogRequestIDKey])
	assert.Equal(t, "batch-1", fields[constant.LogBatchIDKey])
	assert.Equal(t, constant.CtxRender, fields[constant.LogFunctionKey])
	assert.Equal(t, "Alice", fields[constant.DataAttendee])
}

func TestCtxWarn_IncludesErrorDetails(t *testing.T) {
	// Arrange
	logs := observe(t, zapcore.DebugLevel)

	// Act
	CtxWarn(context.Background(), "font missing", LoggerInfo{
		ContextFunction: constant.CtxFontFace,
		Error: &CustomError{
			Code:    constant.ErrCodeFontLoad,
			Message: "no such file",
			Type:    constant.ErrTypeResource,
		},
	})

	// Assert
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, constant.ErrCodeFontLoad, fields[constant.LogErrorCodeKey])
	assert.Equal(t, constant.ErrTypeResource, fields[constant.LogErrorTypeKey])
	assert.Equal(t, "no such file", fields[constant.LogErrorMessageKey])
	_, hasRequestID := fields[constant.LogRequestIDKey]
	assert.False(t, hasRequestID)
}

func TestBatchID(t *testing.T) {
	assert.Equal(t, "", BatchID(context.Background()))
	assert.Equal(t, "b-42", BatchID(WithBatchID(context.Background(), "b-42")))
}

func TestNilLoggerIsSilent(t *testing.T) {
	prev := logger
	SetLogger(nil)
	defer SetLogger(prev)

	assert.NotPanics(t, func() {
		Info("nothing", LoggerInfo{})
		CtxError(context.Background(), "nothing", LoggerInfo{})
	})
}
