package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prasetyowira/certgen/constant"
	appLogger "github.com/prasetyowira/certgen/infrastructure/logger"
)

type outcomeKey struct{}

// requestOutcome is filled in by handlers so the completion entry can say
// what a lookup or verification concluded.
type requestOutcome struct {
	value string
}

// RecordOutcome attaches a short result ("ok", "certificate revoked", ...) to
// the request being logged. Outside RequestLogger it does nothing.
func RecordOutcome(ctx context.Context, outcome string) {
	if o, ok := ctx.Value(outcomeKey{}).(*requestOutcome); ok {
		o.value = outcome
	}
}

// RequestLogger assigns a request ID and logs every request with the
// certificate it touched and how it ended.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.New().String()

			outcome := &requestOutcome{}
			ctx := appLogger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, outcomeKey{}, outcome)

			w.Header().Set(constant.HeaderRequestID, requestID)

			appLogger.CtxInfo(ctx, constant.MsgRequestReceived, appLogger.LoggerInfo{
				ContextFunction: constant.CtxAPI,
				Data: map[string]interface{}{
					constant.DataMethod:     r.Method,
					constant.DataPath:       r.URL.Path,
					constant.DataRemoteAddr: r.RemoteAddr,
					constant.DataUserAgent:  r.UserAgent(),
				},
			})

			ww := newStatusResponseWriter(w)
			startTime := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))
			latency := time.Since(startTime)

			data := map[string]interface{}{
				constant.DataStatus:  ww.status,
				constant.DataLatency: latency.String(),
				constant.DataMethod:  r.Method,
				constant.DataPath:    r.URL.Path,
				constant.DataSize:    ww.size,
			}
			// chi fills the route context while routing, so it is complete here
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					data[constant.DataRoute] = pattern
				}
				if hash := rctx.URLParam("hash"); hash != "" {
					data[constant.DataHash] = hash
				}
			}
			if outcome.value != "" {
				data[constant.DataOutcome] = outcome.value
			}

			logFunc := appLogger.CtxInfo
			if ww.status >= 400 && ww.status < 500 {
				logFunc = appLogger.CtxWarn
			} else if ww.status >= 500 {
				logFunc = appLogger.CtxError
			}

			msg := constant.MsgRequestCompleted
			if r.Method == http.MethodDelete && data[constant.DataHash] != nil {
				msg = constant.MsgRevocationRequest
			}
			logFunc(ctx, msg, appLogger.LoggerInfo{
				ContextFunction: constant.CtxAPI,
				Data:            data,
			})
		})
	}
}

// statusResponseWriter captures the status code and response size
type statusResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (w *statusResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}
