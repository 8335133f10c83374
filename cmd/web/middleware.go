package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"time"

	"github.com/myrjola/fitcoach/internal/contexthelpers"
	"github.com/myrjola/fitcoach/internal/errors"
	"github.com/myrjola/fitcoach/internal/flightrecorder"
	"github.com/myrjola/fitcoach/internal/logging"
	"github.com/myrjola/fitcoach/internal/observability"
)

const maxUserIDLength = 128

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest tags the request with a trace id, logs its completion and records the latency metric.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := rand.Text()
		ctx := logging.WithAttrs(
			r.Context(),
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		r = contexthelpers.SetTraceID(r.WithContext(ctx), traceID)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")
		sw := newStatusResponseWriter(w)

		if trace.IsEnabled() {
			traceCtx, task := trace.NewTask(ctx, "HTTP "+r.Pattern)
			trace.Log(traceCtx, "trace_id", traceID)
			r = r.WithContext(traceCtx)
			defer task.End()
		}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		observability.RecordRequest(r.Pattern, sw.statusCode, duration)
		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", duration))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				if excp == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as the net/http docs do
					panic(excp)
				}
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// timeout cancels the request context and responds with 503 when the handler misses the deadline.
// With the flight recorder enabled the execution trace leading up to the timeout is saved.
func (app *application) timeout(next http.Handler) http.Handler {
	h := http.TimeoutHandler(next, app.requestTimeout, `{"error":"timed out"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusResponseWriter(w)
		h.ServeHTTP(sw, r)
		if sw.statusCode == http.StatusServiceUnavailable && app.recorder != nil {
			ctx := context.WithoutCancel(r.Context())
			if _, err := app.recorder.Capture(ctx, "timeout"); err != nil &&
				!errors.Is(err, flightrecorder.ErrCooldown) {
				app.logger.LogAttrs(ctx, slog.LevelError, "failed capturing trace", errors.SlogError(err))
			}
		}
	})
}

// withUser scopes the request to the user in the path.
func (app *application) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("userID")
		if userID == "" || len(userID) > maxUserIDLength {
			app.clientError(w, r, http.StatusBadRequest, "invalid user id")
			return
		}
		r = contexthelpers.SetUserID(r, userID)
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("user_id", userID)))
		next.ServeHTTP(w, r)
	})
}
