package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/fitcoach/internal/flightrecorder"
	"github.com/myrjola/fitcoach/internal/testhelpers"
)

func newTestApplication(t *testing.T, requestTimeout time.Duration) *application {
	t.Helper()
	return &application{ //nolint:exhaustruct // handlers under test do not touch the service
		logger:         testhelpers.NewLogger(testhelpers.NewWriter(t)),
		requestTimeout: requestTimeout,
	}
}

func sleepHandler(d time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(d)
		w.WriteHeader(http.StatusOK)
	})
}

func Test_application_timeout(t *testing.T) {
	tests := []struct {
		name     string
		sleep    time.Duration
		timesOut bool
	}{
		{name: "completes within timeout", sleep: 500 * time.Millisecond, timesOut: false},
		{name: "just below timeout", sleep: 1900 * time.Millisecond, timesOut: false},
		{name: "times out", sleep: 3 * time.Second, timesOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				app := newTestApplication(t, 2*time.Second)
				handler := app.logAndTraceRequest(app.recoverPanic(noCache(app.timeout(sleepHandler(tt.sleep)))))

				req := httptest.NewRequest(http.MethodGet, "/users/alice/profile", nil)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				// Let the abandoned handler goroutine finish inside the bubble.
				time.Sleep(tt.sleep)

				if tt.timesOut {
					if w.Code != http.StatusServiceUnavailable {
						t.Errorf("Expected status 503 on timeout, got %d", w.Code)
					}
					if !strings.Contains(w.Body.String(), "timed out") {
						t.Errorf("Expected timeout message in response body, got: %s", w.Body.String())
					}
				} else if w.Code != http.StatusOK {
					t.Errorf("Expected status 200, got %d", w.Code)
				}
				if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
					t.Errorf("Cache-Control = %q, want no-store", got)
				}
			})
		})
	}
}

func Test_application_timeoutCapturesTrace(t *testing.T) {
	app := newTestApplication(t, 50*time.Millisecond)
	dir := filepath.Join(t.TempDir(), "traces")
	recorder, err := flightrecorder.New(flightrecorder.Config{
		Directory: dir,
		MinAge:    0,
		MaxBytes:  0,
		Cooldown:  time.Hour,
	}, app.logger)
	if err != nil {
		t.Fatalf("flightrecorder.New() error = %v", err)
	}
	if err = recorder.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { recorder.Stop(t.Context()) })
	app.recorder = recorder

	blocking := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	w := httptest.NewRecorder()
	app.timeout(blocking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/alice/dashboard", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read trace directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d trace files, want 1", len(entries))
	}
}

func Test_application_recoverPanic(t *testing.T) {
	app := newTestApplication(t, time.Second)
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("difficulty went sideways")
	})

	w := httptest.NewRecorder()
	app.recoverPanic(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(body.Error, "sideways") {
		t.Errorf("panic details leaked to the client: %q", body.Error)
	}
}

func Test_application_withUser(t *testing.T) {
	app := newTestApplication(t, time.Second)
	var gotUser string
	mux := http.NewServeMux()
	mux.Handle("GET /users/{userID}/profile", app.withUser(http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		gotUser = r.PathValue("userID")
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name     string
		userID   string
		wantCode int
	}{
		{name: "regular id", userID: "alice", wantCode: http.StatusOK},
		{name: "longest id", userID: strings.Repeat("a", maxUserIDLength), wantCode: http.StatusOK},
		{name: "too long", userID: strings.Repeat("a", maxUserIDLength+1), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+tt.userID+"/profile", nil))
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && gotUser != tt.userID {
				t.Errorf("handler saw user %q, want %q", gotUser, tt.userID)
			}
		})
	}
}
