// Package e2etest starts the real server in-process and exposes a JSON client for end-to-end tests.
package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/fitcoach/internal/logging"
	"github.com/myrjola/fitcoach/internal/sqlite"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// RunFunc has the signature of the server's run function.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

type Server struct {
	url        string
	client     *Client
	db         *sql.DB
	cancel     context.CancelCauseFunc
	serverDone chan struct{}
}

// StartServer starts run, waits until /api/healthy answers and registers the shutdown with t.Cleanup.
//
// logSink receives the server logs, usually testhelpers.NewWriter(t). run must log the listen address under
// LogAddrKey and the database DSN under sqlite.LogDsnKey.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	s := &Server{
		url:        "",
		client:     nil,
		db:         nil,
		cancel:     cancel,
		serverDone: make(chan struct{}),
	}
	t.Cleanup(s.Shutdown)

	addrCh := make(chan string, 1)
	dsnCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case LogAddrKey:
				sendOnce(addrCh, a.Value.String())
			case sqlite.LogDsnKey:
				sendOnce(dsnCh, a.Value.String())
			}
			return a
		},
	})))

	go func() {
		defer close(s.serverDone)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server stopped before ready: %w", context.Cause(ctx))
		case addr = <-addrCh:
		case dsn = <-dsnCh:
		}
	}

	s.url = "http://" + addr
	s.client = NewClient(s.url)
	if err := s.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.db = db
	return s, nil
}

// sendOnce delivers v unless a value is already waiting.
func sendOnce(ch chan string, v string) {
	select {
	case ch <- v:
	default:
	}
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB is a direct connection to the server's database for arranging and inspecting state.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.serverDone
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
