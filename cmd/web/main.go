package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/coaching"
	"github.com/myrjola/fitcoach/internal/envstruct"
	"github.com/myrjola/fitcoach/internal/errors"
	"github.com/myrjola/fitcoach/internal/flightrecorder"
	"github.com/myrjola/fitcoach/internal/logging"
	"github.com/myrjola/fitcoach/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	coach          *coaching.Service
	recorder       *flightrecorder.Recorder
	requestTimeout time.Duration
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"FITCOACH_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITCOACH_SQLITE_URL" envDefault:"./fitcoach.sqlite3"`
	// TuningPath is an optional YAML file overriding the adjustment rates and bounds.
	TuningPath string `env:"FITCOACH_TUNING_PATH" envDefault:""`
	// RequestTimeout bounds the time a handler may take. The server write timeout is derived from it.
	RequestTimeout time.Duration `env:"FITCOACH_REQUEST_TIMEOUT" envDefault:"2s"`
	// TracesDir enables the flight recorder. Requests that time out dump an execution trace there.
	TracesDir string `env:"FITCOACH_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		cfg config
		err error
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive", slog.Duration("timeout", cfg.RequestTimeout))
	}

	engine := adaptive.DefaultEngine()
	if cfg.TuningPath != "" {
		var tuning adaptive.Tuning
		if tuning, err = adaptive.LoadTuning(cfg.TuningPath); err != nil {
			return errors.Wrap(err, "load tuning", slog.String("path", cfg.TuningPath))
		}
		if engine, err = adaptive.NewEngine(tuning); err != nil {
			return errors.Wrap(err, "new engine", slog.String("path", cfg.TuningPath))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "loaded tuning", slog.String("path", cfg.TuningPath))
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Directory: cfg.TracesDir,
			MinAge:    0,
			MaxBytes:  0,
			Cooldown:  0,
		}, logger); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "failed closing db",
				errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := application{
		logger:         logger,
		coach:          coaching.NewService(db, engine, nil, logger),
		recorder:       recorder,
		requestTimeout: cfg.RequestTimeout,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
