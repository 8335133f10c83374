package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/coaching"
	"github.com/myrjola/fitcoach/internal/e2etest"
	"github.com/myrjola/fitcoach/internal/logging"
	"github.com/myrjola/fitcoach/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	defaultUsers            = 20
	submissionsPerUser      = 10
	maxConcurrentOperations = 20
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	testTimeout             = 2 * time.Minute
)

type stats struct {
	requests atomic.Int64
	failures atomic.Int64
}

func (s *stats) record(err error) {
	s.requests.Add(1)
	if err != nil {
		s.failures.Add(1)
	}
}

func (s *stats) successRate() float64 {
	total := s.requests.Load()
	if total == 0 {
		return 0
	}
	return float64(total-s.failures.Load()) / float64(total) * percentageMultiplier
}

// userScenario hammers one profile with concurrent submissions and checks that none of them got lost.
func userScenario(ctx context.Context, client *e2etest.Client, st *stats, logger *slog.Logger) error {
	base := "/users/stresstest-" + uuid.NewString()
	tier := adaptive.Tiers()[rand.IntN(len(adaptive.Tiers()))] //nolint:gosec // load generation
	err := client.PutJSON(ctx, base+"/profile",
		map[string]string{"fitnessLevel": string(tier), "workoutFrequency": "flexible"}, nil)
	st.record(err)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for range submissionsPerUser {
		g.Go(func() error {
			f := adaptive.Feedbacks()[rand.IntN(len(adaptive.Feedbacks()))] //nolint:gosec // load generation
			submitErr := client.PostJSON(gctx, base+"/feedback", map[string]string{"feedback": string(f)}, nil)
			st.record(submitErr)
			return submitErr
		})
		g.Go(func() error {
			daysAgo := rand.IntN(28) //nolint:gosec,mnd // four weeks
			workoutErr := client.PostJSON(gctx, base+"/workouts", map[string]any{
				"date":      time.Now().AddDate(0, 0, -daysAgo).Format("2006-01-02"),
				"completed": rand.IntN(4) > 0, //nolint:gosec,mnd // mostly completed
				"rating":    rand.IntN(5) + 1, //nolint:gosec,mnd // 1-5
			}, nil)
			st.record(workoutErr)
			return workoutErr
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("submissions: %w", err)
	}

	var p coaching.Profile
	err = client.GetJSON(ctx, base+"/profile", &p)
	st.record(err)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	if len(p.History) != min(submissionsPerUser, adaptive.MaxHistory) {
		return fmt.Errorf("history has %d entries after %d submissions", len(p.History), submissionsPerUser)
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "user scenario done",
		slog.String("tier", string(tier)), slog.Float64("difficulty", p.DifficultyLevel))
	return nil
}

func runLoadTest(ctx context.Context, client *e2etest.Client, users int, logger *slog.Logger) (*stats, error) {
	st := &stats{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	var errs atomic.Pointer[error]
	for range users {
		g.Go(func() error {
			if err := userScenario(gctx, client, st, logger); err != nil {
				logger.LogAttrs(gctx, slog.LevelWarn, "user scenario failed", slog.Any("error", err))
				errs.CompareAndSwap(nil, &err)
			}
			// The success rate covers the whole run.
			return nil
		})
	}
	_ = g.Wait()
	if first := errs.Load(); first != nil {
		return st, *first
	}
	return st, nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if len(os.Args) < 2 || len(os.Args) > 3 { //nolint:mnd // hostname and optional user count
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname> [users]")
		os.Exit(1)
	}
	hostname := os.Args[1]
	users := defaultUsers
	if len(os.Args) == 3 { //nolint:mnd // user count given
		var err error
		if users, err = strconv.Atoi(os.Args[2]); err != nil || users <= 0 {
			logger.LogAttrs(ctx, slog.LevelError, "users must be a positive integer", slog.String("users", os.Args[2]))
			os.Exit(1)
		}
	}

	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname), slog.Int("users", users))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}
	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	start := time.Now()
	st, err := runLoadTest(ctx, client, users, logger)
	rate := st.successRate()
	logger.LogAttrs(ctx, slog.LevelInfo, "load test finished",
		slog.Int64("requests", st.requests.Load()),
		slog.Int64("failures", st.failures.Load()),
		slog.Float64("success_rate", rate),
		slog.Duration("duration", time.Since(start)))

	if err != nil || rate < successRateThreshold {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}
}
