package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitcoach/internal/adaptive"
	"github.com/myrjola/fitcoach/internal/coaching"
	"github.com/myrjola/fitcoach/internal/e2etest"
	"github.com/myrjola/fitcoach/internal/logging"
	"github.com/myrjola/fitcoach/internal/testhelpers"
)

// checkCoachingFlow creates a throwaway profile, submits one rating and reads the dashboard back.
func checkCoachingFlow(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	base := "/users/smoketest-" + uuid.NewString()
	if err := client.PutJSON(ctx, base+"/profile",
		map[string]string{"fitnessLevel": "fit", "workoutFrequency": "flexible"}, nil); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	var settings adaptive.AdaptiveSettings
	if err := client.PostJSON(ctx, base+"/feedback", map[string]string{"feedback": "too_easy"},
		&settings); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	if settings.DifficultyLevel <= adaptive.DefaultDifficulty {
		return fmt.Errorf("difficulty did not increase: %v", settings.DifficultyLevel)
	}

	var d coaching.Dashboard
	if err := client.GetJSON(ctx, base+"/dashboard", &d); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if d.Profile.DifficultyLevel != settings.DifficultyLevel {
		return fmt.Errorf("dashboard difficulty %v, want %v", d.Profile.DifficultyLevel, settings.DifficultyLevel)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	hostname := os.Args[1]
	start := time.Now()
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := checkCoachingFlow(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "coaching flow failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
