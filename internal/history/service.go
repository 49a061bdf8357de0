package history

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Result is what a recorded operation reports back on success.
type Result struct {
	Frames int
	People int
}

// Recorder is the part of Service the HTTP layer and tray depend on.
type Recorder interface {
	Record(ctx context.Context, operation, selection string, fn func() (Result, error)) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	CountRuns(ctx context.Context) (int, error)
}

// Service records transform runs and owns the agent's persistent settings.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Start stores a new run in the running state.
func (s *Service) Start(ctx context.Context, operation, selection string) (*Run, error) {
	now := s.now()
	run := &Run{
		ID:        NewID(),
		Operation: operation,
		Status:    StatusRunning,
		Selection: selection,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// Finish marks run completed, or failed when runErr is non-nil.
func (s *Service) Finish(ctx context.Context, run *Run, res Result, runErr error) error {
	now := s.now()
	run.UpdatedAt = now
	run.DurationMS = now.Sub(run.CreatedAt).Milliseconds()
	run.Frames = res.Frames
	run.People = res.People
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = StatusCompleted
	}

	if err := s.repo.FinishRun(ctx, run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("run finished",
			"run_id", run.ID,
			"operation", run.Operation,
			"status", run.Status,
			"frames", run.Frames,
			"duration_ms", run.DurationMS,
		)
	}
	return nil
}

// Record runs fn between Start and Finish. A failure to record is logged and
// never hides fn's own result.
func (s *Service) Record(ctx context.Context, operation, selection string, fn func() (Result, error)) error {
	run, err := s.Start(ctx, operation, selection)
	if err != nil && s.logger != nil {
		s.logger.Warn("failed to record run", "operation", operation, "error", err)
	}

	res, runErr := fn()

	if run != nil {
		// the request context may already be done; the row still needs closing
		if err := s.Finish(context.WithoutCancel(ctx), run, res, runErr); err != nil && s.logger != nil {
			s.logger.Warn("failed to finish run", "run_id", run.ID, "error", err)
		}
	}
	return runErr
}

func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.repo.GetRun(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return s.repo.ListRuns(ctx, limit)
}

func (s *Service) CountRuns(ctx context.Context) (int, error) {
	return s.repo.CountRuns(ctx)
}

// EnsureSecret returns the config value for key, generating and storing a
// random hex string of n bytes the first time.
func (s *Service) EnsureSecret(ctx context.Context, key string, n int) (string, error) {
	existing, err := s.repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := hex.EncodeToString(b)

	if err := s.repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
