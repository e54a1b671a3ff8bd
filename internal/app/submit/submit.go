package submit

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage"
)

// Runner executes a translation task until it reaches a terminal state.
type Runner interface {
	Run(ctx context.Context, taskID string) error
}

// ServiceConfig is the configuration for the submit service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Runner     Runner
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Submit"})
	return nil
}

// Service handles translation task submission business logic.
type Service struct {
	repo   storage.TaskRepository
	runner Runner
	logger log.Logger
}

// NewService creates a new submit service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

// SubmitOptions are the options for submitting a translation task.
type SubmitOptions struct {
	Spec model.JobSpec
	// Wait runs the task to completion on the calling goroutine instead of
	// in the background.
	Wait bool
}

// Submit validates the job, creates its task record and starts the
// translation. In background mode the returned record is the pending
// snapshot; in wait mode it is the terminal one and the run error is
// returned alongside it.
func (s *Service) Submit(ctx context.Context, opts SubmitOptions) (*model.Task, error) {
	// 1. Validate the job spec.
	if err := opts.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	// 2. The input workbook must exist before a record is created.
	if _, err := os.Stat(opts.Spec.InputFile); err != nil {
		return nil, fmt.Errorf("input file %q is not readable: %w", opts.Spec.InputFile, model.ErrNotValid)
	}

	// 3. Create the task record.
	task := model.Task{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String(),
		Spec:      opts.Spec,
		Status:    model.TaskStatusPending,
		Message:   "task queued",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("could not save task: %w", err)
	}

	s.logger.Infof("Submitted task %s for %s", task.ID, task.Spec.InputFile)

	// 4. Run it.
	if opts.Wait {
		runErr := s.runner.Run(ctx, task.ID)

		final, err := s.repo.GetTask(ctx, task.ID)
		if err != nil {
			return &task, fmt.Errorf("could not load task result: %w", err)
		}
		return final, runErr
	}

	// The task outlives the submission request, so its context must too.
	go func() {
		if err := s.runner.Run(context.WithoutCancel(ctx), task.ID); err != nil {
			s.logger.Errorf("Background task %s failed: %s", task.ID, err)
		}
	}()

	return &task, nil
}
