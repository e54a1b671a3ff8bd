package list

import (
	"context"
	"fmt"

	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Repository storage.TaskRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists translation tasks.
type Service struct {
	repo   storage.TaskRepository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// Status filters the result down to tasks in that state. Empty means
	// every task.
	Status model.TaskStatus
}

// Run lists tasks, newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	if req.Status == "" {
		return tasks, nil
	}

	filtered := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == req.Status {
			filtered = append(filtered, task)
		}
	}

	s.logger.Debugf("listed %d of %d tasks with status %s", len(filtered), len(tasks), req.Status)

	return filtered, nil
}
