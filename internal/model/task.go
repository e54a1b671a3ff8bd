package model

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a translation task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being processed.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished and the output file was written.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task ended with an error.
	TaskStatusFailed TaskStatus = "failed"
)

// Terminal reports whether the status is final. No transition leaves a
// terminal status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Credentials are the translation service API credentials.
type Credentials struct {
	AppID  string
	AppKey string
}

// JobSpec is the immutable specification of a translation job.
type JobSpec struct {
	// InputFile is the path of the workbook to translate.
	InputFile string
	// Sheets are the worksheet names to process. Empty means all sheets.
	Sheets []string
	// Columns are the column letters to translate (e.g. "A", "D").
	Columns []string
	// StartRow is the first row to process (1-based, inclusive).
	StartRow int
	// EndRow is the last row to process (inclusive). Zero means to the
	// sheet's last row.
	EndRow int
	// Credentials for the remote translation service.
	Credentials Credentials
}

// Validate validates the job specification.
func (s *JobSpec) Validate() error {
	if s.InputFile == "" {
		return fmt.Errorf("input file is required: %w", ErrNotValid)
	}

	if len(s.Columns) == 0 {
		return fmt.Errorf("at least one column is required: %w", ErrNotValid)
	}

	if s.StartRow < 0 || s.EndRow < 0 {
		return fmt.Errorf("row numbers cannot be negative: %w", ErrNotValid)
	}

	if s.Credentials.AppID == "" || s.Credentials.AppKey == "" {
		return fmt.Errorf("translation credentials are required: %w", ErrNotValid)
	}

	return nil
}

// Task is the record of a single translation job. It is owned by the engine
// while running and read-only for pollers.
type Task struct {
	ID   string
	Spec JobSpec

	Status   TaskStatus
	Progress int

	TotalCells      int
	TranslatedCells int
	ErrorCells      int
	SkippedCells    int

	CurrentSheet string
	CurrentCell  string
	Message      string
	OutputFile   string

	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

// Processed returns the number of cells handled so far.
func (t Task) Processed() int {
	return t.TranslatedCells + t.ErrorCells + t.SkippedCells
}

// Elapsed returns the task run duration: end minus start when finished,
// now minus start while running, zero before start.
func (t Task) Elapsed(now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	if t.EndedAt != nil {
		return t.EndedAt.Sub(*t.StartedAt)
	}
	return now.Sub(*t.StartedAt)
}
