package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.TaskRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const taskColumns = `
	id, input_file, sheets, columns, start_row, end_row, app_id, app_key,
	status, progress,
	total_cells, translated_cells, error_cells, skipped_cells,
	current_sheet, current_cell, message, output_file,
	created_at, started_at, ended_at
`

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	sheets, columns, err := marshalSpecLists(t.Spec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.Spec.InputFile,
		sheets,
		columns,
		t.Spec.StartRow,
		t.Spec.EndRow,
		t.Spec.Credentials.AppID,
		t.Spec.Credentials.AppKey,
		t.Status,
		t.Progress,
		t.TotalCells,
		t.TranslatedCells,
		t.ErrorCells,
		t.SkippedCells,
		t.CurrentSheet,
		t.CurrentCell,
		t.Message,
		t.OutputFile,
		t.CreatedAt.Unix(),
		unixOrNil(t.StartedAt),
		unixOrNil(t.EndedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert task: %w", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return task, nil
}

// ListTasks returns all tasks ordered by creation time (newest first).
func (r *Repository) ListTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	query := `
		UPDATE tasks SET
			status = ?, progress = ?,
			total_cells = ?, translated_cells = ?, error_cells = ?, skipped_cells = ?,
			current_sheet = ?, current_cell = ?, message = ?, output_file = ?,
			started_at = ?, ended_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		t.Status,
		t.Progress,
		t.TotalCells,
		t.TranslatedCells,
		t.ErrorCells,
		t.SkippedCells,
		t.CurrentSheet,
		t.CurrentCell,
		t.Message,
		t.OutputFile,
		unixOrNil(t.StartedAt),
		unixOrNil(t.EndedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated task in repository: %s", t.ID)
	return nil
}

// DeleteTask deletes a task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted task from repository: %s", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row rowScanner) (*model.Task, error) {
	var (
		t                  model.Task
		sheets, columns    string
		createdAt          int64
		startedAt, endedAt *int64
	)

	err := row.Scan(
		&t.ID,
		&t.Spec.InputFile,
		&sheets,
		&columns,
		&t.Spec.StartRow,
		&t.Spec.EndRow,
		&t.Spec.Credentials.AppID,
		&t.Spec.Credentials.AppKey,
		&t.Status,
		&t.Progress,
		&t.TotalCells,
		&t.TranslatedCells,
		&t.ErrorCells,
		&t.SkippedCells,
		&t.CurrentSheet,
		&t.CurrentCell,
		&t.Message,
		&t.OutputFile,
		&createdAt,
		&startedAt,
		&endedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sheets), &t.Spec.Sheets); err != nil {
		return nil, fmt.Errorf("could not decode sheets: %w", err)
	}
	if err := json.Unmarshal([]byte(columns), &t.Spec.Columns); err != nil {
		return nil, fmt.Errorf("could not decode columns: %w", err)
	}

	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.StartedAt = timeOrNil(startedAt)
	t.EndedAt = timeOrNil(endedAt)

	return &t, nil
}

// marshalSpecLists encodes the sheet and column lists as JSON text. Sheet
// names can contain any character, so a separator-joined encoding is not
// safe.
func marshalSpecLists(spec model.JobSpec) (sheets, columns string, err error) {
	sheetsB, err := json.Marshal(nonNil(spec.Sheets))
	if err != nil {
		return "", "", fmt.Errorf("could not encode sheets: %w", err)
	}
	columnsB, err := json.Marshal(nonNil(spec.Columns))
	if err != nil {
		return "", "", fmt.Errorf("could not encode columns: %w", err)
	}
	return string(sheetsB), string(columnsB), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timeOrNil(u *int64) *time.Time {
	if u == nil {
		return nil
	}
	t := time.Unix(*u, 0).UTC()
	return &t
}
