package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/storage/sqlite"
)

func newTestRepository(t *testing.T) *sqlite.Repository {
	t.Helper()

	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "xlfanyi.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func testTask(id string) model.Task {
	return model.Task{
		ID: id,
		Spec: model.JobSpec{
			InputFile:   "/uploads/cases.xlsx",
			Sheets:      []string{"RT301", "Sheet2"},
			Columns:     []string{"D", "F"},
			StartRow:    2,
			EndRow:      100,
			Credentials: model.Credentials{AppID: "app-id", AppKey: "app-key"},
		},
		Status:    model.TaskStatusPending,
		CreatedAt: time.Date(2025, 6, 23, 10, 0, 0, 0, time.UTC),
	}
}

func TestRepositoryCreateGetTask(t *testing.T) {
	ctx := context.Background()

	t.Run("A created task should round-trip all fields", func(t *testing.T) {
		repo := newTestRepository(t)

		task := testTask("01K3E5WPD6YQ3T5N4M8A7B9C1D")
		require.NoError(t, repo.CreateTask(ctx, task))

		got, err := repo.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, *got)
	})

	t.Run("Creating the same task twice should fail with already exists", func(t *testing.T) {
		repo := newTestRepository(t)

		task := testTask("task1")
		require.NoError(t, repo.CreateTask(ctx, task))

		err := repo.CreateTask(ctx, task)
		assert.True(t, errors.Is(err, model.ErrAlreadyExists))
	})

	t.Run("Getting a missing task should fail with not found", func(t *testing.T) {
		repo := newTestRepository(t)

		_, err := repo.GetTask(ctx, "missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestRepositoryUpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Updating should persist status, counters and timestamps", func(t *testing.T) {
		repo := newTestRepository(t)

		task := testTask("task1")
		require.NoError(t, repo.CreateTask(ctx, task))

		started := time.Date(2025, 6, 23, 10, 1, 0, 0, time.UTC)
		ended := started.Add(2 * time.Minute)

		task.Status = model.TaskStatusCompleted
		task.Progress = 100
		task.TotalCells = 10
		task.TranslatedCells = 8
		task.ErrorCells = 1
		task.SkippedCells = 1
		task.CurrentSheet = "RT301"
		task.CurrentCell = "D10"
		task.Message = "translation finished"
		task.OutputFile = "/uploads/cases_translated_task1.xlsx"
		task.StartedAt = &started
		task.EndedAt = &ended

		require.NoError(t, repo.UpdateTask(ctx, task))

		got, err := repo.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, *got)
	})

	t.Run("Updating a missing task should fail with not found", func(t *testing.T) {
		repo := newTestRepository(t)

		err := repo.UpdateTask(ctx, testTask("missing"))
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestRepositoryListTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("Listing should return newest first", func(t *testing.T) {
		repo := newTestRepository(t)

		older := testTask("older")
		older.CreatedAt = time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)
		newer := testTask("newer")
		newer.CreatedAt = time.Date(2025, 6, 23, 10, 0, 0, 0, time.UTC)

		require.NoError(t, repo.CreateTask(ctx, older))
		require.NoError(t, repo.CreateTask(ctx, newer))

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "newer", tasks[0].ID)
		assert.Equal(t, "older", tasks[1].ID)
	})

	t.Run("Listing an empty repository should return no tasks", func(t *testing.T) {
		repo := newTestRepository(t)

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestRepositoryDeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Deleting should remove the task", func(t *testing.T) {
		repo := newTestRepository(t)

		require.NoError(t, repo.CreateTask(ctx, testTask("task1")))
		require.NoError(t, repo.DeleteTask(ctx, "task1"))

		_, err := repo.GetTask(ctx, "task1")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("Deleting a missing task should fail with not found", func(t *testing.T) {
		repo := newTestRepository(t)

		err := repo.DeleteTask(ctx, "missing")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}
