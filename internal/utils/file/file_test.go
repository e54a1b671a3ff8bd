package file_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taozh/xlfanyi/internal/utils/file"
)

func TestBackupCopy(t *testing.T) {
	t.Run("A backup should carry the content and the naming convention", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cases.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("workbook-bytes"), 0o644))

		backup, err := file.BackupCopy(path)
		require.NoError(t, err)

		name := filepath.Base(backup)
		assert.True(t, strings.HasPrefix(name, "cases_backup_"))
		assert.True(t, strings.HasSuffix(name, ".xlsx"))

		got, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Equal(t, []byte("workbook-bytes"), got)

		// The original is untouched.
		orig, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("workbook-bytes"), orig)
	})

	t.Run("A missing source should fail", func(t *testing.T) {
		_, err := file.BackupCopy(filepath.Join(t.TempDir(), "missing.xlsx"))
		assert.Error(t, err)
	})
}
