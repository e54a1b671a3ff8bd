// Package file provides file utility functions for workbook handling.
package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// backupTimestampLayout is second-granularity, enough because the backup
// name also keeps the original base name.
const backupTimestampLayout = "20060102_150405"

// BackupCopy copies path next to itself as <base>_backup_<timestamp><ext>
// and returns the backup path. The original file is left untouched.
func BackupCopy(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open %s: %w", path, err)
	}
	defer src.Close()

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backupPath := fmt.Sprintf("%s_backup_%s%s", base, time.Now().UTC().Format(backupTimestampLayout), ext)

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("could not create backup %s: %w", backupPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("could not copy to backup %s: %w", backupPath, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("could not close backup %s: %w", backupPath, err)
	}

	return backupPath, nil
}
