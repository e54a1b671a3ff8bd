package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default xlfanyi data directory name (relative to home).
	DefaultDataDir = ".xlfanyi"
	// DBFile is the sqlite task database filename.
	DBFile = "xlfanyi.db"
	// UploadsDir is the subdirectory for uploaded workbooks.
	UploadsDir = "uploads"
	// OutputsDir is the subdirectory for translated workbooks.
	OutputsDir = "outputs"
)

// DBPath returns the full path of the task database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// UploadsPath returns the directory uploaded workbooks are stored in.
func UploadsPath(dataDir string) string {
	return filepath.Join(dataDir, UploadsDir)
}

// OutputsPath returns the directory translated workbooks are written to.
func OutputsPath(dataDir string) string {
	return filepath.Join(dataDir, OutputsDir)
}
