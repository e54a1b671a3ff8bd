package io_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taozh/xlfanyi/internal/model"
	storageio "github.com/taozh/xlfanyi/internal/storage/io"
)

func TestGetJobSpec(t *testing.T) {
	tests := map[string]struct {
		yaml    string
		expSpec model.JobSpec
		expErr  bool
	}{
		"A complete job spec should load": {
			yaml: `
input_file: cases.xlsx
sheets: [RT301]
columns: [D, F]
start_row: 2
end_row: 100
credentials:
  app_id: my-app-id
  app_key: my-app-key
`,
			expSpec: model.JobSpec{
				InputFile:   "cases.xlsx",
				Sheets:      []string{"RT301"},
				Columns:     []string{"D", "F"},
				StartRow:    2,
				EndRow:      100,
				Credentials: model.Credentials{AppID: "my-app-id", AppKey: "my-app-key"},
			},
		},

		"Sheets and end row may be omitted": {
			yaml: `
input_file: cases.xlsx
columns: [D]
credentials:
  app_id: my-app-id
  app_key: my-app-key
`,
			expSpec: model.JobSpec{
				InputFile:   "cases.xlsx",
				Columns:     []string{"D"},
				Credentials: model.Credentials{AppID: "my-app-id", AppKey: "my-app-key"},
			},
		},

		"A spec without columns should fail validation": {
			yaml: `
input_file: cases.xlsx
credentials:
  app_id: my-app-id
  app_key: my-app-key
`,
			expErr: true,
		},

		"Invalid YAML should fail": {
			yaml:   "input_file: [unclosed",
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"job.yaml": &fstest.MapFile{Data: []byte(tt.yaml)},
			}

			repo := storageio.NewJobYAMLRepository(fsys)
			spec, err := repo.GetJobSpec(context.Background(), "job.yaml")

			if tt.expErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expSpec, spec)
			}
		})
	}
}

func TestGetJobSpecMissingFile(t *testing.T) {
	repo := storageio.NewJobYAMLRepository(fstest.MapFS{})
	_, err := repo.GetJobSpec(context.Background(), "missing.yaml")
	assert.Error(t, err)
}
