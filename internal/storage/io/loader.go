package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/taozh/xlfanyi/internal/model"
)

// JobYAMLRepository loads translation job specifications from YAML files.
type JobYAMLRepository struct {
	fs fs.FS
}

// NewJobYAMLRepository creates a new YAML job spec repository.
func NewJobYAMLRepository(filesystem fs.FS) *JobYAMLRepository {
	return &JobYAMLRepository{fs: filesystem}
}

// GetJobSpec loads a job specification from a YAML file and returns a
// validated domain model.
func (r *JobYAMLRepository) GetJobSpec(ctx context.Context, path string) (model.JobSpec, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.JobSpec{}, fmt.Errorf("reading job file: %w", err)
	}

	if ctx.Err() != nil {
		return model.JobSpec{}, ctx.Err()
	}

	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return model.JobSpec{}, fmt.Errorf("parsing YAML: %w", err)
	}

	m := spec.toModel()
	if err := m.Validate(); err != nil {
		return model.JobSpec{}, fmt.Errorf("invalid job spec: %w", err)
	}

	return m, nil
}

// JobSpec represents the YAML structure for a translation job.
type JobSpec struct {
	InputFile   string            `yaml:"input_file"`
	Sheets      []string          `yaml:"sheets"`
	Columns     []string          `yaml:"columns"`
	StartRow    int               `yaml:"start_row"`
	EndRow      int               `yaml:"end_row"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// CredentialsConfig represents the YAML structure for API credentials.
type CredentialsConfig struct {
	AppID  string `yaml:"app_id"`
	AppKey string `yaml:"app_key"`
}

func (s JobSpec) toModel() model.JobSpec {
	return model.JobSpec{
		InputFile: s.InputFile,
		Sheets:    s.Sheets,
		Columns:   s.Columns,
		StartRow:  s.StartRow,
		EndRow:    s.EndRow,
		Credentials: model.Credentials{
			AppID:  s.Credentials.AppID,
			AppKey: s.Credentials.AppKey,
		},
	}
}
