package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"surfside/internal/models"

	"gopkg.in/yaml.v2"
)

type instructorsFile struct {
	Instructors []*models.Instructor `yaml:"instructors"`
}

// LoadInstructors reads the roster seed file. A missing file yields the
// built-in default roster.
func LoadInstructors(path string) ([]*models.Instructor, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultInstructors(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read instructors file: %w", err)
	}

	var file instructorsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse instructors file: %w", err)
	}
	if len(file.Instructors) == 0 {
		return models.DefaultInstructors(), nil
	}

	for i, inst := range file.Instructors {
		if inst.SortOrder == 0 {
			inst.SortOrder = int64(i)
		}
	}

	if err := ValidateInstructors(file.Instructors); err != nil {
		return nil, err
	}
	return file.Instructors, nil
}
