package state

import (
	"errors"
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/apodwall/internal/fsx"
)

// File is the durable single-slot record of the last applied image URL.
// Each write replaces the whole file; nothing is ever appended or deleted.
type File struct {
	path string
}

type fileContents struct {
	LastURL string `toml:"last_url"`
}

// NewFile returns a File persisted at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// LastURL returns the recorded URL, or "" when nothing has been applied yet.
func (f *File) LastURL() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read state: %w", err)
	}
	var raw fileContents
	if err := toml.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("parse state: %w", err)
	}
	return strings.TrimSpace(raw.LastURL), nil
}

// SetLastURL overwrites the recorded URL.
func (f *File) SetLastURL(url string) error {
	data, err := toml.Marshal(fileContents{LastURL: url})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := fsx.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
