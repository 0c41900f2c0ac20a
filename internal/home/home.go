package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the pressroom home directory.
	DefaultDirName = ".pressroom"

	// DataDirName is the subdirectory for the project database and text data.
	DataDirName = "data"

	// FilesDirName is the subdirectory for hosted files (generated images, covers).
	FilesDirName = "files"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// StylePromptFileName holds the persisted house-style prompt text.
	StylePromptFileName = "style_prompt.txt"
)

// Dir represents the pressroom home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.pressroom).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// FilesPath returns the path to the hosted files directory.
func (d *Dir) FilesPath() string {
	return filepath.Join(d.path, FilesDirName)
}

// FilePath returns the path for a single hosted file.
func (d *Dir) FilePath(name string) string {
	return filepath.Join(d.FilesPath(), name)
}

// DatabasePath returns the path to the sqlite project database.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.DataPath(), "projects.db")
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// StylePromptPath returns the path to the persisted style prompt.
func (d *Dir) StylePromptPath() string {
	return filepath.Join(d.DataPath(), StylePromptFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.FilesPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create files directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
