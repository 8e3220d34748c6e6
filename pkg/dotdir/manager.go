// Package dotdir manages the .quill/ and ~/.quill directories.
//
// The directory holds config.toml, the chat REPL history and the last chat
// session so "quill chat --resume" can pick a conversation back up.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the quill directory.
	dirName = ".quill"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .quill/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.quill/ dir
//  3. Home ~/.quill/ dir
//
// If none of these resolve, Target returns an empty string and no error.
// Callers that must write state should use Ensure instead.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating quill directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if isDir(filepath.Join(cwd, dirName)) {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if isDir(filepath.Join(home, dirName)) {
		return filepath.Join(home, dirName), nil
	}

	return "", nil
}

// Ensure behaves like Target but creates ~/.quill/ when nothing else resolves.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	if dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir = filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating quill directory %s: %w", dir, err)
	}

	return dir, nil
}

// Path joins name onto the ensured quill directory.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	if name == "" {
		return "", errors.New("empty file name")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
