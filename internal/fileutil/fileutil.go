// Package fileutil provides file, path, and scratch-directory helpers.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sentinel errors for file utility operations.
var (
	ErrNameEmpty         = errors.New("file name cannot be empty")
	ErrNamePathTraversal = errors.New("file name contains path separator or null byte")
)

// scratchPrefix names every scratch directory so leftovers are easy to spot.
const scratchPrefix = "docxtpl-"

// ScratchDir is a request-scoped temporary directory.
// Create it with NewScratchDir and always defer Cleanup: the directory and
// everything written inside it are removed exactly once, on every exit path.
type ScratchDir struct {
	path string
	once sync.Once
	err  error
}

// NewScratchDir creates a uniquely named directory under the system temp area.
// Concurrent callers never share a directory.
func NewScratchDir() (*ScratchDir, error) {
	dir, err := os.MkdirTemp("", scratchPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &ScratchDir{path: dir}, nil
}

// Path returns the absolute directory path.
func (s *ScratchDir) Path() string {
	return s.path
}

// Join returns a path inside the scratch directory.
func (s *ScratchDir) Join(elem ...string) string {
	return filepath.Join(append([]string{s.path}, elem...)...)
}

// WriteFile writes data to a file named name inside the directory.
func (s *ScratchDir) WriteFile(name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	p := s.Join(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	return p, nil
}

// Mkdir creates a subdirectory and returns its path.
func (s *ScratchDir) Mkdir(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	p := s.Join(name)
	if err := os.Mkdir(p, 0o700); err != nil {
		return "", fmt.Errorf("creating scratch subdirectory: %w", err)
	}
	return p, nil
}

// Cleanup removes the directory tree. Safe to call more than once.
func (s *ScratchDir) Cleanup() error {
	s.once.Do(func() {
		s.err = os.RemoveAll(s.path)
	})
	return s.err
}

// ValidateName checks that name is a single path element safe for scratch files.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return ErrNamePathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "contract" -> false (name)
//   - "./contract.docx" -> true (relative path)
//   - "/srv/assets/contract.docx" -> true (absolute)
//   - "C:\templates\contract.docx" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
