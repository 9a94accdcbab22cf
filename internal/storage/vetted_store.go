package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied name to a safe basename.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// Extension returns the lower-cased extension without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// HasAllowedExtension checks the filename against an allow-list of extensions.
func HasAllowedExtension(name string, allowed []string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if ext == candidate {
			return true
		}
	}
	return false
}

// VettedStore writes attachments that passed scanning into a single directory.
type VettedStore struct {
	dir string
}

// NewVettedStore creates the directory when missing.
func NewVettedStore(dir string) (*VettedStore, error) {
	if dir == "" {
		return nil, errors.New("vetted storage directory required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create vetted dir: %w", err)
	}
	return &VettedStore{dir: dir}, nil
}

// Dir returns the storage root.
func (s *VettedStore) Dir() string {
	return s.dir
}

// Save writes content under a name derived from the sanitized filename and
// returns the stored path. The file appears atomically.
func (s *VettedStore) Save(filename string, content []byte) (string, error) {
	safe := SanitizeFilename(filename)
	if safe == "" {
		safe = "attachment"
	}
	finalPath := filepath.Join(s.dir, uuid.NewString()[:8]+"_"+safe)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close attachment: %w", err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("move attachment: %w", err)
	}
	return finalPath, nil
}

// Remove deletes a stored attachment; a missing file is not an error.
func (s *VettedStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
