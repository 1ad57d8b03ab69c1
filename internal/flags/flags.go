// Package flags reads the add-on feature flags.
//
// Flags are captured by an external hook into a directory holding one file
// per flag name; the file content, whitespace-trimmed, is the flag value.
// An absent or empty file means the flag is unset.
package flags

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/cdk-addons/internal/runerr"
)

// Store is a read-only view over flag values.
type Store interface {
	// Get returns the trimmed value of key. When required is true an unset
	// value fails with a MissingConfig error naming the key.
	Get(key string, required bool) (string, error)
}

// Bool reports whether key is set to the literal "true".
func Bool(s Store, key string) (bool, error) {
	v, err := s.Get(key, false)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// GetDefault returns the value of key, or def when unset.
func GetDefault(s Store, key, def string) (string, error) {
	v, err := s.Get(key, false)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// DirStore reads flags from a directory of flat files.
type DirStore struct {
	Dir string
}

// NewDirStore returns a store reading from dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Get implements Store.
func (d *DirStore) Get(key string, required bool) (string, error) {
	if strings.ContainsAny(key, `/\`) || key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid flag key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(d.Dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read flag %s: %w", key, err)
	}

	return check(key, string(data), required)
}

// Static is a map-backed store.
type Static map[string]string

// Get implements Store.
func (s Static) Get(key string, required bool) (string, error) {
	return check(key, s[key], required)
}

func check(key, raw string, required bool) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" && required {
		return "", runerr.MissingConfig(key)
	}
	return v, nil
}
