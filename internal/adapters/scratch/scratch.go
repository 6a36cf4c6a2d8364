// Package scratch manages the temporary files used to build upload payloads.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Dir hands out uniquely named files below a base directory.
type Dir struct {
	base string
}

// New returns a Dir rooted at base, or at the system temp dir when base is empty.
func New(base string) *Dir {
	if base == "" {
		base = filepath.Join(os.TempDir(), "connectorseed")
	}
	return &Dir{base: base}
}

// File is a scratch file exclusively owned by one delivery.
type File struct {
	Path string
}

// Remove deletes the file. Safe to call more than once.
func (f *File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Open reopens the file for reading.
func (f *File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Write stores data in a new file whose name is derived from stem and ext.
// The caller must Remove the file once the upload call returns.
func (d *Dir) Write(stem, ext string, data []byte) (*File, error) {
	if err := os.MkdirAll(d.base, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s%s", unsafeChars.ReplaceAllString(stem, "_"), uuid.NewString(), ext)
	path := filepath.Join(d.base, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	return &File{Path: path}, nil
}

// Sweep removes files older than maxAge, left behind by a process that died
// mid-upload. It returns the number of files removed.
func (d *Dir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.base)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.base, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove stale scratch file: %w", err)
		}
		removed++
	}
	return removed, nil
}
