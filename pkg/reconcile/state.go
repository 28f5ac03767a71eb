package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
)

// StateExt is the file extension of persisted fingerprints.
const StateExt = ".hash"

// CacheStateError reports a persisted fingerprint that could not be read or
// written. Read failures only force a full resync; write failures are
// returned to the caller.
type CacheStateError struct {
	Path string
	Op   string // "read", "write" or "remove"
	Err  error
}

func (e *CacheStateError) Error() string {
	return fmt.Sprintf("%s cache state %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheStateError) Unwrap() error { return e.Err }

// StatePath returns the fingerprint file of scope under dir.
func StatePath(dir string, scope deps.Scope) string {
	return filepath.Join(dir, scope.String()+StateExt)
}

// ReadState returns the fingerprint stored at path. A missing file returns
// an empty fingerprint and no error.
func ReadState(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", &CacheStateError{Path: path, Op: "read", Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteState replaces the fingerprint stored at path. The file is written
// to a temporary name and renamed into place.
func WriteState(path, fingerprint string) error {
	if err := writeFile(path, []byte(fingerprint+"\n")); err != nil {
		return &CacheStateError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// RemoveState deletes the fingerprint at path, if any.
func RemoveState(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &CacheStateError{Path: path, Op: "remove", Err: err}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".depsync-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
