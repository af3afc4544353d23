// SPDX-License-Identifier: MPL-2.0

package wapmtoml

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const manifestFileMode = 0o644

// ErrIoFailure is the sentinel error wrapped by WriteError.
var ErrIoFailure = errors.New("manifest I/O failure")

// WriteError is returned when a manifest cannot be persisted or read. It wraps
// both ErrIoFailure and the underlying cause.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrIoFailure and the underlying cause.
func (e *WriteError) Unwrap() []error { return []error{ErrIoFailure, e.Err} }

// Write persists the manifest at destination, replacing any existing file.
//
// The document is written to a temporary file in the destination directory,
// synced and renamed over the destination, so the destination either holds
// the complete new manifest or is left untouched. The caller is responsible
// for validating the manifest first.
func Write(m *Manifest, destination string) (err error) {
	data, err := Encode(m)
	if err != nil {
		return &WriteError{Path: destination, Op: "encode", Err: err}
	}

	dir := filepath.Dir(destination)
	tmp, err := os.CreateTemp(dir, "."+FileName+"-*")
	if err != nil {
		return &WriteError{Path: destination, Op: "create temporary file for", Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("failed to remove temporary manifest", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: destination, Op: "write", Err: err}
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: destination, Op: "sync", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &WriteError{Path: destination, Op: "close", Err: err}
	}
	if err = os.Chmod(tmpPath, manifestFileMode); err != nil {
		return &WriteError{Path: destination, Op: "chmod", Err: err}
	}
	if err = os.Rename(tmpPath, destination); err != nil {
		return &WriteError{Path: destination, Op: "replace", Err: err}
	}

	slog.Debug("wrote manifest", "path", destination, "bytes", len(data))
	return nil
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &WriteError{Path: path, Op: "read", Err: err}
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
