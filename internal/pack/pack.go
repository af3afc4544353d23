// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cargo-wapm/pkg/wapmtoml"
)

const (
	publishDirName = "wapm"
	dirMode        = 0o755
)

var (
	// ErrMissingArtifact is returned when a module has no built artifact.
	ErrMissingArtifact = errors.New("no artifact for module")
	// ErrOutsidePackage is returned when a referenced file resolves outside the
	// package directory.
	ErrOutsidePackage = errors.New("file is outside the package directory")
)

type (
	// Request describes one package to assemble.
	Request struct {
		// Dir is the publish directory. It is created if needed.
		Dir string
		// SourceDir is the directory containing Cargo.toml; referenced files are
		// resolved against it.
		SourceDir string
		// Manifest is written as Dir/wapm.toml. It must already be validated.
		Manifest *wapmtoml.Manifest
		// Artifacts maps each module name to its compiled .wasm file.
		Artifacts map[string]string
		// Documents maps a file name recorded in the manifest, such as the
		// readme, to its location relative to SourceDir. Documents may live
		// outside the package directory and are copied next to the manifest.
		Documents map[string]string
	}

	// Error describes a file that could not be placed in the publish directory.
	Error struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("unable to pack %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Dir returns the publish directory of a package: <target-dir>/wapm/<name>.
func Dir(targetDir, packageName string) string {
	return filepath.Join(targetDir, publishDirName, packageName)
}

// Assemble copies everything the manifest references into req.Dir and then
// writes the manifest, so a manifest is only present once its files are. It
// returns the path of the written manifest.
func Assemble(req Request) (string, error) {
	if err := os.MkdirAll(req.Dir, dirMode); err != nil {
		return "", &Error{Path: req.Dir, Err: err}
	}

	for _, mod := range req.Manifest.Modules {
		artifact, ok := req.Artifacts[mod.Name]
		if !ok {
			return "", &Error{Path: mod.Source, Err: fmt.Errorf("%w %q", ErrMissingArtifact, mod.Name)}
		}
		if err := copyInto(artifact, req.Dir, mod.Source); err != nil {
			return "", err
		}
	}

	for _, rel := range req.Manifest.ReferencedFiles() {
		src, err := req.locate(rel)
		if err != nil {
			return "", err
		}
		if err := copyInto(src, req.Dir, rel); err != nil {
			return "", err
		}
	}

	for _, guest := range sortedKeys(req.Manifest.Fs) {
		rel := req.Manifest.Fs[guest]
		src, err := resolve(req.SourceDir, rel)
		if err != nil {
			return "", err
		}
		slog.Debug("copying mapped directory", "guest", guest, "host", rel)
		if err := copyDir(src, filepath.Join(req.Dir, rel)); err != nil {
			return "", &Error{Path: src, Err: err}
		}
	}

	manifestPath := filepath.Join(req.Dir, wapmtoml.FileName)
	if err := wapmtoml.Write(req.Manifest, manifestPath); err != nil {
		return "", err
	}
	return manifestPath, nil
}

// locate returns the file on disk for a path named in the manifest.
func (req Request) locate(rel string) (string, error) {
	doc, ok := req.Documents[rel]
	if !ok {
		return resolve(req.SourceDir, rel)
	}
	if filepath.IsAbs(doc) {
		return doc, nil
	}
	return filepath.Join(req.SourceDir, doc), nil
}

// resolve joins rel onto base and rejects paths that leave base.
func resolve(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", &Error{Path: rel, Err: ErrOutsidePackage}
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &Error{Path: rel, Err: ErrOutsidePackage}
	}
	return filepath.Join(base, clean), nil
}

// copyInto copies src to dir/rel, creating intermediate directories.
func copyInto(src, dir, rel string) error {
	dst := filepath.Join(dir, filepath.Clean(rel))
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return &Error{Path: src, Err: err}
	}
	slog.Debug("copying file", "from", src, "to", dst)
	if err := copyFile(src, dst); err != nil {
		return &Error{Path: src, Err: err}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }() // Read-only file; close error non-critical

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err = dstFile.ReadFrom(srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}
	if err := os.MkdirAll(dst, dirMode); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", srcPath)
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
