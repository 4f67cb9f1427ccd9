package spool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docdocs-backend/internal/shared/util"
)

// ErrTooLarge is returned when an upload exceeds the configured byte limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// File is a spooled upload on local disk.
type File struct {
	Path string
	Size int64
}

// Spool writes uploads to a scratch directory so parsers can read them by path.
type Spool struct {
	baseDir string
}

// New creates a spool rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Spool, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir spool: %w", err)
	}
	return &Spool{baseDir: baseDir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.baseDir
}

// Save copies r into a uniquely named file that keeps fileName's extension. A limit of
// zero or less disables the size check. The partial file is removed on failure.
func (s *Spool) Save(ctx context.Context, fileName string, r io.Reader, limit int64) (File, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return File{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	fullPath := filepath.Join(s.baseDir, fmt.Sprintf("%s_%s", uuid.NewString(), sanitized))
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return File{}, fmt.Errorf("open spool file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("write spool file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close spool file: %w", closeErr)
	case limit > 0 && written > limit:
		err = fmt.Errorf("%s: %w", sanitized, ErrTooLarge)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return File{}, err
	}
	return File{Path: fullPath, Size: written}, nil
}

// Remove deletes a spooled file. Paths outside the spool are rejected and a file that
// is already gone is not an error.
func (s *Spool) Remove(path string) error {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("invalid spool path %q", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
