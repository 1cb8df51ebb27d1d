package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// uploadsDir is the single flat directory under the base path that holds
// every stored file.
const uploadsDir = "uploads"

// Sentinel errors reported by the store. Callers match them with errors.Is
// and translate them into their own response semantics.
var (
	ErrInit     = errors.New("storage init failed")
	ErrUpload   = errors.New("upload failed")
	ErrNotFound = errors.New("file not found")
	ErrRead     = errors.New("read failed")
	ErrRename   = errors.New("rename failed")
)

// Policy controls how Delete reports failures.
type Policy int

const (
	// OnMissingIgnore logs and swallows every delete failure, making Delete
	// idempotent. A missing file is indistinguishable from a permission error.
	OnMissingIgnore Policy = iota

	// OnMissingError returns delete failures like every other operation.
	OnMissingError
)

// Config configures a Storage instance.
type Config struct {
	// BasePath is the root directory under which all files live.
	BasePath string

	// OnMissing selects the delete failure policy. Defaults to OnMissingIgnore.
	OnMissing Policy

	// Logger receives a status line for every operation. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Storage persists files under <BasePath>/uploads, using relative paths of
// the form uploads/<timestamp>-<sanitized-name> as caller-facing handles.
// The store keeps no registry; the relative path string is the sole handle
// and its persistence belongs to the caller.
type Storage struct {
	basePath  string
	onMissing Policy
	log       *slog.Logger

	// lastStamp guards path uniqueness when two derivations land in the
	// same millisecond.
	lastStamp atomic.Int64
}

// New creates a Storage rooted at cfg.BasePath. The uploads directory is not
// created until Init or the first mutating operation.
func New(cfg Config) *Storage {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Storage{
		basePath:  cfg.BasePath,
		onMissing: cfg.OnMissing,
		log:       log,
	}
}

// Init ensures the uploads directory exists. Calling it when the directory
// already exists is a no-op.
func (s *Storage) Init() error {
	dir := filepath.Join(s.basePath, uploadsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.log.Error("Failed to create uploads directory", "dir", dir, "error", err)
		return fmt.Errorf("%w: %s", ErrInit, err)
	}
	return nil
}

// Upload writes content to a newly derived unique path and returns the
// relative path. The file name may contain any characters; it is sanitized
// before use. No cleanup is attempted after a partial write.
func (s *Storage) Upload(content []byte, fileName string) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	relPath := s.newRelPath(fileName)
	absPath := filepath.Join(s.basePath, relPath)

	if err := os.WriteFile(absPath, content, 0644); err != nil {
		s.log.Error("Failed to write file", "path", relPath, "error", err)
		return "", fmt.Errorf("%w: %s", ErrUpload, err)
	}

	s.log.Info("File uploaded", "path", relPath, "size", len(content))
	return relPath, nil
}

// FilePath resolves a relative path to its absolute on-disk location and
// verifies the file is accessible. It reads no content.
func (s *Storage) FilePath(relPath string) (string, error) {
	absPath := filepath.Join(s.basePath, relPath)
	if _, err := os.Stat(absPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	return absPath, nil
}

// Read loads the entire file at relPath into memory. Practical file size is
// bounded by available memory; there is no streaming variant.
func (s *Storage) Read(relPath string) ([]byte, error) {
	absPath, err := s.FilePath(relPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		s.log.Error("Failed to read file", "path", relPath, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrRead, err)
	}

	return content, nil
}

// Delete unlinks the file at relPath without an existence pre-check. Under
// the default OnMissingIgnore policy every failure is logged and swallowed,
// so deleting an already-deleted file is a no-op.
func (s *Storage) Delete(relPath string) error {
	absPath := filepath.Join(s.basePath, relPath)

	if err := os.Remove(absPath); err != nil {
		if s.onMissing == OnMissingError {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrNotFound, relPath)
			}
			return fmt.Errorf("failed to delete file: %w", err)
		}
		s.log.Warn("Failed to delete file", "path", relPath, "error", err)
		return nil
	}

	s.log.Info("File deleted", "path", relPath)
	return nil
}

// Rename moves the file at oldRelPath to a new unique path derived from
// newFileName, the same way Upload derives paths, and returns the new
// relative path. On failure the old path remains valid; atomicity comes from
// the underlying rename primitive.
func (s *Storage) Rename(oldRelPath, newFileName string) (string, error) {
	newRelPath := s.newRelPath(newFileName)
	oldAbs := filepath.Join(s.basePath, oldRelPath)
	newAbs := filepath.Join(s.basePath, newRelPath)

	if err := os.Rename(oldAbs, newAbs); err != nil {
		s.log.Error("Failed to rename file", "from", oldRelPath, "to", newRelPath, "error", err)
		return "", fmt.Errorf("%w: %s", ErrRename, err)
	}

	s.log.Info("File renamed", "from", oldRelPath, "to", newRelPath)
	return newRelPath, nil
}

// Check reports whether the uploads directory is accessible, attempting to
// recreate it as a self-healing step if not. Intended for health checks; it
// never returns an error.
func (s *Storage) Check() bool {
	dir := filepath.Join(s.basePath, uploadsDir)
	if _, err := os.Stat(dir); err == nil {
		return true
	}

	if err := s.Init(); err != nil {
		s.log.Error("Storage check failed", "error", err)
		return false
	}
	return true
}

// newRelPath derives a unique relative path from the current time and the
// sanitized file name. The millisecond stamp is guarded by a monotonic
// counter: if two derivations land in the same millisecond the later one
// uses the previous stamp plus one, so paths stay unique within a process.
func (s *Storage) newRelPath(fileName string) string {
	stamp := time.Now().UnixMilli()
	for {
		last := s.lastStamp.Load()
		if stamp <= last {
			stamp = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, stamp) {
			break
		}
	}
	return filepath.Join(uploadsDir, fmt.Sprintf("%d-%s", stamp, sanitizeName(fileName)))
}

// sanitizeName replaces every rune outside [a-zA-Z0-9.-] with an underscore,
// preserving length and position.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// ContentType maps a file name's extension to a MIME type. The check is
// case-insensitive; unrecognized and missing extensions both fall through to
// application/octet-stream. Pure function, no I/O.
func ContentType(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tiff", "tif":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
