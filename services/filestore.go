package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors for file store failures. Callers branch on these with
// errors.Is; both are recoverable conditions, never fatal to a session.
var (
	// ErrNotFound means a path segment no longer resolves (moved/renamed file).
	ErrNotFound = errors.New("file not found")
	// ErrAccessDenied means permission to the root was not granted or was revoked.
	ErrAccessDenied = errors.New("access denied")
)

// DirEntry is one child of a listed directory.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDirectory"`
}

// FileStore is a hierarchical read-only file tree rooted at one selected
// directory. All paths are '/'-joined and relative to the root; no path may
// escape it. Reads are idempotent, so callers are free to cache by path.
type FileStore interface {
	// ReadText returns the full text content of a file.
	ReadText(path string) (string, error)
	// Open returns a readable stream for binary content. The caller closes it.
	Open(path string) (io.ReadCloser, error)
	// Stat reports size for a file path.
	Stat(path string) (int64, error)
	// List returns the children of a directory, sorted by name.
	List(dir string) ([]DirEntry, error)
	// Root returns the display name of the root folder.
	Root() string
}

// dirStore implements FileStore against the local filesystem.
type dirStore struct {
	rootPath string
}

// NewDirStore creates a file store jailed to rootPath. The directory must
// exist and be readable.
func NewDirStore(rootPath string) (FileStore, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rootPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccessDenied, rootPath)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, rootPath)
	}

	return &dirStore{rootPath: absRoot}, nil
}

// ValidateRelativePath checks for path traversal attempts and other
// malformed paths. The empty string is valid only as a directory path
// (meaning the root itself).
func ValidateRelativePath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: path traversal not allowed", ErrAccessDenied)
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: absolute paths not allowed", ErrAccessDenied)
	}
	return nil
}

// resolve maps a relative '/'-separated path to an absolute one inside the
// root, rejecting anything that would escape it.
func (s *dirStore) resolve(path string) (string, error) {
	if err := ValidateRelativePath(path); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(path))
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if absPath != s.rootPath && !strings.HasPrefix(absPath, s.rootPath+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes root", ErrAccessDenied)
	}
	return absPath, nil
}

func mapFSError(err error, path string) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, path)
	}
	return err
}

func (s *dirStore) ReadText(path string) (string, error) {
	absPath, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", mapFSError(err, path)
	}
	return string(data), nil
}

func (s *dirStore) Open(path string) (io.ReadCloser, error) {
	absPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, mapFSError(err, path)
	}
	return file, nil
}

func (s *dirStore) Stat(path string) (int64, error) {
	absPath, err := s.resolve(path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return 0, mapFSError(err, path)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	return info.Size(), nil
}

func (s *dirStore) List(dir string) ([]DirEntry, error) {
	absPath, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, mapFSError(err, dir)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, DirEntry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *dirStore) Root() string {
	return filepath.Base(s.rootPath)
}
