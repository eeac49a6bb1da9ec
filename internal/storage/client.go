// Package storage abstracts where backup snapshots are kept.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNotFound is returned by Download and GetMetadata for a missing key.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object
type FileInfo struct {
	Path        string
	Size        int64
	ModifiedAt  time.Time
	ContentHash string // Provider-specific content hash (if available)
}

// Client defines the interface for snapshot storage operations
type Client interface {
	// List returns objects whose key starts with prefix, sorted by key
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Download retrieves the contents of an object
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Upload writes content to an object, replacing any existing one
	Upload(ctx context.Context, path string, content io.Reader) error

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, path string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata retrieves object info without downloading content
	GetMetadata(ctx context.Context, path string) (*FileInfo, error)

	// Name identifies the provider in logs and audit events
	Name() string
}

// DownloadToFile copies an object to a local path
func DownloadToFile(ctx context.Context, client Client, remotePath, localPath string) error {
	reader, err := client.Download(ctx, remotePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", localPath, err)
	}
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	return f.Close()
}

// FilterFiles filters file list by a predicate function
func FilterFiles(files []FileInfo, predicate func(FileInfo) bool) []FileInfo {
	var filtered []FileInfo
	for _, f := range files {
		if predicate(f) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// FindLatest returns the most recently modified file from a list.
// Ties go to the greater key, so timestamped names sort correctly.
func FindLatest(files []FileInfo) *FileInfo {
	if len(files) == 0 {
		return nil
	}

	latest := &files[0]
	for i := 1; i < len(files); i++ {
		f := &files[i]
		if f.ModifiedAt.After(latest.ModifiedAt) ||
			(f.ModifiedAt.Equal(latest.ModifiedAt) && f.Path > latest.Path) {
			latest = f
		}
	}
	return latest
}

// SortByPath orders files by key, ascending.
func SortByPath(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
