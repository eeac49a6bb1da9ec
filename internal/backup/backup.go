// Package backup writes library snapshots to object storage and restores them.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/storage"
	"github.com/mrlokans/libraryhub/internal/storage/providers/local"
	"github.com/mrlokans/libraryhub/internal/storage/providers/s3"
	"github.com/mrlokans/libraryhub/internal/store"
)

// ErrNoBackups is returned by RestoreLatest when the prefix holds no snapshot.
var ErrNoBackups = errors.New("no backups found")

const keyTimeFormat = "20060102T150405.000000000Z"

// OpenStorage builds the storage client selected by cfg.Provider.
func OpenStorage(ctx context.Context, cfg config.Backup) (storage.Client, error) {
	switch cfg.Provider {
	case config.BackupProviderLocal, "":
		return local.NewClient(cfg.Dir)
	case config.BackupProviderS3:
		return s3.NewClient(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown backup provider %q", cfg.Provider)
	}
}

type Service struct {
	store  *store.Store
	client storage.Client
	prefix string
	keep   int
	now    func() time.Time
	report Reporter

	mu      sync.Mutex
	lastKey time.Time
}

// Reporter is told about every backup attempt. key is empty when the upload
// never happened.
type Reporter func(key string, counts map[string]int, err error)

// SetReporter registers fn to receive the outcome of each Run.
func (s *Service) SetReporter(fn Reporter) {
	s.report = fn
}

func NewService(st *store.Store, client storage.Client, cfg config.Backup) *Service {
	return &Service{
		store:  st,
		client: client,
		prefix: strings.Trim(cfg.Prefix, "/"),
		keep:   cfg.Keep,
		now:    time.Now,
	}
}

// Result describes one completed backup.
type Result struct {
	Key    string         `json:"key"`
	Size   int            `json:"size"`
	Counts map[string]int `json:"counts"`
	Pruned []string       `json:"pruned,omitempty"`
}

// Run exports the store, uploads it under a timestamped key and prunes old
// snapshots beyond the retention count.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	result, err := s.run(ctx)
	if s.report != nil {
		if result != nil {
			s.report(result.Key, result.Counts, nil)
		} else {
			s.report("", nil, err)
		}
	}
	return result, err
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	snap, err := s.store.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := snap.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.key(s.keyTime())
	size := buf.Len()
	if err := s.client.Upload(ctx, key, &buf); err != nil {
		return nil, fmt.Errorf("upload %s to %s: %w", key, s.client.Name(), err)
	}

	counts := make(map[string]int)
	for c, n := range snap.Counts() {
		counts[string(c)] = n
	}
	result := &Result{Key: key, Size: size, Counts: counts}
	log.Printf("Backup: wrote %s (%d bytes) to %s", key, size, s.client.Name())

	pruned, err := s.prune(ctx)
	if err != nil {
		log.Printf("Backup: prune failed: %v", err)
	}
	result.Pruned = pruned
	return result, nil
}

// List returns stored snapshots, oldest first.
func (s *Service) List(ctx context.Context) ([]storage.FileInfo, error) {
	files, err := s.client.List(ctx, s.listPrefix())
	if err != nil {
		return nil, err
	}
	return storage.FilterFiles(files, func(f storage.FileInfo) bool {
		return strings.HasSuffix(f.Path, ".json")
	}), nil
}

// Restore loads the snapshot stored under key.
func (s *Service) Restore(ctx context.Context, key string, opts store.ImportOptions) (*store.ImportResult, error) {
	rc, err := s.client.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	snap, err := store.ReadSnapshot(rc)
	if err != nil {
		return nil, err
	}
	result, err := s.store.Import(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", key, err)
	}
	log.Printf("Backup: restored %s", key)
	return result, nil
}

// RestoreLatest restores the most recent snapshot.
func (s *Service) RestoreLatest(ctx context.Context, opts store.ImportOptions) (string, *store.ImportResult, error) {
	files, err := s.List(ctx)
	if err != nil {
		return "", nil, err
	}
	latest := storage.FindLatest(files)
	if latest == nil {
		return "", nil, ErrNoBackups
	}
	result, err := s.Restore(ctx, latest.Path, opts)
	return latest.Path, result, err
}

// prune deletes the oldest snapshots beyond keep. Keys embed a sortable
// timestamp, so key order is age order.
func (s *Service) prune(ctx context.Context) ([]string, error) {
	if s.keep <= 0 {
		return nil, nil
	}
	files, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) <= s.keep {
		return nil, nil
	}
	var pruned []string
	for _, f := range files[:len(files)-s.keep] {
		if err := s.client.Delete(ctx, f.Path); err != nil {
			return pruned, fmt.Errorf("delete %s: %w", f.Path, err)
		}
		pruned = append(pruned, f.Path)
	}
	log.Printf("Backup: pruned %d old snapshots", len(pruned))
	return pruned, nil
}

// keyTime returns the current time, nudged forward when a run in the same
// instant already used it, so concurrent runs never share a key.
func (s *Service) keyTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now().UTC()
	if !at.After(s.lastKey) {
		at = s.lastKey.Add(time.Nanosecond)
	}
	s.lastKey = at
	return at
}

func (s *Service) key(at time.Time) string {
	name := "library-" + at.Format(keyTimeFormat) + ".json"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *Service) listPrefix() string {
	if s.prefix == "" {
		return "library-"
	}
	return s.prefix + "/library-"
}
