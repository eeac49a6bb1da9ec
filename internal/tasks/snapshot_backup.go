package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/libraryhub/internal/backup"
)

// SnapshotBackuper exports the library and stores the snapshot.
type SnapshotBackuper interface {
	Run(ctx context.Context) (*backup.Result, error)
}

type SnapshotBackupTask struct {
	Reason string `json:"reason,omitempty"` // "schedule" or "manual"
}

func (t SnapshotBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "snapshot_backup",
		MaxAttempts: 3,
		Backoff:     10 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention:   defaultRetention(),
	}
}

func SnapshotBackupProcessor(backuper SnapshotBackuper) backlite.QueueProcessor[SnapshotBackupTask] {
	return func(ctx context.Context, task SnapshotBackupTask) error {
		if backuper == nil {
			return fmt.Errorf("backup not configured")
		}
		result, err := backuper.Run(ctx)
		if err != nil {
			return fmt.Errorf("snapshot backup: %w", err)
		}
		log.Printf("[TASK] Snapshot backup (%s) written to %s", orManual(task.Reason), result.Key)
		return nil
	}
}

func orManual(reason string) string {
	if reason == "" {
		return "manual"
	}
	return reason
}
