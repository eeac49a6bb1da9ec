package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
)

// Hook is told the outcome of every task run, keyed by queue name.
type Hook func(queue string, err error)

func defaultRetention() *backlite.Retention {
	return &backlite.Retention{
		Duration:   24 * time.Hour,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}

// observed wraps a processor so hook sees each run's result.
func observed[T backlite.Task](hook Hook, p backlite.QueueProcessor[T]) backlite.QueueProcessor[T] {
	if hook == nil {
		return p
	}
	return func(ctx context.Context, task T) error {
		err := p(ctx, task)
		hook(task.Config().Name, err)
		return err
	}
}

// Deps holds the services the library queues run against.
type Deps struct {
	Overdue  OverdueSource
	Notifier ReminderNotifier
	Ledger   InventoryResyncer
	Backup   SnapshotBackuper
	Audit    AuditEventCleaner
	OnFinish Hook
	Now      func() time.Time
}

// Queues builds every library queue. Register them before Start.
func Queues(d Deps) []backlite.Queue {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return []backlite.Queue{
		backlite.NewQueue(observed(d.OnFinish, OverdueRemindersProcessor(d.Overdue, d.Notifier, now))),
		backlite.NewQueue(observed(d.OnFinish, ResyncInventoryProcessor(d.Ledger))),
		backlite.NewQueue(observed(d.OnFinish, SnapshotBackupProcessor(d.Backup))),
		backlite.NewQueue(observed(d.OnFinish, CleanupAuditEventsProcessor(d.Audit))),
	}
}
