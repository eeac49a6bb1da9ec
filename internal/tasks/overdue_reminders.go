package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/libraryhub/internal/notify"
	"github.com/mrlokans/libraryhub/internal/reports"
)

// OverdueSource lists outstanding records past due.
type OverdueSource interface {
	Overdue(ctx context.Context, asOf time.Time) ([]reports.OverdueItem, error)
}

type ReminderNotifier = notify.Notifier

// OverdueRemindersTask sends one reminder per student holding overdue copies.
// A non-empty StudentID limits the run to that student.
type OverdueRemindersTask struct {
	StudentID string `json:"student_id,omitempty"`
}

func (t OverdueRemindersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_reminders",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention:   defaultRetention(),
	}
}

func OverdueRemindersProcessor(source OverdueSource, notifier ReminderNotifier, now func() time.Time) backlite.QueueProcessor[OverdueRemindersTask] {
	return func(ctx context.Context, task OverdueRemindersTask) error {
		if source == nil || notifier == nil {
			return fmt.Errorf("overdue reminders not configured")
		}

		items, err := source.Overdue(ctx, now())
		if err != nil {
			return fmt.Errorf("list overdue: %w", err)
		}
		if task.StudentID != "" {
			filtered := items[:0]
			for _, item := range items {
				if item.StudentID == task.StudentID {
					filtered = append(filtered, item)
				}
			}
			items = filtered
		}

		reminders := notify.GroupByStudent(items)
		sent, err := notify.SendAll(ctx, notifier, reminders)
		log.Printf("[TASK] Sent %d/%d overdue reminders covering %d records", sent, len(reminders), len(items))
		if err != nil {
			return fmt.Errorf("send reminders: %w", err)
		}
		return nil
	}
}
