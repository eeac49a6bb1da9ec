package reports

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	}
	return 1
}

const (
	NotificationOverdue = "overdue"
	NotificationDueSoon = "due_soon"
)

type Notification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	Priority  Priority  `json:"priority"`
	RecordID  string    `json:"record_id"`
	StudentID string    `json:"student_id"`
}

// Notifications lists overdue loans (high priority) followed by loans due
// within windowDays (medium priority).
func (r *Reports) Notifications(ctx context.Context, now time.Time, windowDays int) ([]Notification, error) {
	overdue, err := r.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}
	soon, err := r.DueSoon(ctx, now, windowDays)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(overdue)+len(soon))
	for _, item := range overdue {
		out = append(out, Notification{
			Type:      NotificationOverdue,
			Title:     "Overdue Book",
			Message:   fmt.Sprintf("%s has overdue: %s", orDefault(item.StudentName, "Student"), orDefault(item.BookTitle, "Unknown")),
			Date:      item.DueDate,
			Priority:  PriorityHigh,
			RecordID:  item.ID,
			StudentID: item.StudentID,
		})
	}
	for _, item := range soon {
		out = append(out, Notification{
			Type:      NotificationDueSoon,
			Title:     "Due Soon",
			Message:   fmt.Sprintf("%s due in %d days", orDefault(item.BookTitle, "Book"), item.DaysLeft),
			Date:      item.DueDate,
			Priority:  PriorityMedium,
			RecordID:  item.ID,
			StudentID: item.StudentID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() > out[j].Priority.rank()
	})
	return out, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
