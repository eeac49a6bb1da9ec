// Package notify delivers overdue reminders to students.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mrlokans/libraryhub/internal/reports"
)

// Reminder lists every overdue copy held by one student.
type Reminder struct {
	StudentID    string               `json:"student_id"`
	StudentName  string               `json:"student_name"`
	StudentEmail string               `json:"student_email"`
	Items        []reports.OverdueItem `json:"items"`
}

// Subject is a one-line summary suitable for an email subject.
func (r Reminder) Subject() string {
	if len(r.Items) == 1 {
		return fmt.Sprintf("Overdue: %s", r.Items[0].BookTitle)
	}
	return fmt.Sprintf("%d overdue library books", len(r.Items))
}

// Body lists the overdue titles with days overdue, one per line.
func (r Reminder) Body() string {
	var b strings.Builder
	name := r.StudentName
	if name == "" {
		name = "Student"
	}
	fmt.Fprintf(&b, "Hello %s,\n\nThe following books are overdue:\n", name)
	for _, item := range r.Items {
		title := item.BookTitle
		if title == "" {
			title = item.BookID
		}
		fmt.Fprintf(&b, "- %s (due %s, %d days overdue)\n", title, item.DueDate.Format("2006-01-02"), item.DaysOverdue)
	}
	b.WriteString("\nPlease return them to the library.\n")
	return b.String()
}

type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

// LogNotifier writes reminders to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, r Reminder) error {
	to := r.StudentEmail
	if to == "" {
		to = r.StudentID
	}
	log.Printf("Reminder: to=%s subject=%q items=%d", to, r.Subject(), len(r.Items))
	return nil
}

// GroupByStudent builds one reminder per student, keeping the order in which
// students first appear in items.
func GroupByStudent(items []reports.OverdueItem) []Reminder {
	index := make(map[string]int)
	var out []Reminder
	for _, item := range items {
		i, ok := index[item.StudentID]
		if !ok {
			i = len(out)
			index[item.StudentID] = i
			out = append(out, Reminder{
				StudentID:    item.StudentID,
				StudentName:  item.StudentName,
				StudentEmail: item.StudentEmail,
			})
		}
		out[i].Items = append(out[i].Items, item)
	}
	return out
}

// SendAll delivers every reminder and returns how many succeeded. Delivery
// continues past failures; the first error is returned.
func SendAll(ctx context.Context, n Notifier, reminders []Reminder) (int, error) {
	sent := 0
	var firstErr error
	for _, r := range reminders {
		if err := n.Notify(ctx, r); err != nil {
			log.Printf("Reminder: failed for student %s: %v", r.StudentID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}
