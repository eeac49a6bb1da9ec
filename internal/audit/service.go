package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// SystemActor marks events raised by the service itself rather than a user.
const SystemActor = "system"

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	now     func() time.Time
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if event.Status == "" {
		event.Status = entities.AuditStatusSuccess
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Log(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued by LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCirculation records an issue, return, renewal or purge.
func (s *Service) LogCirculation(actorID, action, description string, records []entities.BorrowRecord) {
	event := &entities.AuditEvent{
		ActorID:     actorOrSystem(actorID),
		EventType:   entities.AuditEventCirculation,
		Action:      action,
		Description: description,
		EntityType:  "borrow_record",
	}
	if len(records) == 1 {
		event.EntityID = records[0].ID
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	event.Metadata = metadata(map[string]any{"record_ids": ids, "count": len(records)})
	s.LogAsync(event)
}

// LogCatalog records a committed catalog change.
func (s *Service) LogCatalog(actorID string, change catalog.Change) {
	s.LogAsync(&entities.AuditEvent{
		ActorID:     actorOrSystem(actorID),
		EventType:   entities.AuditEventCatalog,
		Action:      change.Action,
		Description: change.Description,
		EntityType:  change.EntityType,
		EntityID:    change.EntityID,
	})
}

// LogAuth records a login attempt or logout.
func (s *Service) LogAuth(actorID, action, description string, err error) {
	s.LogAsync(withError(&entities.AuditEvent{
		ActorID:     actorOrSystem(actorID),
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: description,
	}, err))
}

// LogBackup records a snapshot backup run.
func (s *Service) LogBackup(key string, counts map[string]int, err error) {
	description := "Snapshot written to " + key
	if err != nil {
		description = "Snapshot backup failed"
	}
	event := withError(&entities.AuditEvent{
		ActorID:     SystemActor,
		EventType:   entities.AuditEventBackup,
		Action:      "snapshot_backup",
		Description: description,
		EntityType:  "snapshot",
		EntityID:    key,
	}, err)
	event.Metadata = metadata(counts)
	s.LogAsync(event)
}

// LogMaintenance records scheduled upkeep such as resyncs and cleanups.
func (s *Service) LogMaintenance(action, description string, err error) {
	s.LogAsync(withError(&entities.AuditEvent{
		ActorID:     SystemActor,
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
	}, err))
}

// GetEvents retrieves paginated audit events, most recent first.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// CirculationObserver adapts the service to circulation.Observer.
type CirculationObserver struct {
	svc *Service
}

func (s *Service) CirculationObserver() *CirculationObserver {
	return &CirculationObserver{svc: s}
}

func (o *CirculationObserver) Issued(records []entities.BorrowRecord) {
	if len(records) == 0 {
		return
	}
	first := records[0]
	o.svc.LogCirculation("", "book_issue",
		fmt.Sprintf("Issued %d copies of book %s to student %s", len(records), first.BookID, first.StudentID), records)
}

func (o *CirculationObserver) Returned(records []entities.BorrowRecord) {
	if len(records) == 0 {
		return
	}
	o.svc.LogCirculation("", "book_return", fmt.Sprintf("Returned %d copies", len(records)), records)
}

func (o *CirculationObserver) Renewed(record entities.BorrowRecord) {
	o.svc.LogCirculation("", "book_renew",
		fmt.Sprintf("Renewed until %s", record.DueDate.Format("2006-01-02")), []entities.BorrowRecord{record})
}

func (o *CirculationObserver) Purged(records []entities.BorrowRecord) {
	o.svc.LogCirculation("", "reset_returned", fmt.Sprintf("Purged %d returned records", len(records)), records)
}

// CatalogListener returns a catalog.Listener that logs as the system actor.
func (s *Service) CatalogListener() catalog.Listener {
	return func(change catalog.Change) {
		s.LogCatalog("", change)
	}
}

func actorOrSystem(actorID string) string {
	if actorID == "" {
		return SystemActor
	}
	return actorID
}

func withError(event *entities.AuditEvent, err error) *entities.AuditEvent {
	event.Status = entities.AuditStatusSuccess
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

func metadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

var _ circulation.Observer = (*CirculationObserver)(nil)
