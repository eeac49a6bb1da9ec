package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/backup"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/metrics"
	"github.com/mrlokans/libraryhub/internal/notify"
	"github.com/mrlokans/libraryhub/internal/reports"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/storage"
	"github.com/mrlokans/libraryhub/internal/storage/providers/local"
	"github.com/mrlokans/libraryhub/internal/storage/providers/s3"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// =============================================================================
// Identifiers
// =============================================================================

var _ ids.Generator = ids.UUIDGenerator{}
var _ ids.Generator = (*ids.Counter)(nil)

// =============================================================================
// Circulation Observers
// =============================================================================

var _ circulation.Observer = (*audit.CirculationObserver)(nil)
var _ circulation.Observer = (*metrics.Collector)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.OverdueSource = (*reports.Reports)(nil)
var _ tasks.InventoryResyncer = (*ledger.Ledger)(nil)
var _ tasks.SnapshotBackuper = (*backup.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// Reminder delivery
var _ notify.Notifier = notify.LogNotifier{}

// =============================================================================
// Backup Storage
// =============================================================================

var _ storage.Client = (*local.Client)(nil)
var _ storage.Client = (*s3.Client)(nil)
