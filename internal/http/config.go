package http

import (
	"time"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backup"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/metrics"
	"github.com/mrlokans/libraryhub/internal/reports"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/store"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Ledger   *ledger.Ledger
	Catalog  *catalog.Catalog
	Workflow *circulation.Workflow
	Reports  *reports.Reports
	Store    *store.Store
	Audit    *audit.Service

	// Optional collaborators; nil disables their routes or middleware.
	Metrics    *metrics.Collector
	Backups    *backup.Service
	TaskClient *tasks.Client
	Scheduler  *scheduler.Scheduler

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	DueSoonWindowDays int
	Version           string

	// Now is the clock for reports and defaulted loan dates; nil means time.Now.
	Now func() time.Time
}

func (cfg RouterConfig) now() time.Time {
	if cfg.Now != nil {
		return cfg.Now().UTC()
	}
	return time.Now().UTC()
}
