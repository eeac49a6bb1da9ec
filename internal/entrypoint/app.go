package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/backup"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database"
	auditrepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/metrics"
	"github.com/mrlokans/libraryhub/internal/reports"
	"github.com/mrlokans/libraryhub/internal/store"
)

// App holds the services shared by the HTTP server and the CLI commands.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Ledger   *ledger.Ledger
	Catalog  *catalog.Catalog
	Workflow *circulation.Workflow
	Reports  *reports.Reports
	Store    *store.Store
	Audit    *audit.Service
	Metrics  *metrics.Collector // nil when metrics are disabled
	Backups  *backup.Service    // nil when the storage provider could not be opened
}

// Open connects the database and wires the domain services together.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	gen := ids.NewUUIDGenerator()
	l := ledger.New(db.DB)
	cat := catalog.New(db.DB, l, catalog.Options{IDs: gen, BcryptCost: cfg.Auth.BcryptCost})

	opts := circulation.OptionsFromConfig(cfg.Circulation)
	opts.IDs = gen
	workflow := circulation.NewWorkflow(l, opts)

	auditSvc := audit.NewService(auditrepo.NewRepository(db.DB))
	cat.AddListener(auditSvc.CatalogListener())
	workflow.AddObserver(auditSvc.CirculationObserver())

	app := &App{
		Config:   cfg,
		DB:       db,
		Ledger:   l,
		Catalog:  cat,
		Workflow: workflow,
		Reports:  reports.New(db.DB),
		Store:    store.New(db.DB, l),
		Audit:    auditSvc,
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New()
		app.Metrics.Watch(l)
		workflow.AddObserver(app.Metrics)
		cat.AddListener(func(change catalog.Change) {
			switch change.Action {
			case "book_create":
				if book, err := cat.GetBook(context.Background(), change.EntityID); err == nil {
					app.Metrics.BookChanged(*book)
				}
			case "book_delete":
				app.Metrics.Forget(change.EntityID)
			}
		})
	}

	client, err := backup.OpenStorage(ctx, cfg.Backup)
	if err != nil {
		log.Printf("WARNING: Backups disabled: %v", err)
	} else {
		app.Backups = backup.NewService(app.Store, client, cfg.Backup)
		app.Backups.SetReporter(auditSvc.LogBackup)
	}

	return app, nil
}

// SeedDemo fills empty collections with the demo library and primes the
// availability gauge.
func (a *App) SeedDemo() (database.SeedResult, error) {
	result, err := database.SeedDemo(a.DB.DB, ids.NewUUIDGenerator(), a.Config.Auth.BcryptCost)
	if err != nil {
		return result, err
	}
	a.primeMetrics(context.Background())
	return result, nil
}

func (a *App) primeMetrics(ctx context.Context) {
	if a.Metrics == nil {
		return
	}
	books, err := a.Catalog.ListBooks(ctx)
	if err != nil {
		log.Printf("WARNING: Could not seed availability metrics: %v", err)
		return
	}
	a.Metrics.Seed(books)
}

// Close flushes pending audit writes and closes the database.
func (a *App) Close() {
	a.Audit.Wait()
	if err := a.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
