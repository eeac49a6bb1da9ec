package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/config"
	http_controllers "github.com/mrlokans/libraryhub/internal/http"
	"github.com/mrlokans/libraryhub/internal/notify"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds every service from cfg and serves HTTP until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library Hub v%s", version)

	app, err := Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	if cfg.Database.SeedDemo {
		if _, err := app.SeedDemo(); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	} else {
		app.primeMetrics(context.Background())
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var sched *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		deps := tasks.Deps{
			Overdue:  app.Reports,
			Notifier: notify.LogNotifier{},
			Ledger:   app.Ledger,
			Audit:    app.Audit,
			OnFinish: app.taskFinished,
		}
		if app.Backups != nil {
			deps.Backup = app.Backups
		}
		taskClient.Register(tasks.Queues(deps)...)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		jobs := scheduler.JobsFromConfig(cfg.Schedules, cfg.Audit.RetentionDays)
		sched = scheduler.New(taskClient, jobs)
		if err := sched.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; scheduled jobs will not run")
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(app.DB.DB, cfg.Auth)
		defer authService.Stop()

		sqlDB, err := app.DB.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		csrfSecret = loadCSRFSecret(cfg.Auth.SessionSecret)
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:          app.DB,
		Ledger:            app.Ledger,
		Catalog:           app.Catalog,
		Workflow:          app.Workflow,
		Reports:           app.Reports,
		Store:             app.Store,
		Audit:             app.Audit,
		Metrics:           app.Metrics,
		Backups:           app.Backups,
		TaskClient:        taskClient,
		Scheduler:         sched,
		AuthService:       authService,
		AuthMiddleware:    authMiddleware,
		SessionManager:    sessionManager,
		CSRFSecret:        csrfSecret,
		SecureCookies:     cfg.Auth.SecureCookies,
		DueSoonWindowDays: cfg.Circulation.DueSoonWindowDays,
		Version:           version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// taskFinished feeds task outcomes into metrics and the audit trail.
func (a *App) taskFinished(queue string, err error) {
	if a.Metrics != nil {
		a.Metrics.TaskFinished(queue, err)
	}
	description := "Task " + queue + " completed"
	if err != nil {
		description = "Task " + queue + " failed"
	}
	a.Audit.LogMaintenance(queue, description, err)
}

// loadCSRFSecret decodes a hex secret, falls back to the raw bytes, and
// generates a fresh one when none is configured.
func loadCSRFSecret(configured string) []byte {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			return []byte(configured)
		}
		return secret
	}
	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	secret, _ := hex.DecodeString(generated)
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return secret
}
