package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/config"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Without a configured middleware every request acts as the anonymous super admin.
	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(authMiddleware.Handler())

	now := cfg.now
	health := NewHealthController(cfg.Database, cfg.Ledger, cfg.Version)
	books := NewBooksController(cfg.Catalog)
	students := NewStudentsController(cfg.Catalog, cfg.Reports)
	circulation := NewCirculationController(cfg.Workflow, cfg.Reports, now)
	ebooks := NewEbooksController(cfg.Catalog)
	admins := NewAdminsController(cfg.Catalog)
	reports := NewReportsController(cfg.Reports, cfg.DueSoonWindowDays, now)
	export := NewExportController(cfg.Catalog, cfg.Reports, cfg.Store, now)
	tasksController := NewTasksController(cfg.TaskClient, cfg.Backups, cfg.Scheduler)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api")

	// Auth endpoints
	api.GET("/auth/me", Me)
	api.GET("/auth/csrf", CSRFToken)
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() && cfg.SessionManager != nil {
		authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.Catalog, cfg.Audit)
		api.POST("/auth/login", authController.Login)
		api.POST("/auth/logout", authController.Logout)
		api.POST("/auth/signup", authController.Signup)
		api.POST("/auth/password", authController.ChangePassword)
	}

	// Anyone signed in may browse the catalog and use self-service.
	api.GET("/books", books.List)
	api.GET("/books/:id", books.Get)
	api.GET("/ebooks", ebooks.List)
	api.POST("/ebooks", ebooks.Publish)
	api.POST("/me/requests", circulation.RequestBook)
	api.GET("/me/borrowing", circulation.MyBorrowing)
	api.POST("/me/borrowing/:id/renew", circulation.RenewMine)

	staff := api.Group("", authMiddleware.RequireAdmin())

	// Catalog management
	staff.POST("/books", books.Create)
	staff.PUT("/books/:id", books.Update)
	staff.DELETE("/books/:id", books.Delete)

	staff.GET("/students", students.List)
	staff.POST("/students", students.Create)
	staff.GET("/students/:id", students.Get)
	staff.PUT("/students/:id", students.Update)
	staff.DELETE("/students/:id", students.Delete)
	staff.GET("/students/:id/borrowing", students.Borrowing)
	staff.POST("/students/:id/return-all", circulation.ReturnAll)

	staff.POST("/ebooks/:id/approve", ebooks.Approve)
	staff.DELETE("/ebooks/:id", ebooks.Delete)

	staff.GET("/admins", admins.List)
	staff.POST("/admins", authMiddleware.RequireRole(auth.RoleSuperAdmin), admins.Create)
	staff.DELETE("/admins/:id", authMiddleware.RequireRole(auth.RoleSuperAdmin), admins.Delete)

	// Circulation
	staff.POST("/borrowing", circulation.Issue)
	staff.POST("/borrowing/reset-returned", circulation.ResetReturned)
	staff.POST("/borrowing/:id/return", circulation.Return)
	staff.POST("/borrowing/:id/renew", circulation.Renew)

	// Reports
	staff.GET("/reports/summary", reports.Summary)
	staff.GET("/reports/overdue", reports.Overdue)
	staff.GET("/reports/most-borrowed", reports.MostBorrowed)
	staff.GET("/reports/categories", reports.Categories)
	staff.GET("/reports/buckets", reports.Buckets)
	staff.GET("/reports/active-by-student", reports.ActiveByStudent)
	staff.GET("/reports/notifications", reports.Notifications)
	staff.GET("/reports/recent", reports.Recent)

	// Export and import
	staff.GET("/export/books.csv", export.BooksCSV)
	staff.GET("/export/students.csv", export.StudentsCSV)
	staff.GET("/export/borrowing.csv", export.BorrowingCSV)
	staff.GET("/export/catalog.md", export.CatalogMarkdown)
	staff.GET("/export/overdue.md", export.OverdueMarkdown)
	staff.GET("/export/snapshot.json", export.Snapshot)
	staff.POST("/import/snapshot", authMiddleware.RequireRole(auth.RoleSuperAdmin), export.Import)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		staff.GET("/audit", auditController.List)
	}

	// Background work
	staff.GET("/tasks/types", tasksController.ListTaskTypes)
	staff.GET("/tasks/:id", tasksController.GetTaskStatus)
	staff.POST("/tasks/:type/run", tasksController.RunTask)
	staff.GET("/backups", tasksController.ListBackups)
	staff.POST("/backups", tasksController.CreateBackup)
	staff.GET("/scheduler/jobs", tasksController.ListJobs)
	staff.POST("/scheduler/jobs/:name/run", tasksController.RunJob)

	return router
}
