package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/reports"
)

// ReportsController serves the dashboard and reporting reads.
type ReportsController struct {
	reports    *reports.Reports
	windowDays int
	now        func() time.Time
}

func NewReportsController(rep *reports.Reports, windowDays int, now func() time.Time) *ReportsController {
	return &ReportsController{reports: rep, windowDays: windowDays, now: now}
}

func (rc *ReportsController) Summary(c *gin.Context) {
	summary, err := rc.reports.Summary(c.Request.Context(), rc.now())
	if err != nil {
		respondInternalError(c, err, "summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (rc *ReportsController) Overdue(c *gin.Context) {
	items, err := rc.reports.Overdue(c.Request.Context(), rc.now())
	if err != nil {
		respondInternalError(c, err, "overdue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// MostBorrowed handles GET /api/reports/most-borrowed?limit=
func (rc *ReportsController) MostBorrowed(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", reports.DefaultMostBorrowedLimit)
	if !ok {
		return
	}
	counts, err := rc.reports.MostBorrowed(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "most borrowed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": counts})
}

func (rc *ReportsController) Categories(c *gin.Context) {
	counts, err := rc.reports.CategoryCounts(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": counts})
}

func (rc *ReportsController) Buckets(c *gin.Context) {
	buckets, err := rc.reports.BorrowBuckets(c.Request.Context(), rc.now())
	if err != nil {
		respondInternalError(c, err, "buckets")
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (rc *ReportsController) ActiveByStudent(c *gin.Context) {
	counts, err := rc.reports.ActiveCountsByStudent(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "active by student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": counts})
}

func (rc *ReportsController) Notifications(c *gin.Context) {
	items, err := rc.reports.Notifications(c.Request.Context(), rc.now(), rc.windowDays)
	if err != nil {
		respondInternalError(c, err, "notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

// Recent handles GET /api/reports/recent?limit=
func (rc *ReportsController) Recent(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", reports.DefaultRecentLimit)
	if !ok {
		return
	}
	loans, err := rc.reports.RecentIssues(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "recent issues")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": loans})
}
