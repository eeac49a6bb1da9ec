package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/exporters"
	"github.com/mrlokans/libraryhub/internal/reports"
	"github.com/mrlokans/libraryhub/internal/store"
)

const maxSnapshotSize = 32 << 20

// ExportController downloads catalog data and moves whole-store snapshots.
type ExportController struct {
	catalog *catalog.Catalog
	reports *reports.Reports
	store   *store.Store
	now     func() time.Time
}

func NewExportController(cat *catalog.Catalog, rep *reports.Reports, st *store.Store, now func() time.Time) *ExportController {
	return &ExportController{catalog: cat, reports: rep, store: st, now: now}
}

func attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, body)
}

const csvContentType = "text/csv; charset=utf-8"

// BooksCSV handles GET /api/export/books.csv
func (ec *ExportController) BooksCSV(c *gin.Context) {
	all, err := ec.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export books")
		return
	}
	var buf bytes.Buffer
	if _, err := exporters.BooksCSV(&buf, all); err != nil {
		respondInternalError(c, err, "export books")
		return
	}
	attachment(c, "books.csv", csvContentType, buf.Bytes())
}

// StudentsCSV handles GET /api/export/students.csv
func (ec *ExportController) StudentsCSV(c *gin.Context) {
	all, err := ec.catalog.ListStudents(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export students")
		return
	}
	var buf bytes.Buffer
	if _, err := exporters.StudentsCSV(&buf, all); err != nil {
		respondInternalError(c, err, "export students")
		return
	}
	attachment(c, "students.csv", csvContentType, buf.Bytes())
}

// BorrowingCSV handles GET /api/export/borrowing.csv
func (ec *ExportController) BorrowingCSV(c *gin.Context) {
	loans, err := ec.reports.AllLoans(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export borrowing")
		return
	}
	var buf bytes.Buffer
	if _, err := exporters.BorrowingCSV(&buf, loans); err != nil {
		respondInternalError(c, err, "export borrowing")
		return
	}
	attachment(c, "borrowing.csv", csvContentType, buf.Bytes())
}

// CatalogMarkdown handles GET /api/export/catalog.md
func (ec *ExportController) CatalogMarkdown(c *gin.Context) {
	all, err := ec.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export catalog")
		return
	}
	attachment(c, "catalog.md", "text/markdown; charset=utf-8", []byte(exporters.CatalogMarkdown(all, ec.now())))
}

// OverdueMarkdown handles GET /api/export/overdue.md
func (ec *ExportController) OverdueMarkdown(c *gin.Context) {
	now := ec.now()
	items, err := ec.reports.Overdue(c.Request.Context(), now)
	if err != nil {
		respondInternalError(c, err, "export overdue")
		return
	}
	attachment(c, "overdue.md", "text/markdown; charset=utf-8", []byte(exporters.OverdueMarkdown(items, now)))
}

// Snapshot handles GET /api/export/snapshot.json
func (ec *ExportController) Snapshot(c *gin.Context) {
	snap, err := ec.store.Export(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export snapshot")
		return
	}
	var buf bytes.Buffer
	if _, err := snap.WriteTo(&buf); err != nil {
		respondInternalError(c, err, "encode snapshot")
		return
	}
	name := "library-" + snap.ExportedAt.Format("20060102T150405Z") + ".json"
	attachment(c, name, "application/json", buf.Bytes())
}

// Import handles POST /api/import/snapshot?replace=true. Malformed elements are
// skipped and counted in the response.
func (ec *ExportController) Import(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxSnapshotSize)
	snap, err := store.ReadSnapshot(body)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := ec.store.Import(c.Request.Context(), snap, store.ImportOptions{
		Replace: c.Query("replace") == "true",
	})
	if err != nil {
		respondDomainError(c, err, "import snapshot")
		return
	}
	c.JSON(http.StatusOK, result)
}
