package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database"
	auditrepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/metrics"
	"github.com/mrlokans/libraryhub/internal/reports"
	"github.com/mrlokans/libraryhub/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type testApp struct {
	router  *gin.Engine
	db      *database.Database
	catalog *catalog.Catalog
	audit   *audit.Service
	cfg     RouterConfig
}

// newTestApp builds the full router over a temp-file database with
// deterministic IDs and a fixed clock. mutate may adjust the config first.
func newTestApp(t *testing.T, mutate func(*RouterConfig)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := func() time.Time { return fixedNow }
	l := ledger.New(db.DB)
	cat := catalog.New(db.DB, l, catalog.Options{
		IDs:        ids.NewCounter("cat"),
		Now:        now,
		BcryptCost: bcrypt.MinCost,
	})
	opts := circulation.DefaultOptions()
	opts.IDs = ids.NewCounter("rec")
	opts.Now = now
	workflow := circulation.NewWorkflow(l, opts)

	auditSvc := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(auditSvc.Wait)
	cat.AddListener(auditSvc.CatalogListener())

	collector := metrics.New()
	workflow.AddObserver(collector)

	cfg := RouterConfig{
		Database:          db,
		Ledger:            l,
		Catalog:           cat,
		Workflow:          workflow,
		Reports:           reports.New(db.DB),
		Store:             store.New(db.DB, l),
		Audit:             auditSvc,
		Metrics:           collector,
		DueSoonWindowDays: 3,
		Version:           "test",
		Now:               now,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &testApp{router: NewRouter(cfg), db: db, catalog: cat, audit: auditSvc, cfg: cfg}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testApp) addBook(t *testing.T, title string, quantity int) entities.Book {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/books", catalog.BookInput{
		Title: title, Author: "Harper Lee", Category: "Fiction", ISBN: "978-0061120084", Quantity: quantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Book](t, w)
}

func (a *testApp) addStudent(t *testing.T, email string) entities.Student {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/students", catalog.StudentInput{
		Name: "John Doe", Email: email, StudentNumber: "STU-2025-001", Password: "password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Student](t, w)
}

type recordsBody struct {
	Records []entities.BorrowRecord `json:"records"`
	Count   int                     `json:"count"`
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t, nil)

	t.Run("health reports database and inventory", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, w.Code)
		health := decode[HealthResponse](t, w)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "test", health.Version)
		assert.Equal(t, "ok", health.Checks["database"])
		assert.Equal(t, "ok", health.Checks["inventory"])
	})

	t.Run("ping", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/ping", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pong")
	})

	t.Run("metrics exposes circulation counters", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "library_copies_issued_total")
	})
}

func TestRouter_Books(t *testing.T) {
	app := newTestApp(t, nil)
	book := app.addBook(t, "To Kill a Mockingbird", 3)
	assert.Equal(t, 3, book.Available)

	t.Run("validation errors list fields", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/books", catalog.BookInput{Title: "X", Quantity: 0})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "VALIDATION_FAILED", resp.Code)
		fields, ok := resp.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fields, "title")
		assert.Contains(t, fields, "quantity")
	})

	t.Run("search and filter", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/books?q=mocking&availability=available", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), book.ID)

		w = app.do(t, http.MethodGet, "/api/books?availability=unavailable", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)

		w = app.do(t, http.MethodGet, "/api/books?availability=sometimes", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/books/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, w).Code)
	})

	t.Run("update moves availability with quantity", func(t *testing.T) {
		w := app.do(t, http.MethodPut, "/api/books/"+book.ID, catalog.BookInput{
			Title: book.Title, Author: book.Author, Category: book.Category, ISBN: book.ISBN, Quantity: 5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[entities.Book](t, w)
		assert.Equal(t, 5, updated.Quantity)
		assert.Equal(t, 5, updated.Available)
	})
}

func TestRouter_Circulation(t *testing.T) {
	app := newTestApp(t, nil)
	book := app.addBook(t, "The Great Gatsby", 2)
	student := app.addStudent(t, "john@student.com")

	issue := func(quantity int, due string) *httptest.ResponseRecorder {
		return app.do(t, http.MethodPost, "/api/borrowing", gin.H{
			"student_id":  student.ID,
			"book_id":     book.ID,
			"issued_date": "2024-03-01",
			"due_date":    due,
			"quantity":    quantity,
		})
	}

	t.Run("invalid date range is 400", func(t *testing.T) {
		w := issue(1, "2024-02-01")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_DATE_RANGE", decode[ErrorResponse](t, w).Code)
	})

	t.Run("unknown student is 404", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/borrowing", gin.H{"student_id": "nobody", "book_id": book.ID})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	var records []entities.BorrowRecord
	t.Run("issue creates one record per copy", func(t *testing.T) {
		w := issue(2, "2024-03-15")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode[recordsBody](t, w)
		require.Len(t, body.Records, 2)
		records = body.Records

		got, err := app.catalog.GetBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Available)
	})

	t.Run("no copies left is 409", func(t *testing.T) {
		w := issue(1, "2024-03-15")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INSUFFICIENT_COPIES", decode[ErrorResponse](t, w).Code)
	})

	t.Run("book with copies out cannot be deleted", func(t *testing.T) {
		w := app.do(t, http.MethodDelete, "/api/books/"+book.ID, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "BOOK_ON_LOAN", decode[ErrorResponse](t, w).Code)
	})

	t.Run("renew extends the due date", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/borrowing/"+records[0].ID+"/renew", nil)
		require.Equal(t, http.StatusOK, w.Code)
		renewed := decode[entities.BorrowRecord](t, w)
		assert.Equal(t, 1, renewed.Renewals)
		assert.True(t, renewed.DueDate.After(records[0].DueDate))
	})

	t.Run("return twice is 409", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/borrowing/"+records[0].ID+"/return", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = app.do(t, http.MethodPost, "/api/borrowing/"+records[0].ID+"/return", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ALREADY_RETURNED", decode[ErrorResponse](t, w).Code)
	})

	t.Run("unknown record is 404", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/borrowing/missing/return", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("student borrowing lists outstanding then history", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/students/"+student.ID+"/borrowing", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[recordsBody](t, w).Count)

		w = app.do(t, http.MethodGet, "/api/students/"+student.ID+"/borrowing?history=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, decode[recordsBody](t, w).Count)
	})

	t.Run("return all then reset returned", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/students/"+student.ID+"/return-all", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[recordsBody](t, w).Count)

		w = app.do(t, http.MethodPost, "/api/borrowing/reset-returned", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"purged":2`)

		got, err := app.catalog.GetBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Available)
	})
}

func TestRouter_SelfService(t *testing.T) {
	app := newTestApp(t, nil)
	book := app.addBook(t, "Python Programming", 1)
	student := app.addStudent(t, "jane@student.com")
	other := app.addStudent(t, "other@student.com")

	t.Run("anonymous caller must name the student", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/me/requests", gin.H{"book_id": book.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	var record entities.BorrowRecord
	t.Run("request book lends one copy for the loan period", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/me/requests?student_id="+student.ID, gin.H{"book_id": book.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		record = decode[entities.BorrowRecord](t, w)
		assert.True(t, fixedNow.Equal(record.IssuedDate))
		assert.True(t, fixedNow.Add(14*24*time.Hour).Equal(record.DueDate))
	})

	t.Run("my borrowing", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/me/borrowing?student_id="+student.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode[recordsBody](t, w).Count)
	})

	t.Run("renewing another student's record is 404", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/me/borrowing/"+record.ID+"/renew?student_id="+other.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.do(t, http.MethodPost, "/api/me/borrowing/"+record.ID+"/renew?student_id="+student.ID, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_EbooksAndAdmins(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(t, http.MethodPost, "/api/ebooks", catalog.EbookInput{
		Title: "Go in Practice", Author: "Matt Butcher", Category: "Technology", FileURL: "https://example.com/go.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ebook := decode[entities.Ebook](t, w)
	assert.Equal(t, entities.EbookStatusPending, ebook.Status)

	w = app.do(t, http.MethodGet, "/api/ebooks?status=approved", nil)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = app.do(t, http.MethodPost, "/api/ebooks/"+ebook.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodGet, "/api/ebooks?status=approved", nil)
	assert.Contains(t, w.Body.String(), ebook.ID)

	w = app.do(t, http.MethodPost, "/api/admins", catalog.AdminInput{
		Name: "Head Librarian", Email: "head@library.com", Password: "secret1", Role: entities.AdminRoleSuperAdmin,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	admin := decode[entities.Admin](t, w)
	assert.Empty(t, admin.PasswordHash)

	w = app.do(t, http.MethodDelete, "/api/admins/"+admin.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "LAST_SUPER_ADMIN", decode[ErrorResponse](t, w).Code)
}

func TestRouter_StudentsHidePasswords(t *testing.T) {
	app := newTestApp(t, nil)
	student := app.addStudent(t, "hidden@student.com")
	assert.Empty(t, student.PasswordHash)

	w := app.do(t, http.MethodGet, "/api/students?q=hidden", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), student.ID)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = app.do(t, http.MethodPost, "/api/students", catalog.StudentInput{
		Name: "Dup", Email: "hidden@student.com", StudentNumber: "STU-9", Password: "password",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_ReportsAndExports(t *testing.T) {
	app := newTestApp(t, nil)
	book := app.addBook(t, "1984", 2)
	student := app.addStudent(t, "reader@student.com")

	w := app.do(t, http.MethodPost, "/api/borrowing", gin.H{
		"student_id": student.ID, "book_id": book.ID,
		"issued_date": "2024-02-01", "due_date": "2024-02-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("overdue and summary", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/reports/overdue", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"days_overdue":15`)

		w = app.do(t, http.MethodGet, "/api/reports/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)
		summary := decode[reports.Summary](t, w)
		assert.Equal(t, int64(1), summary.TotalBooks)
		assert.Equal(t, int64(1), summary.PendingReturns)

		w = app.do(t, http.MethodGet, "/api/reports/most-borrowed?limit=x", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("borrowing csv", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/export/borrowing.csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "borrowing.csv")
		rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "1984", rows[1][4])
	})

	t.Run("overdue markdown", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/export/overdue.md", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "| John Doe | 1984 | 2024-02-15 | 15 |")
	})

	t.Run("snapshot round trip through the API", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/export/snapshot.json", nil)
		require.Equal(t, http.StatusOK, w.Code)
		snapshot := w.Body.Bytes()

		other := newTestApp(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/import/snapshot?replace=true", bytes.NewReader(snapshot))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		other.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		imported, err := other.catalog.GetBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, imported.Available)
	})

	t.Run("malformed snapshot is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/import/snapshot", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Audit(t *testing.T) {
	app := newTestApp(t, nil)
	app.addBook(t, "Dune", 1)
	app.audit.Wait()

	w := app.do(t, http.MethodGet, "/api/audit?event_type=catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[PaginatedResponse](t, w)
	assert.Equal(t, int64(1), page.Total)
	assert.False(t, page.HasMore)
	assert.Contains(t, w.Body.String(), "book_create")
}

func TestRouter_TasksWithoutQueue(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(t, http.MethodGet, "/api/tasks/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "snapshot_backup")

	w = app.do(t, http.MethodPost, "/api/tasks/resync_inventory/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = app.do(t, http.MethodPost, "/api/backups", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = app.do(t, http.MethodGet, "/api/scheduler/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":false`)
}
