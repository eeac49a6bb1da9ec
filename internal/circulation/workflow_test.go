package circulation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/database/students"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

var fixedNow = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	workflow *Workflow
}

func setupWorkflow(t *testing.T, opts Options) *fixture {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "circulation.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, students.NewRepository(db.DB).Create(&entities.Student{
		ID: "s-1", Name: "John Doe", Email: "email@student.com", StudentNumber: "STU-2025-001",
	}))
	require.NoError(t, students.NewRepository(db.DB).Create(&entities.Student{
		ID: "s-2", Name: "Jane Roe", Email: "jane@student.com", StudentNumber: "STU-2025-002",
	}))
	require.NoError(t, books.NewRepository(db.DB).Create(&entities.Book{
		ID: "b-1", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Category: "Fiction",
		ISBN: "978-0743273565", Quantity: 3, Available: 3,
	}))

	if opts.IDs == nil {
		opts.IDs = ids.NewCounter("rec")
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	l := ledger.New(db.DB)
	return &fixture{db: db.DB, ledger: l, workflow: NewWorkflow(l, opts)}
}

func (f *fixture) available(t *testing.T, bookID string) int {
	t.Helper()
	book, err := books.NewRepository(f.db).GetByID(bookID)
	require.NoError(t, err)
	return book.Available
}

func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	discrepancies, err := f.ledger.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

type recordingObserver struct {
	issued, returned, purged int
	renewed                  []string
}

func (o *recordingObserver) Issued(r []entities.BorrowRecord)   { o.issued += len(r) }
func (o *recordingObserver) Returned(r []entities.BorrowRecord) { o.returned += len(r) }
func (o *recordingObserver) Renewed(r entities.BorrowRecord)    { o.renewed = append(o.renewed, r.ID) }
func (o *recordingObserver) Purged(r []entities.BorrowRecord)   { o.purged += len(r) }

func TestWorkflow_IssueReturnScenario(t *testing.T) {
	ctx := context.Background()
	f := setupWorkflow(t, Options{})

	records, err := f.workflow.Issue(ctx, IssueRequest{
		StudentID:  "s-1",
		BookID:     "b-1",
		IssuedDate: date(time.January, 1),
		DueDate:    date(time.January, 15),
		Quantity:   2,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, "rec-2", records[1].ID)
	assert.Equal(t, 1, f.available(t, "b-1"))
	f.assertInvariant(t)

	returned, err := f.workflow.Return(ctx, records[0].ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedDate)
	assert.True(t, returned.ReturnedDate.Equal(fixedNow))
	assert.Equal(t, 2, f.available(t, "b-1"))
	f.assertInvariant(t)

	outstanding, err := borrowing.NewRepository(f.db).ListOutstanding()
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, records[1].ID, outstanding[0].ID)
	assert.True(t, outstanding[0].IsOverdue(date(time.February, 1)))
}

func TestWorkflow_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("issuing every available copy drains the shelf", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, f.available(t, "b-1"))
	})

	t.Run("issuing one more than available fails without side effects", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: 4,
		})
		assert.ErrorIs(t, err, ErrInsufficientCopies)
		assert.Equal(t, 3, f.available(t, "b-1"))

		all, err := borrowing.NewRepository(f.db).List()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("zero quantity means one copy", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 2, f.available(t, "b-1"))
	})

	t.Run("rejects due date not after issue date", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 15), DueDate: date(time.January, 15),
		})
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: -1,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown student and book are not found", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "nobody", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		assert.ErrorIs(t, err, ErrStudentNotFound)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "nothing", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 3, f.available(t, "b-1"))
	})

	t.Run("eligibility hook can veto", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		tooMany := errors.New("already holds two books")
		f.workflow.SetEligibilityHook(func(ctx context.Context, s entities.Student, b entities.Book, q int) error {
			if s.ID == "s-2" {
				return tooMany
			}
			return nil
		})

		_, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-2", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.ErrorIs(t, err, tooMany)
		assert.Equal(t, 3, f.available(t, "b-1"))

		_, err = f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		assert.NoError(t, err)
	})
}

func TestWorkflow_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip restores availability", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)

		_, err = f.workflow.Return(ctx, records[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 3, f.available(t, "b-1"))
	})

	t.Run("second return fails and does not increment", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: 2,
		})
		require.NoError(t, err)

		_, err = f.workflow.Return(ctx, records[0].ID)
		require.NoError(t, err)
		_, err = f.workflow.Return(ctx, records[0].ID)
		assert.ErrorIs(t, err, ErrAlreadyReturned)
		assert.Equal(t, 2, f.available(t, "b-1"))
		f.assertInvariant(t)
	})

	t.Run("unknown record", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Return(ctx, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("record of a deleted book is still closed", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)
		require.NoError(t, books.NewRepository(f.db).Delete("b-1"))

		returned, err := f.workflow.Return(ctx, records[0].ID)
		require.NoError(t, err)
		assert.NotNil(t, returned.ReturnedDate)
	})
}

func TestWorkflow_ReturnAllFor(t *testing.T) {
	ctx := context.Background()
	f := setupWorkflow(t, Options{})
	_, err := f.workflow.Issue(ctx, IssueRequest{
		StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: 2,
	})
	require.NoError(t, err)
	_, err = f.workflow.Issue(ctx, IssueRequest{
		StudentID: "s-2", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
	})
	require.NoError(t, err)

	returned, err := f.workflow.ReturnAllFor(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, returned, 2)
	assert.Equal(t, 2, f.available(t, "b-1"))
	f.assertInvariant(t)

	_, err = f.workflow.ReturnAllFor(ctx, "nobody")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestWorkflow_RequestBook(t *testing.T) {
	ctx := context.Background()
	f := setupWorkflow(t, Options{})

	record, err := f.workflow.RequestBook(ctx, "s-1", "b-1", "")
	require.NoError(t, err)
	assert.True(t, record.IssuedDate.Equal(fixedNow))
	assert.True(t, record.DueDate.Equal(fixedNow.Add(14*24*time.Hour)))
	assert.Equal(t, 2, f.available(t, "b-1"))

	t.Run("fails once the shelf is empty", func(t *testing.T) {
		_, err := f.workflow.RequestBook(ctx, "s-1", "b-1", "")
		require.NoError(t, err)
		_, err = f.workflow.RequestBook(ctx, "s-2", "b-1", "")
		require.NoError(t, err)

		_, err = f.workflow.RequestBook(ctx, "s-2", "b-1", "")
		assert.ErrorIs(t, err, ErrInsufficientCopies)
		assert.Equal(t, 0, f.available(t, "b-1"))
	})
}

func TestWorkflow_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("extends the due date without touching availability", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)

		renewed, err := f.workflow.Renew(ctx, records[0].ID)
		require.NoError(t, err)
		assert.True(t, renewed.DueDate.Equal(date(time.January, 29)))
		assert.Equal(t, 1, renewed.Renewals)
		assert.Equal(t, 2, f.available(t, "b-1"))

		renewed, err = f.workflow.Renew(ctx, records[0].ID)
		require.NoError(t, err)
		assert.True(t, renewed.DueDate.Equal(date(time.February, 12)))
	})

	t.Run("returned records cannot be renewed", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)
		_, err = f.workflow.Return(ctx, records[0].ID)
		require.NoError(t, err)

		_, err = f.workflow.Renew(ctx, records[0].ID)
		assert.ErrorIs(t, err, ErrAlreadyReturned)
	})

	t.Run("respects a configured cap", func(t *testing.T) {
		f := setupWorkflow(t, Options{MaxRenewals: 1})
		records, err := f.workflow.Issue(ctx, IssueRequest{
			StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15),
		})
		require.NoError(t, err)

		_, err = f.workflow.Renew(ctx, records[0].ID)
		require.NoError(t, err)
		_, err = f.workflow.Renew(ctx, records[0].ID)
		assert.ErrorIs(t, err, ErrRenewalLimit)
	})

	t.Run("unknown record", func(t *testing.T) {
		f := setupWorkflow(t, Options{})
		_, err := f.workflow.Renew(ctx, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestWorkflow_ResetAllReturned(t *testing.T) {
	ctx := context.Background()
	f := setupWorkflow(t, Options{})
	observer := &recordingObserver{}
	f.workflow.AddObserver(observer)

	records, err := f.workflow.Issue(ctx, IssueRequest{
		StudentID: "s-1", BookID: "b-1", IssuedDate: date(time.January, 1), DueDate: date(time.January, 15), Quantity: 3,
	})
	require.NoError(t, err)
	_, err = f.workflow.Return(ctx, records[0].ID)
	require.NoError(t, err)
	_, err = f.workflow.Return(ctx, records[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.available(t, "b-1"))

	purged, err := f.workflow.ResetAllReturned(ctx)
	require.NoError(t, err)
	assert.Len(t, purged, 2)

	assert.Equal(t, 2, f.available(t, "b-1"), "purging history must not re-increment")
	f.assertInvariant(t)

	remaining, err := borrowing.NewRepository(f.db).List()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, records[2].ID, remaining[0].ID)

	assert.Equal(t, 3, observer.issued)
	assert.Equal(t, 2, observer.returned)
	assert.Equal(t, 2, observer.purged)

	t.Run("repairs drifted availability", func(t *testing.T) {
		require.NoError(t, books.NewRepository(f.db).UpdateAvailable("b-1", 3))
		_, err := f.workflow.Return(ctx, records[2].ID)
		require.NoError(t, err)

		_, err = f.workflow.ResetAllReturned(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, f.available(t, "b-1"))
		f.assertInvariant(t)
	})
}
