// Package circulation sequences lending operations on top of the inventory
// ledger. A borrow record moves from outstanding to returned exactly once;
// renewals push the due date while the record stays outstanding.
//
// Every operation runs inside one ledger.Apply call, so record writes and
// availability changes commit together and a failed operation leaves no trace.
package circulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/database/students"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

// EligibilityHook can veto an issue before any copy leaves the shelf.
// A nil hook allows every request that passes the availability check.
type EligibilityHook func(ctx context.Context, student entities.Student, book entities.Book, quantity int) error

// Observer receives committed circulation events.
type Observer interface {
	Issued(records []entities.BorrowRecord)
	Returned(records []entities.BorrowRecord)
	Renewed(record entities.BorrowRecord)
	Purged(records []entities.BorrowRecord)
}

type Options struct {
	LoanPeriod    time.Duration
	RenewalPeriod time.Duration
	MaxRenewals   int // 0 means unlimited
	IDs           ids.Generator
	Now           func() time.Time
	Eligibility   EligibilityHook
}

// DefaultOptions matches the library's standard two-week loans.
func DefaultOptions() Options {
	return Options{
		LoanPeriod:    config.DefaultLoanPeriod,
		RenewalPeriod: config.DefaultRenewalPeriod,
		IDs:           ids.NewUUIDGenerator(),
		Now:           time.Now,
	}
}

// OptionsFromConfig builds workflow options from application config.
func OptionsFromConfig(cfg config.Circulation) Options {
	opts := DefaultOptions()
	if cfg.LoanPeriod > 0 {
		opts.LoanPeriod = cfg.LoanPeriod
	}
	if cfg.RenewalPeriod > 0 {
		opts.RenewalPeriod = cfg.RenewalPeriod
	}
	opts.MaxRenewals = cfg.MaxRenewals
	return opts
}

type Workflow struct {
	ledger    *ledger.Ledger
	opts      Options
	observers []Observer
}

func NewWorkflow(l *ledger.Ledger, opts Options) *Workflow {
	defaults := DefaultOptions()
	if opts.LoanPeriod <= 0 {
		opts.LoanPeriod = defaults.LoanPeriod
	}
	if opts.RenewalPeriod <= 0 {
		opts.RenewalPeriod = defaults.RenewalPeriod
	}
	if opts.IDs == nil {
		opts.IDs = defaults.IDs
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	return &Workflow{ledger: l, opts: opts}
}

// AddObserver registers o for events committed after this call.
func (w *Workflow) AddObserver(o Observer) {
	w.observers = append(w.observers, o)
}

// SetEligibilityHook replaces the pre-issue eligibility check.
func (w *Workflow) SetEligibilityHook(hook EligibilityHook) {
	w.opts.Eligibility = hook
}

// LoanPeriod is the self-service loan length.
func (w *Workflow) LoanPeriod() time.Duration {
	return w.opts.LoanPeriod
}

func (w *Workflow) now() time.Time {
	return w.opts.Now().UTC()
}

type IssueRequest struct {
	StudentID  string
	BookID     string
	IssuedDate time.Time
	DueDate    time.Time
	Quantity   int // 0 is treated as 1
	Notes      string
}

// Issue lends Quantity copies of a book, creating one record per copy.
func (w *Workflow) Issue(ctx context.Context, req IssueRequest) ([]entities.BorrowRecord, error) {
	if !req.DueDate.After(req.IssuedDate) {
		return nil, ErrInvalidDateRange
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var records []entities.BorrowRecord
	err := w.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		student, err := loadStudent(tx.DB(), req.StudentID)
		if err != nil {
			return err
		}
		book, err := tx.Book(req.BookID)
		if err != nil {
			return translateLedgerErr(err)
		}
		if w.opts.Eligibility != nil {
			if err := w.opts.Eligibility(ctx, *student, *book, quantity); err != nil {
				return fmt.Errorf("%w: %w", ErrNotEligible, err)
			}
		}

		if _, err := tx.Decrement(book.ID, quantity); err != nil {
			return translateLedgerErr(err)
		}

		now := w.now()
		records = make([]entities.BorrowRecord, 0, quantity)
		for i := 0; i < quantity; i++ {
			records = append(records, entities.BorrowRecord{
				ID:         w.opts.IDs.NewID(),
				StudentID:  student.ID,
				BookID:     book.ID,
				IssuedDate: req.IssuedDate.UTC(),
				DueDate:    req.DueDate.UTC(),
				Notes:      req.Notes,
				CreatedAt:  now,
			})
		}
		if err := borrowing.NewRepository(tx.DB()).Create(records); err != nil {
			return fmt.Errorf("create borrow records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Circulation: issued %d copies of book %s to student %s", len(records), req.BookID, req.StudentID)
	for _, o := range w.observers {
		o.Issued(records)
	}
	return records, nil
}

// RequestBook is the self-service issue: one copy, due after the loan period.
func (w *Workflow) RequestBook(ctx context.Context, studentID, bookID, notes string) (*entities.BorrowRecord, error) {
	issued := w.now()
	records, err := w.Issue(ctx, IssueRequest{
		StudentID:  studentID,
		BookID:     bookID,
		IssuedDate: issued,
		DueDate:    issued.Add(w.opts.LoanPeriod),
		Quantity:   1,
		Notes:      notes,
	})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Return marks one copy as returned and puts it back on the shelf.
func (w *Workflow) Return(ctx context.Context, recordID string) (*entities.BorrowRecord, error) {
	var record *entities.BorrowRecord
	err := w.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := borrowing.NewRepository(tx.DB())
		var err error
		record, err = loadRecord(repo, recordID)
		if err != nil {
			return err
		}
		if !record.IsOutstanding() {
			return fmt.Errorf("%w: record %s", ErrAlreadyReturned, recordID)
		}
		return w.markReturned(tx, repo, record)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Circulation: record %s returned (book %s)", record.ID, record.BookID)
	for _, o := range w.observers {
		o.Returned([]entities.BorrowRecord{*record})
	}
	return record, nil
}

// ReturnAllFor returns every copy a student still holds.
func (w *Workflow) ReturnAllFor(ctx context.Context, studentID string) ([]entities.BorrowRecord, error) {
	var returned []entities.BorrowRecord
	err := w.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		if _, err := loadStudent(tx.DB(), studentID); err != nil {
			return err
		}
		repo := borrowing.NewRepository(tx.DB())
		outstanding, err := repo.ListOutstandingForStudent(studentID)
		if err != nil {
			return fmt.Errorf("list outstanding records: %w", err)
		}
		for i := range outstanding {
			if err := w.markReturned(tx, repo, &outstanding[i]); err != nil {
				return err
			}
		}
		returned = outstanding
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(returned) > 0 {
		log.Printf("Circulation: returned %d copies for student %s", len(returned), studentID)
		for _, o := range w.observers {
			o.Returned(returned)
		}
	}
	return returned, nil
}

func (w *Workflow) markReturned(tx *ledger.Tx, repo *borrowing.Repository, record *entities.BorrowRecord) error {
	now := w.now()
	record.ReturnedDate = &now
	if err := repo.Save(record); err != nil {
		return fmt.Errorf("save borrow record: %w", err)
	}
	if _, err := tx.Increment(record.BookID, 1); err != nil {
		if errors.Is(err, ledger.ErrBookNotFound) {
			log.Printf("Circulation: record %s references deleted book %s, skipping inventory update", record.ID, record.BookID)
			return nil
		}
		return err
	}
	return nil
}

// Renew extends the due date of an outstanding record. Availability is untouched.
func (w *Workflow) Renew(ctx context.Context, recordID string) (*entities.BorrowRecord, error) {
	var record *entities.BorrowRecord
	err := w.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := borrowing.NewRepository(tx.DB())
		var err error
		record, err = loadRecord(repo, recordID)
		if err != nil {
			return err
		}
		if !record.IsOutstanding() {
			return fmt.Errorf("%w: record %s", ErrAlreadyReturned, recordID)
		}
		if w.opts.MaxRenewals > 0 && record.Renewals >= w.opts.MaxRenewals {
			return fmt.Errorf("%w: %d of %d used", ErrRenewalLimit, record.Renewals, w.opts.MaxRenewals)
		}
		record.DueDate = record.DueDate.Add(w.opts.RenewalPeriod)
		record.Renewals++
		if err := repo.Save(record); err != nil {
			return fmt.Errorf("save borrow record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range w.observers {
		o.Renewed(*record)
	}
	return record, nil
}

// ResetAllReturned purges returned records, then resyncs every affected book
// from its remaining outstanding records. Returns the purged records.
func (w *Workflow) ResetAllReturned(ctx context.Context) ([]entities.BorrowRecord, error) {
	var purged []entities.BorrowRecord
	err := w.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := borrowing.NewRepository(tx.DB())
		returned, err := repo.ListReturned()
		if err != nil {
			return fmt.Errorf("list returned records: %w", err)
		}
		if len(returned) == 0 {
			return nil
		}

		recordIDs := make([]string, 0, len(returned))
		var bookIDs []string
		seen := make(map[string]bool)
		for _, r := range returned {
			recordIDs = append(recordIDs, r.ID)
			if !seen[r.BookID] {
				seen[r.BookID] = true
				bookIDs = append(bookIDs, r.BookID)
			}
		}

		if _, err := repo.DeleteByIDs(recordIDs); err != nil {
			return fmt.Errorf("delete returned records: %w", err)
		}
		for _, bookID := range bookIDs {
			if _, err := tx.Resync(bookID); err != nil {
				if errors.Is(err, ledger.ErrBookNotFound) {
					continue
				}
				return err
			}
		}
		purged = returned
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Circulation: purged %d returned records", len(purged))
	for _, o := range w.observers {
		o.Purged(purged)
	}
	return purged, nil
}

func loadStudent(db *gorm.DB, id string) (*entities.Student, error) {
	student, err := students.NewRepository(db).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
		}
		return nil, fmt.Errorf("load student %s: %w", id, err)
	}
	return student, nil
}

func loadRecord(repo *borrowing.Repository, id string) (*entities.BorrowRecord, error) {
	record, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("load borrow record %s: %w", id, err)
	}
	return record, nil
}
