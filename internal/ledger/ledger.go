// Package ledger owns the available-copies invariant:
//
//	book.available == book.quantity - outstanding records for the book
//
// Every change to a book's available column goes through a Ledger. Mutations
// run inside Apply, which holds the ledger's writer lock and a single database
// transaction, so related writes (a new borrow record and the matching
// decrement) either all land or none do.
//
// # Usage
//
//	l := ledger.New(db)
//	err := l.Apply(ctx, func(tx *ledger.Tx) error {
//		if err := borrowing.NewRepository(tx.DB()).Create(records); err != nil {
//			return err
//		}
//		_, err := tx.Decrement(bookID, len(records))
//		return err
//	})
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/entities"
)

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrInsufficientCopies = errors.New("insufficient copies available")
	ErrInvalidCount       = errors.New("count must be at least 1")
)

// ChangeFunc is notified with the committed state of every book a transaction touched.
type ChangeFunc func(book entities.Book)

// Ledger serializes availability mutations for one store.
type Ledger struct {
	db       *gorm.DB
	mu       sync.Mutex
	onChange ChangeFunc
}

// New creates a ledger over the given database handle.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// OnChange registers a callback invoked after each committed transaction.
func (l *Ledger) OnChange(fn ChangeFunc) {
	l.onChange = fn
}

// Apply runs fn inside one transaction while holding the writer lock.
// Any error returned by fn rolls back every write made through the Tx.
// fn must not call Apply (or the *Availability helpers) itself.
func (l *Ledger) Apply(ctx context.Context, fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var touched map[string]entities.Book
	err := l.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		tx := newTx(gtx)
		if err := fn(tx); err != nil {
			return err
		}
		touched = tx.touched
		return nil
	})
	if err != nil {
		return err
	}

	if l.onChange != nil {
		for _, book := range touched {
			l.onChange(book)
		}
	}
	return nil
}

// DecrementAvailability takes count copies of a book off the shelf.
func (l *Ledger) DecrementAvailability(ctx context.Context, bookID string, count int) (*entities.Book, error) {
	var book *entities.Book
	err := l.Apply(ctx, func(tx *Tx) error {
		var err error
		book, err = tx.Decrement(bookID, count)
		return err
	})
	return book, err
}

// IncrementAvailability puts count copies back, never exceeding quantity.
func (l *Ledger) IncrementAvailability(ctx context.Context, bookID string, count int) (*entities.Book, error) {
	var book *entities.Book
	err := l.Apply(ctx, func(tx *Tx) error {
		var err error
		book, err = tx.Increment(bookID, count)
		return err
	})
	return book, err
}

// ResyncAvailability recomputes a book's availability from its outstanding records.
func (l *Ledger) ResyncAvailability(ctx context.Context, bookID string) (*entities.Book, error) {
	var book *entities.Book
	err := l.Apply(ctx, func(tx *Tx) error {
		var err error
		book, err = tx.Resync(bookID)
		return err
	})
	return book, err
}

// Adjustment describes one book whose availability a resync corrected.
type Adjustment struct {
	BookID string `json:"book_id"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// ResyncAll recomputes availability for every book and returns the corrections made.
func (l *Ledger) ResyncAll(ctx context.Context) ([]Adjustment, error) {
	var adjustments []Adjustment
	err := l.Apply(ctx, func(tx *Tx) error {
		var err error
		adjustments, err = tx.ResyncAll()
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, adj := range adjustments {
		log.Printf("Inventory resync: book %s available %d -> %d", adj.BookID, adj.Before, adj.After)
	}
	return adjustments, nil
}

// Discrepancy is a book whose stored availability disagrees with its records.
type Discrepancy struct {
	BookID      string `json:"book_id"`
	Quantity    int    `json:"quantity"`
	Available   int    `json:"available"`
	Outstanding int64  `json:"outstanding"`
}

// Verify reports every book violating the invariant without changing anything.
func (l *Ledger) Verify(ctx context.Context) ([]Discrepancy, error) {
	db := l.db.WithContext(ctx)
	bookRepo := books.NewRepository(db)
	recordRepo := borrowing.NewRepository(db)

	all, err := bookRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	var out []Discrepancy
	for _, b := range all {
		outstanding, err := recordRepo.CountOutstandingForBook(b.ID)
		if err != nil {
			return nil, fmt.Errorf("count outstanding for %s: %w", b.ID, err)
		}
		if b.Available < 0 || b.Available > b.Quantity || int64(b.Available) != int64(b.Quantity)-outstanding {
			out = append(out, Discrepancy{
				BookID:      b.ID,
				Quantity:    b.Quantity,
				Available:   b.Available,
				Outstanding: outstanding,
			})
		}
	}
	return out, nil
}
