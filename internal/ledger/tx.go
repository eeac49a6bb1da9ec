package ledger

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// Tx exposes availability mutations inside Ledger.Apply.
type Tx struct {
	db      *gorm.DB
	books   *books.Repository
	records *borrowing.Repository
	touched map[string]entities.Book
}

func newTx(db *gorm.DB) *Tx {
	return &Tx{
		db:      db,
		books:   books.NewRepository(db),
		records: borrowing.NewRepository(db),
		touched: make(map[string]entities.Book),
	}
}

// DB returns the transaction handle for repositories that must share it.
func (t *Tx) DB() *gorm.DB {
	return t.db
}

// Book loads a book inside the transaction.
func (t *Tx) Book(bookID string) (*entities.Book, error) {
	book, err := t.books.GetByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("load book %s: %w", bookID, err)
	}
	return book, nil
}

// Decrement removes count copies from the shelf.
func (t *Tx) Decrement(bookID string, count int) (*entities.Book, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	book, err := t.Book(bookID)
	if err != nil {
		return nil, err
	}
	if book.Available < count {
		return nil, fmt.Errorf("%w: %q has %d, requested %d", ErrInsufficientCopies, book.Title, book.Available, count)
	}
	return t.store(book, book.Available-count)
}

// Increment returns count copies to the shelf, clamped to quantity.
func (t *Tx) Increment(bookID string, count int) (*entities.Book, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	book, err := t.Book(bookID)
	if err != nil {
		return nil, err
	}
	available := book.Available + count
	if available > book.Quantity {
		log.Printf("Ledger: clamping book %s availability %d to quantity %d", bookID, available, book.Quantity)
		available = book.Quantity
	}
	return t.store(book, available)
}

// Resync sets availability to quantity minus outstanding records.
func (t *Tx) Resync(bookID string) (*entities.Book, error) {
	book, err := t.Book(bookID)
	if err != nil {
		return nil, err
	}
	outstanding, err := t.records.CountOutstandingForBook(bookID)
	if err != nil {
		return nil, fmt.Errorf("count outstanding for %s: %w", bookID, err)
	}
	available := book.Quantity - int(outstanding)
	if available < 0 {
		log.Printf("Ledger: book %s has %d outstanding copies but quantity %d", bookID, outstanding, book.Quantity)
		available = 0
	}
	return t.store(book, available)
}

func (t *Tx) store(book *entities.Book, available int) (*entities.Book, error) {
	if book.Available != available {
		if err := t.books.UpdateAvailable(book.ID, available); err != nil {
			return nil, fmt.Errorf("update availability for %s: %w", book.ID, err)
		}
		book.Available = available
	}
	t.touched[book.ID] = *book
	return book, nil
}

// ResyncAll recomputes every book inside the transaction and returns the
// books whose availability changed.
func (t *Tx) ResyncAll() ([]Adjustment, error) {
	ids, err := t.books.ListIDs()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var adjustments []Adjustment
	for _, id := range ids {
		before, err := t.Book(id)
		if err != nil {
			return nil, err
		}
		prev := before.Available
		after, err := t.Resync(id)
		if err != nil {
			return nil, err
		}
		if prev != after.Available {
			adjustments = append(adjustments, Adjustment{BookID: id, Before: prev, After: after.Available})
		}
	}
	return adjustments, nil
}
