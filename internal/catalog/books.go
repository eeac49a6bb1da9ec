package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Quantity    int    `json:"quantity"`
}

func (in BookInput) validate() error {
	v := validator{}
	v.minLen(in.Title, 2, "title", "Title")
	v.minLen(in.Author, 2, "author", "Author")
	v.minLen(in.Category, 2, "category", "Category")
	v.check(len(strings.ReplaceAll(strings.TrimSpace(in.ISBN), "-", "")) >= 10, "isbn", "Invalid ISBN format")
	v.check(in.Quantity >= 1, "quantity", "Quantity must be at least 1")
	return v.err()
}

func (in BookInput) apply(b *entities.Book) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.Category = strings.TrimSpace(in.Category)
	b.ISBN = strings.TrimSpace(in.ISBN)
	b.Description = in.Description
	b.CoverURL = in.CoverURL
}

// CreateBook adds a title with every copy on the shelf.
func (c *Catalog) CreateBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	book := &entities.Book{
		ID:        c.opts.IDs.NewID(),
		Quantity:  in.Quantity,
		Available: in.Quantity,
		CreatedAt: c.now(),
	}
	in.apply(book)

	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		return books.NewRepository(tx.DB()).Create(book)
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	c.notify("book_create", "book", book.ID, fmt.Sprintf("Added %q (%d copies)", book.Title, book.Quantity))
	return book, nil
}

// UpdateBook edits a book. The quantity may not drop below the copies on loan.
// A quantity change moves availability by the same amount, clamped to
// [0, quantity], and the book is then resynced against its outstanding records.
func (c *Catalog) UpdateBook(ctx context.Context, id string, in BookInput) (*entities.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *entities.Book
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		book, err := tx.Book(id)
		if err != nil {
			return bookErr(id, err)
		}
		outstanding, err := borrowing.NewRepository(tx.DB()).CountOutstandingForBook(id)
		if err != nil {
			return err
		}
		if int64(in.Quantity) < outstanding {
			return &ValidationError{Fields: map[string]string{
				"quantity": fmt.Sprintf("Quantity cannot be below the %d copies on loan", outstanding),
			}}
		}
		delta := in.Quantity - book.Quantity
		in.apply(book)
		book.Quantity = in.Quantity
		book.Available = clamp(book.Available+delta, 0, book.Quantity)
		if err := books.NewRepository(tx.DB()).Save(book); err != nil {
			return fmt.Errorf("save book: %w", err)
		}
		updated, err = tx.Resync(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.notify("book_update", "book", id, fmt.Sprintf("Updated %q", updated.Title))
	return updated, nil
}

// DeleteBook removes a book that has no copies on loan. Returned history
// referencing it is kept.
func (c *Catalog) DeleteBook(ctx context.Context, id string) error {
	var title string
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		book, err := tx.Book(id)
		if err != nil {
			return bookErr(id, err)
		}
		title = book.Title
		outstanding, err := borrowing.NewRepository(tx.DB()).CountOutstandingForBook(id)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return fmt.Errorf("%w: %d outstanding", ErrBookHasOutstanding, outstanding)
		}
		return books.NewRepository(tx.DB()).Delete(id)
	})
	if err != nil {
		return err
	}
	c.notify("book_delete", "book", id, fmt.Sprintf("Deleted %q", title))
	return nil
}

func (c *Catalog) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	book, err := books.NewRepository(c.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", circulation.ErrBookNotFound, id)
		}
		return nil, err
	}
	return book, nil
}

func (c *Catalog) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return books.NewRepository(c.db.WithContext(ctx)).List()
}

// SearchBooks matches title, author or ISBN, ignoring case.
func (c *Catalog) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	return books.NewRepository(c.db.WithContext(ctx)).Search(query)
}

// FilterBooks narrows by exact category and availability; empty values match all.
func (c *Catalog) FilterBooks(ctx context.Context, category string, availability books.Availability) ([]entities.Book, error) {
	return books.NewRepository(c.db.WithContext(ctx)).Filter(category, availability)
}

// BookQuery combines a free-text search with filters.
type BookQuery struct {
	Query        string
	Category     string
	Availability books.Availability
}

func (c *Catalog) FindBooks(ctx context.Context, q BookQuery) ([]entities.Book, error) {
	if strings.TrimSpace(q.Query) == "" {
		return c.FilterBooks(ctx, q.Category, q.Availability)
	}
	found, err := c.SearchBooks(ctx, q.Query)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, b := range found {
		if q.Category != "" && b.Category != q.Category {
			continue
		}
		if q.Availability == books.AvailabilityAvailable && !b.IsAvailable() {
			continue
		}
		if q.Availability == books.AvailabilityUnavailable && b.IsAvailable() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func bookErr(id string, err error) error {
	if isLedgerNotFound(err) {
		return fmt.Errorf("%w: %s", circulation.ErrBookNotFound, id)
	}
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
