// Package store is the collection-level view of the library database. It
// reads and writes whole records by collection name and moves the complete
// library in and out of JSON snapshots.
//
// Writes go through the ledger's Apply so they serialize with circulation.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type Collection string

const (
	Students  Collection = "students"
	Books     Collection = "books"
	Borrowing Collection = "borrowing"
	Ebooks    Collection = "ebooks"
	Admins    Collection = "admins"
)

// Collections lists every collection in snapshot order. Records reference
// students and books, so those come first.
var Collections = []Collection{Students, Books, Borrowing, Ebooks, Admins}

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("record not found")
	ErrMissingID         = errors.New("record has no id")
	ErrWrongType         = errors.New("record type does not match collection")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrBookOnLoan        = errors.New("book has copies on loan")
)

// ParseCollection validates a collection name from user input.
func ParseCollection(name string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

type Store struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func New(db *gorm.DB, l *ledger.Ledger) *Store {
	return &Store{db: db, ledger: l}
}

// Get returns every record of a collection in insertion order. Elements are
// entity values (entities.Book, entities.Student, ...).
func (s *Store) Get(ctx context.Context, c Collection) ([]any, error) {
	db := s.db.WithContext(ctx)
	switch c {
	case Students:
		return listAs[entities.Student](db)
	case Books:
		return listAs[entities.Book](db)
	case Borrowing:
		return listAs[entities.BorrowRecord](db)
	case Ebooks:
		return listAs[entities.Ebook](db)
	case Admins:
		return listAs[entities.Admin](db)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

// Put inserts the record or replaces the stored one with the same id.
// record may be an entity value or a pointer to one. Writing a book or a
// borrow record resyncs the books involved; a write that would leave more
// copies on loan than a book owns is rejected.
func (s *Store) Put(ctx context.Context, c Collection, record any) error {
	model, id, err := modelFor(c, record)
	if err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}
	if err := validateRecord(model); err != nil {
		return err
	}
	return s.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		affected, err := previousBook(tx.DB(), c, id)
		if err != nil {
			return err
		}
		if err := upsert(tx.DB(), model); err != nil {
			return err
		}
		switch r := model.(type) {
		case *entities.Book:
			affected = append(affected, r.ID)
		case *entities.BorrowRecord:
			affected = append(affected, r.BookID)
		}
		return resyncBooks(tx, affected...)
	})
}

// Delete removes one record by id. A book with copies on loan cannot be
// deleted; deleting a borrow record resyncs its book.
func (s *Store) Delete(ctx context.Context, c Collection, id string) error {
	model, err := emptyModel(c)
	if err != nil {
		return err
	}
	return s.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		db := tx.DB()
		if c == Books {
			outstanding, err := borrowing.NewRepository(db).CountOutstandingForBook(id)
			if err != nil {
				return err
			}
			if outstanding > 0 {
				return fmt.Errorf("%w: %s has %d outstanding", ErrBookOnLoan, id, outstanding)
			}
		}
		affected, err := previousBook(db, c, id)
		if err != nil {
			return err
		}

		result := db.Where("id = ?", id).Delete(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, c, id)
		}
		return resyncBooks(tx, affected...)
	})
}

// previousBook returns the book a stored borrow record points at, if any.
func previousBook(db *gorm.DB, c Collection, id string) ([]string, error) {
	if c != Borrowing {
		return nil, nil
	}
	record, err := borrowing.NewRepository(db).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{record.BookID}, nil
}

// resyncBooks recomputes availability for each existing book, refusing any
// book that would have more copies on loan than it owns.
func resyncBooks(tx *ledger.Tx, bookIDs ...string) error {
	seen := make(map[string]bool, len(bookIDs))
	for _, id := range bookIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		book, err := tx.Book(id)
		if errors.Is(err, ledger.ErrBookNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		outstanding, err := borrowing.NewRepository(tx.DB()).CountOutstandingForBook(id)
		if err != nil {
			return err
		}
		if int(outstanding) > book.Quantity {
			return fmt.Errorf("%w: %s owns %d copies, %d on loan", ledger.ErrInsufficientCopies, id, book.Quantity, outstanding)
		}
		if _, err := tx.Resync(id); err != nil {
			return err
		}
	}
	return nil
}

// validateRecord applies the rules a stored record must satisfy regardless
// of how it arrived.
func validateRecord(model any) error {
	switch r := model.(type) {
	case *entities.Book:
		if r.Quantity < 0 || r.Available < 0 {
			return fmt.Errorf("%w: book %s has negative copies", ErrInvalidRecord, r.ID)
		}
	case *entities.BorrowRecord:
		if r.StudentID == "" || r.BookID == "" {
			return fmt.Errorf("%w: record %s needs a student and a book", ErrInvalidRecord, r.ID)
		}
		if !r.DueDate.After(r.IssuedDate) {
			return fmt.Errorf("%w: record %s is due before it was issued", ErrInvalidRecord, r.ID)
		}
	}
	return nil
}

func listAs[T any](db *gorm.DB) ([]any, error) {
	var rows []T
	if err := db.Order("rowid ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}

// upsert lists the updated columns explicitly: UpdateAll would overwrite
// updated_at with the current time instead of the record's own value.
func upsert(db *gorm.DB, model any) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return err
	}
	columns := make([]string, 0, len(stmt.Schema.DBNames))
	for _, name := range stmt.Schema.DBNames {
		if field := stmt.Schema.LookUpField(name); field != nil && field.PrimaryKey {
			continue
		}
		columns = append(columns, name)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(model).Error
}

func emptyModel(c Collection) (any, error) {
	switch c {
	case Students:
		return &entities.Student{}, nil
	case Books:
		return &entities.Book{}, nil
	case Borrowing:
		return &entities.BorrowRecord{}, nil
	case Ebooks:
		return &entities.Ebook{}, nil
	case Admins:
		return &entities.Admin{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

// modelFor normalizes record to a pointer of the collection's entity type.
func modelFor(c Collection, record any) (any, string, error) {
	if _, err := emptyModel(c); err != nil {
		return nil, "", err
	}
	switch r := record.(type) {
	case entities.Student:
		return checkType(c, Students, &r, r.ID)
	case *entities.Student:
		return checkType(c, Students, r, r.ID)
	case entities.Book:
		return checkType(c, Books, &r, r.ID)
	case *entities.Book:
		return checkType(c, Books, r, r.ID)
	case entities.BorrowRecord:
		return checkType(c, Borrowing, &r, r.ID)
	case *entities.BorrowRecord:
		return checkType(c, Borrowing, r, r.ID)
	case entities.Ebook:
		return checkType(c, Ebooks, &r, r.ID)
	case *entities.Ebook:
		return checkType(c, Ebooks, r, r.ID)
	case entities.Admin:
		return checkType(c, Admins, &r, r.ID)
	case *entities.Admin:
		return checkType(c, Admins, r, r.ID)
	}
	return nil, "", fmt.Errorf("%w: %T in %s", ErrWrongType, record, c)
}

func checkType(got, want Collection, model any, id string) (any, string, error) {
	if got != want {
		return nil, "", fmt.Errorf("%w: %s record in %s", ErrWrongType, want, got)
	}
	return model, id, nil
}
