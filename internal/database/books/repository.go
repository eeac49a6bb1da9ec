// Package books provides database operations for the book catalog.
//
// The available column is owned by internal/ledger; this package only
// reads it and persists whole rows handed to it.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID("b-1")
package books

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// Availability filters books by shelf state.
type Availability string

const (
	AvailabilityAny         Availability = ""
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Save upserts a book row.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Save(book).Error
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(id string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns all books in insertion order.
func (r *Repository) List() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("rowid ASC").Find(&books).Error
	return books, err
}

// ListIDs returns the IDs of all books.
func (r *Repository) ListIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entities.Book{}).Order("rowid ASC").Pluck("id", &ids).Error
	return ids, err
}

// Search matches title, author or ISBN case-insensitively.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.
		Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", pattern, pattern, pattern).
		Order("rowid ASC").
		Find(&books).Error
	return books, err
}

// Filter narrows books by category and availability. Empty values match everything.
func (r *Repository) Filter(category string, availability Availability) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Model(&entities.Book{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	switch availability {
	case AvailabilityAvailable:
		query = query.Where("available > 0")
	case AvailabilityUnavailable:
		query = query.Where("available <= 0")
	}
	err := query.Order("rowid ASC").Find(&books).Error
	return books, err
}

// Delete removes a book. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&entities.Book{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll removes every book.
func (r *Repository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Book{}).Error
}

// UpdateAvailable writes the available column only.
func (r *Repository) UpdateAvailable(id string, available int) error {
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Update("available", available).Error
}

// Count returns the number of books in the catalog.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
