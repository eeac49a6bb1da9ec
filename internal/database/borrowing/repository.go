// Package borrowing provides database operations for borrow records.
//
// One row represents one lent copy. Rows are listed in insertion order
// (SQLite rowid), which report tie-breaking relies on.
//
// # Usage
//
//	repo := borrowing.NewRepository(db)
//	outstanding, err := repo.ListOutstandingForStudent("s-1")
package borrowing

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

const insertionOrder = "rowid ASC"

// Repository handles all borrow record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrowing repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts records in the given order.
func (r *Repository) Create(records []entities.BorrowRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Create(&records).Error
}

func (r *Repository) Save(record *entities.BorrowRecord) error {
	return r.db.Save(record).Error
}

func (r *Repository) GetByID(id string) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every record, returned or not.
func (r *Repository) List() ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Order(insertionOrder).Find(&records).Error
	return records, err
}

// ListOutstanding returns records that have not been returned.
func (r *Repository) ListOutstanding() ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Where("returned_date IS NULL").Order(insertionOrder).Find(&records).Error
	return records, err
}

func (r *Repository) ListOutstandingForStudent(studentID string) ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Where("student_id = ? AND returned_date IS NULL", studentID).Order(insertionOrder).Find(&records).Error
	return records, err
}

// ListForStudent returns the full borrowing history of a student.
func (r *Repository) ListForStudent(studentID string) ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Where("student_id = ?", studentID).Order(insertionOrder).Find(&records).Error
	return records, err
}

// ListReturned returns records whose copy is back on the shelf.
func (r *Repository) ListReturned() ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Where("returned_date IS NOT NULL").Order(insertionOrder).Find(&records).Error
	return records, err
}

// ListIssuedSince returns records issued at or after since.
func (r *Repository) ListIssuedSince(since time.Time) ([]entities.BorrowRecord, error) {
	var records []entities.BorrowRecord
	err := r.db.Where("issued_date >= ?", since).Order(insertionOrder).Find(&records).Error
	return records, err
}

// CountOutstandingForBook counts copies of a book currently lent out.
func (r *Repository) CountOutstandingForBook(bookID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRecord{}).
		Where("book_id = ? AND returned_date IS NULL", bookID).
		Count(&count).Error
	return count, err
}

// CountOutstandingForStudent counts copies a student currently holds.
func (r *Repository) CountOutstandingForStudent(studentID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRecord{}).
		Where("student_id = ? AND returned_date IS NULL", studentID).
		Count(&count).Error
	return count, err
}

// CountOutstanding counts all copies currently lent out.
func (r *Repository) CountOutstanding() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRecord{}).Where("returned_date IS NULL").Count(&count).Error
	return count, err
}

// Delete removes one record. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&entities.BorrowRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByIDs removes the given records and reports how many rows went away.
func (r *Repository) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&entities.BorrowRecord{})
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.BorrowRecord{}).Error
}
