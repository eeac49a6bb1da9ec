// Package ebooks provides database operations for e-book submissions.
package ebooks

import (
	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ebook *entities.Ebook) error {
	return r.db.Create(ebook).Error
}

func (r *Repository) Save(ebook *entities.Ebook) error {
	return r.db.Save(ebook).Error
}

func (r *Repository) GetByID(id string) (*entities.Ebook, error) {
	var ebook entities.Ebook
	if err := r.db.First(&ebook, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ebook, nil
}

// List returns e-books in upload order, optionally filtered by status.
func (r *Repository) List(status entities.EbookStatus) ([]entities.Ebook, error) {
	var ebooks []entities.Ebook
	query := r.db.Model(&entities.Ebook{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("rowid ASC").Find(&ebooks).Error
	return ebooks, err
}

func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&entities.Ebook{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Ebook{}).Error
}
