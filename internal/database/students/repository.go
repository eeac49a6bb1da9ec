// Package students provides database operations for student accounts.
//
// # Usage
//
//	repo := students.NewRepository(db)
//	student, err := repo.GetByEmail("email@student.com")
package students

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// Repository handles all student database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new students repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(student *entities.Student) error {
	return r.db.Create(student).Error
}

func (r *Repository) Save(student *entities.Student) error {
	return r.db.Save(student).Error
}

func (r *Repository) GetByID(id string) (*entities.Student, error) {
	var student entities.Student
	if err := r.db.First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByEmail looks a student up by email, ignoring case.
func (r *Repository) GetByEmail(email string) (*entities.Student, error) {
	var student entities.Student
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns all students in insertion order.
func (r *Repository) List() ([]entities.Student, error) {
	var students []entities.Student
	err := r.db.Order("rowid ASC").Find(&students).Error
	return students, err
}

// Search matches name, email or student number case-insensitively.
func (r *Repository) Search(query string) ([]entities.Student, error) {
	var students []entities.Student
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(student_number) LIKE ?", pattern, pattern, pattern).
		Order("rowid ASC").
		Find(&students).Error
	return students, err
}

// Delete removes a student. Returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&entities.Student{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Student{}).Error
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Student{}).Count(&count).Error
	return count, err
}
