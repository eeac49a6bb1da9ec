// Package admins provides database operations for administrator accounts.
package admins

import (
	"strings"

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

func (r *Repository) Create(admin *entities.Admin) error {
	return r.db.Create(admin).Error
}

func (r *Repository) Save(admin *entities.Admin) error {
	return r.db.Save(admin).Error
}

func (r *Repository) GetByID(id string) (*entities.Admin, error) {
	var admin entities.Admin
	if err := r.db.First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) GetByEmail(email string) (*entities.Admin, error) {
	var admin entities.Admin
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repository) List() ([]entities.Admin, error) {
	var admins []entities.Admin
	err := r.db.Order("rowid ASC").Find(&admins).Error
	return admins, err
}

func (r *Repository) CountByRole(role entities.AdminRole) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Admin{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *Repository) Delete(id string) error {
	result := r.db.Delete(&entities.Admin{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Admin{}).Error
}
