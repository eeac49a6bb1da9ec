package entities

import "time"

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleAdmin      AdminRole = "admin"
)

// Valid reports whether r is a known role.
func (r AdminRole) Valid() bool {
	return r == AdminRoleSuperAdmin || r == AdminRoleAdmin
}

type Admin struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"size:256" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"password_hash,omitempty"`
	Role         AdminRole `gorm:"size:20;default:'admin'" json:"role"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// Public returns a copy safe to hand to API clients.
func (a Admin) Public() Admin {
	a.PasswordHash = ""
	return a
}
