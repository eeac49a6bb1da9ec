package entities

import "time"

type Student struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Name          string    `gorm:"index;size:256" json:"name"`
	Email         string    `gorm:"uniqueIndex;size:255" json:"email"`
	StudentNumber string    `gorm:"index;size:64" json:"student_number"`
	PasswordHash  string    `gorm:"size:255" json:"password_hash,omitempty"`
	Phone         string    `gorm:"size:64" json:"phone"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// Public returns a copy safe to hand to API clients.
func (s Student) Public() Student {
	s.PasswordHash = ""
	return s
}
