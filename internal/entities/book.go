package entities

import "time"

type Book struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Title       string    `gorm:"index;size:512" json:"title"`
	Author      string    `gorm:"index;size:256" json:"author"`
	Category    string    `gorm:"index;size:128" json:"category"`
	ISBN        string    `gorm:"index;size:32" json:"isbn"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CoverURL    string    `gorm:"size:2048" json:"cover_url,omitempty"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`  // Total owned copies
	Available   int       `gorm:"not null;default:0" json:"available"` // Copies on the shelf
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// IsAvailable reports whether at least one copy can be issued.
func (b *Book) IsAvailable() bool {
	return b.Available > 0
}

// CategoryCount is the number of books in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
