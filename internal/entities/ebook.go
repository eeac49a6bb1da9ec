package entities

import "time"

type EbookStatus string

const (
	EbookStatusPending  EbookStatus = "pending"
	EbookStatusApproved EbookStatus = "approved"
)

type Ebook struct {
	ID          string      `gorm:"primaryKey;size:64" json:"id"`
	Title       string      `gorm:"index;size:512" json:"title"`
	Author      string      `gorm:"size:256" json:"author"`
	Category    string      `gorm:"size:128" json:"category"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	FileURL     string      `gorm:"size:2048" json:"file_url,omitempty"`
	UploadedBy  string      `gorm:"size:64" json:"uploaded_by,omitempty"`
	Status      EbookStatus `gorm:"index;size:20" json:"status"`
	UploadDate  time.Time   `gorm:"index" json:"upload_date"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Ebook) TableName() string {
	return "ebooks"
}
