package entities

import "time"

// BorrowRecord tracks one physical copy lent to a student.
// A nil ReturnedDate means the copy is still outstanding.
type BorrowRecord struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	StudentID    string     `gorm:"index;size:64;not null" json:"student_id"`
	BookID       string     `gorm:"index;size:64;not null" json:"book_id"`
	IssuedDate   time.Time  `gorm:"index" json:"issued_date"`
	DueDate      time.Time  `gorm:"index" json:"due_date"`
	ReturnedDate *time.Time `gorm:"index" json:"returned_date"`
	Renewals     int        `gorm:"not null;default:0" json:"renewals"`
	Notes        string     `gorm:"size:1000" json:"notes,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

// IsOutstanding reports whether the copy has not been returned yet.
func (r *BorrowRecord) IsOutstanding() bool {
	return r.ReturnedDate == nil
}

// IsOverdue reports whether the record is outstanding past its due date.
func (r *BorrowRecord) IsOverdue(asOf time.Time) bool {
	return r.IsOutstanding() && r.DueDate.Before(asOf)
}
