package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ids"
)

// SeedResult counts rows inserted by SeedDemo.
type SeedResult struct {
	Students int
	Admins   int
	Books    int
	Ebooks   int
}

func (r SeedResult) Empty() bool {
	return r.Students+r.Admins+r.Books+r.Ebooks == 0
}

// SeedDemo fills every empty collection with the demo library: one student,
// a super admin and a regular admin, three books and an approved e-book.
// Collections that already hold rows are left alone, so calling it on every
// start is safe.
func SeedDemo(db *gorm.DB, gen ids.Generator, bcryptCost int) (SeedResult, error) {
	var result SeedResult
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		empty := func(model any) (bool, error) {
			var count int64
			if err := tx.Model(model).Count(&count).Error; err != nil {
				return false, err
			}
			return count == 0, nil
		}

		if ok, err := empty(&entities.Student{}); err != nil {
			return err
		} else if ok {
			hash, err := auth.HashPassword("password", bcryptCost)
			if err != nil {
				return err
			}
			student := entities.Student{
				ID:            gen.NewID(),
				Name:          "John Doe",
				Email:         "email@student.com",
				StudentNumber: "STU-2025-001",
				PasswordHash:  hash,
				Phone:         "N/A",
				CreatedAt:     now,
			}
			if err := tx.Create(&student).Error; err != nil {
				return fmt.Errorf("seed student: %w", err)
			}
			result.Students = 1
		}

		if ok, err := empty(&entities.Admin{}); err != nil {
			return err
		} else if ok {
			hash, err := auth.HashPassword("admin123", bcryptCost)
			if err != nil {
				return err
			}
			admins := []entities.Admin{
				{ID: gen.NewID(), Name: "Super Admin", Email: "admin@library.com", PasswordHash: hash, Role: entities.AdminRoleSuperAdmin, CreatedAt: now},
				{ID: gen.NewID(), Name: "Admin User", Email: "teacher@library.com", PasswordHash: hash, Role: entities.AdminRoleAdmin, CreatedAt: now},
			}
			if err := tx.Create(&admins).Error; err != nil {
				return fmt.Errorf("seed admins: %w", err)
			}
			result.Admins = len(admins)
		}

		if ok, err := empty(&entities.Book{}); err != nil {
			return err
		} else if ok {
			books := []entities.Book{
				{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Category: "Fiction", ISBN: "978-0743273565", Quantity: 5},
				{Title: "To Kill a Mockingbird", Author: "Harper Lee", Category: "Fiction", ISBN: "978-0061120084", Quantity: 3},
				{Title: "Python Programming", Author: "Guido van Rossum", Category: "Technology", ISBN: "978-0134685991", Quantity: 4},
			}
			for i := range books {
				books[i].ID = gen.NewID()
				books[i].Available = books[i].Quantity
				books[i].CreatedAt = now
			}
			if err := tx.Create(&books).Error; err != nil {
				return fmt.Errorf("seed books: %w", err)
			}
			result.Books = len(books)
		}

		if ok, err := empty(&entities.Ebook{}); err != nil {
			return err
		} else if ok {
			ebook := entities.Ebook{
				ID:         gen.NewID(),
				Title:      "Digital Age",
				Author:     "Tech Author",
				Category:   "Technology",
				Status:     entities.EbookStatusApproved,
				UploadDate: now,
				CreatedAt:  now,
			}
			if err := tx.Create(&ebook).Error; err != nil {
				return fmt.Errorf("seed ebook: %w", err)
			}
			result.Ebooks = 1
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	if !result.Empty() {
		log.Printf("Seeded demo data: %d students, %d admins, %d books, %d ebooks",
			result.Students, result.Admins, result.Books, result.Ebooks)
	}
	return result, nil
}
