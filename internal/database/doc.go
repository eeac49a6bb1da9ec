// Package database provides the data access layer for the library.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── seed.go          # Demo catalog, accounts and e-book
//	├── books/           # Book catalog rows and availability columns
//	├── students/        # Student accounts
//	├── admins/          # Administrator accounts
//	├── borrowing/       # Borrow records (one row per lent copy)
//	├── ebooks/          # E-book submissions and approvals
//	└── audit/           # Activity log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./library.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	recordsRepo := borrowing.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID("b-1")
//	outstanding, err := recordsRepo.ListOutstandingForStudent("s-1")
//
// # Transactions
//
// Repositories are bound to a *gorm.DB. Inside a transaction, rebind them to
// the transaction handle so every read and write shares it:
//
//	err := db.DB.Transaction(func(tx *gorm.DB) error {
//		books := booksRepo.WithTx(tx)
//		...
//	})
//
// Availability columns must only be changed through internal/ledger.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor and WithTx
//  4. Register the entity in Migrate
//  5. Add compile-time interface checks in internal/interfaces
package database
