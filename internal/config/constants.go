package config

import "time"

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultLoanPeriod is how long a self-service request keeps a copy out
	DefaultLoanPeriod = 14 * 24 * time.Hour

	// DefaultRenewalPeriod is how far a renewal pushes the due date
	DefaultRenewalPeriod = 14 * 24 * time.Hour
)
