package circulation

import (
	"errors"
	"fmt"

	"github.com/mrlokans/libraryhub/internal/ledger"
)

// ErrNotFound is wrapped by every "does not resolve" error below.
var ErrNotFound = errors.New("not found")

var (
	ErrStudentNotFound    = fmt.Errorf("student %w", ErrNotFound)
	ErrBookNotFound       = fmt.Errorf("book %w", ErrNotFound)
	ErrRecordNotFound     = fmt.Errorf("borrow record %w", ErrNotFound)
	ErrInsufficientCopies = ledger.ErrInsufficientCopies
	ErrAlreadyReturned    = errors.New("book already returned")
	ErrInvalidDateRange   = errors.New("due date must be after issue date")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrRenewalLimit       = errors.New("renewal limit reached")
	ErrNotEligible        = errors.New("student is not eligible to borrow")
)

// translateLedgerErr maps ledger lookups onto this package's error kinds.
func translateLedgerErr(err error) error {
	if errors.Is(err, ledger.ErrBookNotFound) {
		return fmt.Errorf("%w: %w", ErrBookNotFound, err)
	}
	return err
}
