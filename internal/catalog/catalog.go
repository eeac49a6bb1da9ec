// Package catalog manages the library's books, students, admins and e-books.
// Inputs are validated before anything is written; quantity edits go through
// the inventory ledger so availability stays consistent with open loans.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/ids"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrEmailTaken            = errors.New("email is already registered")
	ErrBookHasOutstanding    = errors.New("book has copies on loan")
	ErrStudentHasOutstanding = errors.New("student has books on loan")
	ErrLastSuperAdmin        = errors.New("cannot delete the last super admin")

	ErrAdminNotFound = fmt.Errorf("admin %w", circulation.ErrNotFound)
	ErrEbookNotFound = fmt.Errorf("ebook %w", circulation.ErrNotFound)
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]{10,}$`)
)

// DefaultPhone is stored when a student gives no phone number.
const DefaultPhone = "N/A"

// ValidationError lists every invalid input field with a message.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type validator map[string]string

func (v validator) check(ok bool, field, message string) {
	if !ok {
		if _, exists := v[field]; !exists {
			v[field] = message
		}
	}
}

func (v validator) minLen(value string, n int, field, label string) {
	value = strings.TrimSpace(value)
	v.check(value != "", field, label+" is required")
	v.check(value == "" || len([]rune(value)) >= n, field, fmt.Sprintf("%s must be at least %d characters", label, n))
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

// Change describes one committed catalog write.
type Change struct {
	Action      string
	EntityType  string
	EntityID    string
	Description string
}

// Listener is notified after each committed catalog write.
type Listener func(Change)

type Options struct {
	IDs        ids.Generator
	Now        func() time.Time
	BcryptCost int
}

type Catalog struct {
	db        *gorm.DB
	ledger    *ledger.Ledger
	opts      Options
	listeners []Listener
}

func New(db *gorm.DB, l *ledger.Ledger, opts Options) *Catalog {
	if opts.IDs == nil {
		opts.IDs = ids.NewUUIDGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Catalog{db: db, ledger: l, opts: opts}
}

// AddListener registers fn for changes committed after this call.
func (c *Catalog) AddListener(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

func (c *Catalog) notify(action, entityType, entityID, description string) {
	change := Change{Action: action, EntityType: entityType, EntityID: entityID, Description: description}
	for _, fn := range c.listeners {
		fn(change)
	}
}

func (c *Catalog) now() time.Time {
	return c.opts.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isLedgerNotFound(err error) bool {
	return errors.Is(err, ledger.ErrBookNotFound)
}
