package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// Snapshot is the portable form of the whole library. Each collection is kept
// as raw elements so a damaged element can be skipped without losing the rest.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Students   []json.RawMessage `json:"students"`
	Books      []json.RawMessage `json:"books"`
	Borrowing  []json.RawMessage `json:"borrowing"`
	Ebooks     []json.RawMessage `json:"ebooks"`
	Admins     []json.RawMessage `json:"admins"`
}

func (s *Snapshot) elements(c Collection) *[]json.RawMessage {
	switch c {
	case Students:
		return &s.Students
	case Books:
		return &s.Books
	case Borrowing:
		return &s.Borrowing
	case Ebooks:
		return &s.Ebooks
	case Admins:
		return &s.Admins
	}
	return nil
}

// Counts returns the number of elements per collection.
func (s *Snapshot) Counts() map[Collection]int {
	out := make(map[Collection]int, len(Collections))
	for _, c := range Collections {
		out[c] = len(*s.elements(c))
	}
	return out
}

// WriteTo encodes the snapshot as indented JSON.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadSnapshot decodes a snapshot document. Individual elements are not
// validated here; Import does that.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Export captures every collection. It holds the ledger lock so the snapshot
// never shows a half-applied circulation operation.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: SnapshotVersion, ExportedAt: time.Now().UTC()}
	err := s.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		for _, c := range Collections {
			records, err := (&Store{db: tx.DB()}).Get(ctx, c)
			if err != nil {
				return fmt.Errorf("export %s: %w", c, err)
			}
			raw := make([]json.RawMessage, 0, len(records))
			for _, r := range records {
				data, err := json.Marshal(r)
				if err != nil {
					return fmt.Errorf("encode %s record: %w", c, err)
				}
				raw = append(raw, data)
			}
			*snap.elements(c) = raw
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

type ImportOptions struct {
	// Replace empties every collection before loading the snapshot.
	Replace bool
}

type ImportResult struct {
	Imported    map[Collection]int  `json:"imported"`
	Skipped     map[Collection]int  `json:"skipped"`
	Adjustments []ledger.Adjustment `json:"adjustments,omitempty"`
}

// Import loads a snapshot in one transaction. Elements that fail to decode,
// lack an id, break a record rule or collide with a stored row (a duplicate
// email, say) are skipped and counted. Existing rows with the same id are
// overwritten with the snapshot's values, timestamps included. Every book is
// resynced afterwards so availability agrees with the imported records.
func (s *Store) Import(ctx context.Context, snap *Snapshot, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		Imported: make(map[Collection]int),
		Skipped:  make(map[Collection]int),
	}

	err := s.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		db := tx.DB()
		if opts.Replace {
			for _, c := range Collections {
				model, _ := emptyModel(c)
				if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return fmt.Errorf("clear %s: %w", c, err)
				}
			}
		}

		for _, c := range Collections {
			for i, raw := range *snap.elements(c) {
				model, err := decodeElement(c, raw)
				if err == nil {
					err = validateRecord(model)
				}
				if err == nil {
					// Savepoint per element: a constraint failure drops only this element.
					err = db.Transaction(func(sp *gorm.DB) error {
						return upsert(sp, model)
					})
				}
				if err != nil {
					log.Printf("Snapshot import: skipping %s[%d]: %v", c, i, err)
					result.Skipped[c]++
					continue
				}
				result.Imported[c]++
			}
		}

		adjustments, err := tx.ResyncAll()
		if err != nil {
			return err
		}
		result.Adjustments = adjustments
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Snapshot import: imported %v, skipped %v, %d availability corrections",
		result.Imported, result.Skipped, len(result.Adjustments))
	return result, nil
}

func decodeElement(c Collection, raw json.RawMessage) (any, error) {
	switch c {
	case Students:
		return decodeAs[entities.Student](raw, func(v *entities.Student) string { return v.ID })
	case Books:
		return decodeAs[entities.Book](raw, func(v *entities.Book) string { return v.ID })
	case Borrowing:
		return decodeAs[entities.BorrowRecord](raw, func(v *entities.BorrowRecord) string { return v.ID })
	case Ebooks:
		return decodeAs[entities.Ebook](raw, func(v *entities.Ebook) string { return v.ID })
	case Admins:
		return decodeAs[entities.Admin](raw, func(v *entities.Admin) string { return v.ID })
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

func decodeAs[T any](raw json.RawMessage, id func(*T) string) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if id(&v) == "" {
		return nil, ErrMissingID
	}
	return &v, nil
}
