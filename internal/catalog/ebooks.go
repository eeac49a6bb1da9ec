package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/libraryhub/internal/database/ebooks"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type EbookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
}

func (in EbookInput) validate() error {
	v := validator{}
	v.check(strings.TrimSpace(in.Title) != "", "title", "Title is required")
	v.check(strings.TrimSpace(in.Author) != "", "author", "Author is required")
	v.check(strings.TrimSpace(in.Category) != "", "category", "Category is required")
	v.check(strings.TrimSpace(in.FileURL) != "", "file_url", "File is required")
	return v.err()
}

// PublishEbook stores an upload awaiting approval.
func (c *Catalog) PublishEbook(ctx context.Context, uploadedBy string, in EbookInput) (*entities.Ebook, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := c.now()
	ebook := &entities.Ebook{
		ID:          c.opts.IDs.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		FileURL:     strings.TrimSpace(in.FileURL),
		UploadedBy:  uploadedBy,
		Status:      entities.EbookStatusPending,
		UploadDate:  now,
		CreatedAt:   now,
	}
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		return ebooks.NewRepository(tx.DB()).Create(ebook)
	})
	if err != nil {
		return nil, fmt.Errorf("publish ebook: %w", err)
	}
	c.notify("ebook_publish", "ebook", ebook.ID, fmt.Sprintf("Uploaded %q", ebook.Title))
	return ebook, nil
}

// ApproveEbook marks a pending upload approved. Approving twice is a no-op.
func (c *Catalog) ApproveEbook(ctx context.Context, id string) (*entities.Ebook, error) {
	var ebook *entities.Ebook
	changed := false
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := ebooks.NewRepository(tx.DB())
		var err error
		ebook, err = repo.GetByID(id)
		if err != nil {
			return ebookErr(id, err)
		}
		if ebook.Status == entities.EbookStatusApproved {
			return nil
		}
		ebook.Status = entities.EbookStatusApproved
		changed = true
		return repo.Save(ebook)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		c.notify("ebook_approve", "ebook", id, fmt.Sprintf("Approved %q", ebook.Title))
	}
	return ebook, nil
}

func (c *Catalog) DeleteEbook(ctx context.Context, id string) error {
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		return ebookErr(id, ebooks.NewRepository(tx.DB()).Delete(id))
	})
	if err != nil {
		return err
	}
	c.notify("ebook_delete", "ebook", id, "Deleted ebook")
	return nil
}

func (c *Catalog) GetEbook(ctx context.Context, id string) (*entities.Ebook, error) {
	ebook, err := ebooks.NewRepository(c.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, ebookErr(id, err)
	}
	return ebook, nil
}

// ListEbooks returns uploads in upload order; an empty status matches all.
func (c *Catalog) ListEbooks(ctx context.Context, status entities.EbookStatus) ([]entities.Ebook, error) {
	return ebooks.NewRepository(c.db.WithContext(ctx)).List(status)
}

func ebookErr(id string, err error) error {
	if err != nil && isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrEbookNotFound, id)
	}
	return err
}
