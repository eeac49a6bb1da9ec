package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/libraryhub/internal/ledger"
)

// InventoryResyncer recomputes availability for every book.
type InventoryResyncer interface {
	ResyncAll(ctx context.Context) ([]ledger.Adjustment, error)
}

type ResyncInventoryTask struct{}

func (t ResyncInventoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "resync_inventory",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention:   defaultRetention(),
	}
}

func ResyncInventoryProcessor(resyncer InventoryResyncer) backlite.QueueProcessor[ResyncInventoryTask] {
	return func(ctx context.Context, task ResyncInventoryTask) error {
		if resyncer == nil {
			return fmt.Errorf("inventory resyncer not configured")
		}
		adjustments, err := resyncer.ResyncAll(ctx)
		if err != nil {
			return fmt.Errorf("resync inventory: %w", err)
		}
		log.Printf("[TASK] Inventory resync corrected %d books", len(adjustments))
		return nil
	}
}
