package cron

import (
	"context"
	"fmt"

	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
)

// expirationSweeper runs the inventory reclassification pass.
type expirationSweeper interface {
	SweepExpirations(ctx context.Context) (*inventory.SweepSummary, error)
}

// ExpirationSweepJobParams configure the sweep job.
type ExpirationSweepJobParams struct {
	Logger    *logger.Logger
	Inventory expirationSweeper
}

// NewExpirationSweepJob builds the job that reclassifies perishable inventory,
// fans out notifications, and triggers automatic promotions.
func NewExpirationSweepJob(params ExpirationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &expirationSweepJob{logg: params.Logger, inventory: params.Inventory}, nil
}

type expirationSweepJob struct {
	logg      *logger.Logger
	inventory expirationSweeper
}

func (j *expirationSweepJob) Name() string { return "expiration-sweep" }

func (j *expirationSweepJob) Run(ctx context.Context) error {
	summary, err := j.inventory.SweepExpirations(ctx)
	if err != nil {
		return fmt.Errorf("expiration sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":            summary.Scanned,
		"changed":            summary.Changed,
		"expired":            summary.Expired,
		"expiring_soon":      summary.ExpiringSoon,
		"promotions_created": summary.PromotionsCreated,
	})
	j.logg.Info(logCtx, "expiration sweep complete")
	return nil
}
