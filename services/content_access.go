package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// Receipt is returned by a successful acquisition.
type Receipt struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	MPSpent      int64     `json:"mp_spent"`
	AcquiredAt   time.Time `json:"acquired_at"`
	AlreadyOwned bool      `json:"already_owned"`
	Balance      Balance   `json:"balance"`
}

// ContentAccessFilter gates audio tracks, templates and dashboard widgets the
// same way, each against its own domain's tier ladder.
type ContentAccessFilter struct {
	tiers map[models.ContentDomain]*TierAccessEngine
	repo  *ProgressRepository
	log   *logger.Logger
}

func NewContentAccessFilter(tiers map[models.ContentDomain]*TierAccessEngine, repo *ProgressRepository, log *logger.Logger) *ContentAccessFilter {
	return &ContentAccessFilter{tiers: tiers, repo: repo, log: log.With("service", "ContentAccessFilter")}
}

func (f *ContentAccessFilter) engine(domain models.ContentDomain) (*TierAccessEngine, error) {
	e, ok := f.tiers[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return e, nil
}

// checkTier returns a *TierLockedError when the user's tier is below the item's.
func (f *ContentAccessFilter) checkTier(p *models.UserProgress, item models.ContentItem) error {
	e, err := f.engine(item.Domain)
	if err != nil {
		return err
	}
	required, ok := e.Catalog.Get(item.RequiredTier)
	if !ok {
		return fmt.Errorf("content %s: unknown required tier %q in %s ladder", item.ID, item.RequiredTier, item.Domain)
	}
	current := e.CurrentTier(p)
	if current.Level < required.Level {
		return &TierLockedError{RequiredTier: required.ID, CurrentTier: current.ID}
	}
	return nil
}

// IsAccessible is the view check: tier only. Priced items are visible to anyone
// with the tier, whatever their balance.
func (f *ContentAccessFilter) IsAccessible(p *models.UserProgress, item models.ContentItem) bool {
	return f.checkTier(p, item) == nil
}

func (f *ContentAccessFilter) IsOwned(p *models.UserProgress, itemID string) bool {
	_, ok := p.Unlocked[itemID]
	return ok
}

// Acquire checks the tier first, then the price, and debits MP once.
// Acquiring an item already owned is a no-op success.
func (f *ContentAccessFilter) Acquire(ctx context.Context, userID string, item models.ContentItem) (Receipt, error) {
	var receipt Receipt
	p, err := f.repo.Update(ctx, userID, func(p *models.UserProgress) error {
		if err := f.checkTier(p, item); err != nil {
			return err
		}
		if rec, owned := p.Unlocked[item.ID]; owned {
			receipt = Receipt{ID: rec.ReceiptID, ItemID: item.ID, MPSpent: 0, AcquiredAt: rec.AcquiredAt, AlreadyOwned: true}
			return nil
		}
		now := f.repo.Now()
		if item.Priced() {
			if _, err := spend(p, item.RequiredMP, "unlock:"+item.ID, now); err != nil {
				return err
			}
		}
		rec := models.UnlockRecord{ReceiptID: uuid.NewString(), MPSpent: item.RequiredMP, AcquiredAt: now}
		p.Unlocked[item.ID] = rec
		receipt = Receipt{ID: rec.ReceiptID, ItemID: item.ID, MPSpent: rec.MPSpent, AcquiredAt: now}
		return nil
	})
	if err != nil {
		f.log.Debug("Acquire refused", "user_id", userID, "item", item.ID, "error", err)
		return Receipt{}, err
	}
	receipt.Balance = balanceOf(p)
	if !receipt.AlreadyOwned {
		f.log.Info("Content acquired", "user_id", userID, "item", item.ID, "mp_spent", receipt.MPSpent)
	}
	return receipt, nil
}
