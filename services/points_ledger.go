package services

import (
	"context"
	"math"
	"time"

	"github.com/segmentio/ksuid"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// Balance is a point-in-time view of a user's MP.
type Balance struct {
	CurrentMP  int64 `json:"current_mp"`
	LifetimeMP int64 `json:"lifetime_mp"`
}

func balanceOf(p *models.UserProgress) Balance {
	return Balance{CurrentMP: p.CurrentMP, LifetimeMP: p.LifetimeMP}
}

// PointsLedger is the only writer of MP balances.
type PointsLedger struct {
	repo *ProgressRepository
	log  *logger.Logger
}

func NewPointsLedger(repo *ProgressRepository, log *logger.Logger) *PointsLedger {
	return &PointsLedger{repo: repo, log: log.With("service", "PointsLedger")}
}

// earn credits amount to p and records why. Callers compose it inside a repository update.
func earn(p *models.UserProgress, amount int64, reason string, now time.Time) (models.LedgerEntry, error) {
	if amount <= 0 {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	// CurrentMP <= LifetimeMP, so guarding lifetime covers both.
	if amount > math.MaxInt64-p.LifetimeMP {
		return models.LedgerEntry{}, ErrBalanceOverflow
	}
	p.CurrentMP += amount
	p.LifetimeMP += amount
	e := models.LedgerEntry{
		ID:            ksuid.New().String(),
		UserID:        p.UserID,
		Kind:          models.LedgerEarn,
		Amount:        amount,
		Reason:        reason,
		BalanceAfter:  p.CurrentMP,
		LifetimeAfter: p.LifetimeMP,
		CreatedAt:     now,
	}
	p.PushActivity(e)
	return e, nil
}

// spend debits amount from p or leaves it untouched.
func spend(p *models.UserProgress, amount int64, reason string, now time.Time) (models.LedgerEntry, error) {
	if amount <= 0 {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	if amount > p.CurrentMP {
		return models.LedgerEntry{}, &InsufficientFundsError{Required: amount, Available: p.CurrentMP}
	}
	p.CurrentMP -= amount
	e := models.LedgerEntry{
		ID:            ksuid.New().String(),
		UserID:        p.UserID,
		Kind:          models.LedgerSpend,
		Amount:        amount,
		Reason:        reason,
		BalanceAfter:  p.CurrentMP,
		LifetimeAfter: p.LifetimeMP,
		CreatedAt:     now,
	}
	p.PushActivity(e)
	return e, nil
}

// Earn credits amount to both current and lifetime MP.
func (l *PointsLedger) Earn(ctx context.Context, userID string, amount int64, reason string) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	p, err := l.repo.Update(ctx, userID, func(p *models.UserProgress) error {
		_, err := earn(p, amount, reason, l.repo.Now())
		return err
	})
	if err != nil {
		return Balance{}, err
	}
	l.log.Info("MP earned", "user_id", userID, "amount", amount, "reason", reason, "current_mp", p.CurrentMP)
	return balanceOf(p), nil
}

// Spend debits current MP atomically; on ErrInsufficientFunds the balance is unchanged.
func (l *PointsLedger) Spend(ctx context.Context, userID string, amount int64, reason string) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	p, err := l.repo.Update(ctx, userID, func(p *models.UserProgress) error {
		_, err := spend(p, amount, reason, l.repo.Now())
		return err
	})
	if err != nil {
		return Balance{}, err
	}
	l.log.Info("MP spent", "user_id", userID, "amount", amount, "reason", reason, "current_mp", p.CurrentMP)
	return balanceOf(p), nil
}

func (l *PointsLedger) Balance(ctx context.Context, userID string) (Balance, error) {
	p, err := l.repo.Get(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	return balanceOf(p), nil
}

// RecentActivity returns up to limit ledger entries, newest first.
func (l *PointsLedger) RecentActivity(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	p, err := l.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > len(p.Activity) {
		limit = len(p.Activity)
	}
	return p.Activity[:limit], nil
}

// ActivityCursor returns the id of the newest feed entry, or "" for an empty feed.
func (l *PointsLedger) ActivityCursor(ctx context.Context, userID string) (string, error) {
	p, err := l.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(p.Activity) == 0 {
		return "", nil
	}
	return p.Activity[0].ID, nil
}

// ActivitySince returns entries newer than afterID, oldest first, plus the new
// cursor. An empty afterID means the feed was empty when the cursor was taken,
// so every entry is new. If afterID has dropped off the capped feed the whole
// feed is returned.
func (l *PointsLedger) ActivitySince(ctx context.Context, userID, afterID string) ([]models.LedgerEntry, string, error) {
	p, err := l.repo.Get(ctx, userID)
	if err != nil {
		return nil, afterID, err
	}
	if len(p.Activity) == 0 {
		return nil, afterID, nil
	}

	var fresh []models.LedgerEntry
	for _, e := range p.Activity {
		if e.ID == afterID {
			break
		}
		fresh = append(fresh, e)
	}
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh, p.Activity[0].ID, nil
}
