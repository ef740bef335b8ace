package services

import (
	"context"
	"fmt"
	"math"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// ProgressResult is the outcome of a single RecordProgress call.
type ProgressResult struct {
	Achievement   models.Achievement `json:"achievement"`
	NewProgress   float64            `json:"new_progress"`
	JustCompleted bool               `json:"just_completed"`
	// Locked is set when a prerequisite is still missing; progress was not recorded.
	Locked  bool    `json:"locked,omitempty"`
	Balance Balance `json:"balance"`
}

// AchievementStatus is one row of a progress snapshot.
type AchievementStatus struct {
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Percent   int     `json:"percent"`
	Completed bool    `json:"completed"`
}

// ActivityEvent is a raw UI event translated into achievement progress.
type ActivityEvent struct {
	Kind   models.ActivityKind `json:"kind"`
	Amount float64             `json:"amount"`
}

type AchievementTracker struct {
	catalog *models.AchievementCatalog
	repo    *ProgressRepository
	tiers   map[models.ContentDomain]*TierAccessEngine
	log     *logger.Logger
}

// NewAchievementTracker wires the tracker; tiers is only used to log promotions.
func NewAchievementTracker(catalog *models.AchievementCatalog, repo *ProgressRepository, tiers map[models.ContentDomain]*TierAccessEngine, log *logger.Logger) *AchievementTracker {
	return &AchievementTracker{
		catalog: catalog,
		repo:    repo,
		tiers:   tiers,
		log:     log.With("service", "AchievementTracker"),
	}
}

func (t *AchievementTracker) Catalog() *models.AchievementCatalog { return t.catalog }

// advance applies delta to one achievement inside a staged update. It awards the
// reward at most once, the first time progress reaches the target.
func (t *AchievementTracker) advance(p *models.UserProgress, a models.Achievement, delta float64) (ProgressResult, error) {
	res := ProgressResult{Achievement: a}

	if p.HasCompleted(a.ID) {
		res.NewProgress = p.AchievementProgress[a.ID]
		return res, nil
	}
	for _, req := range a.Requires {
		if !p.HasCompleted(req) {
			res.Locked = true
			res.NewProgress = p.AchievementProgress[a.ID]
			return res, nil
		}
	}

	current := p.AchievementProgress[a.ID] + delta
	reached := false
	if a.Binary() {
		// Binary achievements have nothing to accumulate.
		current = 0
		reached = delta >= 1
	} else {
		current = math.Max(0, math.Min(current, a.TargetProgress))
		reached = current >= a.TargetProgress
	}
	p.AchievementProgress[a.ID] = current
	res.NewProgress = current

	if reached {
		if err := t.completeIn(p, a); err != nil {
			return res, err
		}
		res.JustCompleted = true
	}
	return res, nil
}

func (t *AchievementTracker) completeIn(p *models.UserProgress, a models.Achievement) error {
	now := t.repo.Now()
	p.Completed[a.ID] = now
	if !a.Binary() {
		p.AchievementProgress[a.ID] = a.TargetProgress
	}
	_, err := earn(p, a.MPReward, "achievement:"+a.ID, now)
	return err
}

// RecordProgress adds delta to an achievement, clamped to [0, target].
func (t *AchievementTracker) RecordProgress(ctx context.Context, userID, achievementID string, delta float64) (ProgressResult, error) {
	a, ok := t.catalog.Get(achievementID)
	if !ok {
		return ProgressResult{}, fmt.Errorf("%w: %s", ErrUnknownAchievement, achievementID)
	}

	var res ProgressResult
	var before *models.UserProgress
	p, err := t.repo.Update(ctx, userID, func(p *models.UserProgress) error {
		before = p.Clone()
		var err error
		res, err = t.advance(p, a, delta)
		return err
	})
	if err != nil {
		return ProgressResult{}, err
	}
	res.Balance = balanceOf(p)
	if res.JustCompleted {
		t.logCompletion(userID, []models.Achievement{a}, before, p)
	}
	return res, nil
}

// Complete marks a binary (or any) achievement done. Already-completed is a no-op.
func (t *AchievementTracker) Complete(ctx context.Context, userID, achievementID string) (ProgressResult, error) {
	a, ok := t.catalog.Get(achievementID)
	if !ok {
		return ProgressResult{}, fmt.Errorf("%w: %s", ErrUnknownAchievement, achievementID)
	}
	delta := a.TargetProgress
	if a.Binary() {
		delta = 1
	}
	return t.RecordProgress(ctx, userID, achievementID, delta)
}

// RecordActivity advances every achievement triggered by the event, in catalog
// order, as one atomic update. Binary achievements see the event as a single step.
func (t *AchievementTracker) RecordActivity(ctx context.Context, userID string, ev ActivityEvent) ([]ProgressResult, error) {
	amount := ev.Amount
	if amount == 0 {
		amount = 1
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: activity amount %v", ErrInvalidAmount, ev.Amount)
	}
	triggered := t.catalog.Triggered(ev.Kind)
	if len(triggered) == 0 {
		return []ProgressResult{}, nil
	}

	var results []ProgressResult
	var completed []models.Achievement
	var before *models.UserProgress
	p, err := t.repo.Update(ctx, userID, func(p *models.UserProgress) error {
		before = p.Clone()
		results = results[:0]
		completed = completed[:0]
		for _, a := range triggered {
			delta := amount
			if a.Binary() {
				delta = 1
			}
			res, err := t.advance(p, a, delta)
			if err != nil {
				return err
			}
			if res.JustCompleted {
				completed = append(completed, a)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Balance = balanceOf(p)
	}
	if len(completed) > 0 {
		t.logCompletion(userID, completed, before, p)
	}
	return results, nil
}

// ProgressSnapshot reports every catalog achievement for the user.
func (t *AchievementTracker) ProgressSnapshot(ctx context.Context, userID string) (map[string]AchievementStatus, error) {
	p, err := t.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Snapshot(t.catalog, p), nil
}

// Snapshot is the pure form of ProgressSnapshot.
func Snapshot(catalog *models.AchievementCatalog, p *models.UserProgress) map[string]AchievementStatus {
	out := make(map[string]AchievementStatus)
	for _, a := range catalog.All() {
		st := AchievementStatus{
			Current:   p.AchievementProgress[a.ID],
			Target:    a.TargetProgress,
			Completed: p.HasCompleted(a.ID),
		}
		switch {
		case st.Completed:
			st.Percent = 100
			if !a.Binary() {
				st.Current = a.TargetProgress
			}
		case a.Binary():
			st.Percent = 0
		default:
			st.Percent = int(math.Min(100, math.Round(100*st.Current/a.TargetProgress)))
		}
		out[a.ID] = st
	}
	return out
}

func (t *AchievementTracker) logCompletion(userID string, done []models.Achievement, before, after *models.UserProgress) {
	for _, a := range done {
		t.log.Info("Achievement completed", "user_id", userID, "achievement", a.ID, "mp_reward", a.MPReward)
	}
	for domain, engine := range t.tiers {
		from, to := engine.CurrentTier(before), engine.CurrentTier(after)
		if to.Level > from.Level {
			t.log.Info("Tier unlocked", "user_id", userID, "domain", domain, "from", from.ID, "to", to.ID)
		}
	}
}
