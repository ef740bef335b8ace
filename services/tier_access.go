package services

import "wellness-entitlements/models"

// TierAccessEngine derives a user's tier from progress. It never stores a tier:
// any MP award or completion shows up on the next call.
type TierAccessEngine struct {
	Catalog *models.TierCatalog
}

func NewTierAccessEngine(catalog *models.TierCatalog) *TierAccessEngine {
	return &TierAccessEngine{Catalog: catalog}
}

func gateSatisfied(t models.Tier, p *models.UserProgress) bool {
	if p.LifetimeMP < t.RequiredMP {
		return false
	}
	for _, id := range t.RequiredAchievements {
		if !p.HasCompleted(id) {
			return false
		}
	}
	return true
}

// CurrentTier scans from the highest level down and returns the first satisfied gate.
// The base tier is ungated, so there is always a result.
func (e *TierAccessEngine) CurrentTier(p *models.UserProgress) models.Tier {
	tiers := e.Catalog.Tiers()
	for i := len(tiers) - 1; i >= 0; i-- {
		if gateSatisfied(tiers[i], p) {
			return tiers[i]
		}
	}
	return e.Catalog.Base()
}

func (e *TierAccessEngine) HasFeature(p *models.UserProgress, flag models.FeatureFlag) bool {
	return e.CurrentTier(p).Has(flag)
}

// Features lists the flags granted by the user's current tier.
func (e *TierAccessEngine) Features(p *models.UserProgress) []models.FeatureFlag {
	return append([]models.FeatureFlag(nil), e.CurrentTier(p).Features...)
}

// NextTierProgress is the gap between a user and the tier above their current one.
type NextTierProgress struct {
	NextTier           models.Tier `json:"next_tier"`
	MPNeeded           int64       `json:"mp_needed"`
	AchievementsNeeded []string    `json:"achievements_needed"`
}

// ProgressToNextTier returns nil at the top of the ladder.
func (e *TierAccessEngine) ProgressToNextTier(p *models.UserProgress) *NextTierProgress {
	next, ok := e.Catalog.Next(e.CurrentTier(p))
	if !ok {
		return nil
	}
	out := &NextTierProgress{NextTier: next, AchievementsNeeded: []string{}}
	if gap := next.RequiredMP - p.LifetimeMP; gap > 0 {
		out.MPNeeded = gap
	}
	for _, id := range next.RequiredAchievements {
		if !p.HasCompleted(id) {
			out.AchievementsNeeded = append(out.AchievementsNeeded, id)
		}
	}
	return out
}
