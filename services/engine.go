package services

import (
	"context"
	"fmt"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// Engine bundles the entitlement components over one ProgressRepository.
type Engine struct {
	Repo        *ProgressRepository
	Ledger      *PointsLedger
	Tracker     *AchievementTracker
	Tiers       map[models.ContentDomain]*TierAccessEngine
	Access      *ContentAccessFilter
	Constraints *TemplateConstraintEngine
}

// NewEngine builds the components from static catalogs.
func NewEngine(repo *ProgressRepository, catalogs map[models.ContentDomain]*models.TierCatalog, achievements *models.AchievementCatalog, stepLimits map[string]int, log *logger.Logger) (*Engine, error) {
	tiers := make(map[models.ContentDomain]*TierAccessEngine, len(catalogs))
	for domain, c := range catalogs {
		for _, t := range c.Tiers() {
			for _, id := range t.RequiredAchievements {
				if _, ok := achievements.Get(id); !ok {
					return nil, fmt.Errorf("tier %s/%s requires unknown achievement %q", domain, t.ID, id)
				}
			}
		}
		tiers[domain] = NewTierAccessEngine(c)
	}
	if _, ok := tiers[models.DomainTemplate]; !ok {
		return nil, fmt.Errorf("a %s tier catalog is required", models.DomainTemplate)
	}

	return &Engine{
		Repo:        repo,
		Ledger:      NewPointsLedger(repo, log),
		Tracker:     NewAchievementTracker(achievements, repo, tiers, log),
		Tiers:       tiers,
		Access:      NewContentAccessFilter(tiers, repo, log),
		Constraints: NewTemplateConstraintEngine(stepLimits),
	}, nil
}

// DomainStanding is the derived standing of a user on one domain ladder.
type DomainStanding struct {
	Tier     models.Tier          `json:"tier"`
	Next     *NextTierProgress    `json:"next,omitempty"`
	Features []models.FeatureFlag `json:"features"`
}

// Overview is everything the dashboard needs in one read.
type Overview struct {
	UserID       string                                  `json:"user_id"`
	Balance      Balance                                 `json:"balance"`
	Standings    map[models.ContentDomain]DomainStanding `json:"standings"`
	Achievements map[string]AchievementStatus            `json:"achievements"`
	Template     TemplateLimits                          `json:"template_limits"`
}

// TemplateLimits summarises authoring rights at a template tier.
type TemplateLimits struct {
	Tier        string `json:"tier"`
	CanCreate   bool   `json:"can_create"`
	MaxSteps    int    `json:"max_steps"`
	Unlimited   bool   `json:"unlimited"`
	CanSchedule bool   `json:"can_schedule"`
	CanUseAI    bool   `json:"can_use_ai"`
}

func (e *Engine) TemplateLimitsFor(tier models.Tier) TemplateLimits {
	limit := e.Constraints.MaxSteps(tier)
	return TemplateLimits{
		Tier:        tier.ID,
		CanCreate:   e.Constraints.CanCreateTemplate(tier),
		MaxSteps:    limit,
		Unlimited:   limit == models.UnlimitedSteps,
		CanSchedule: e.Constraints.CanSchedule(tier),
		CanUseAI:    e.Constraints.CanUseAI(tier),
	}
}

// TemplateTier derives the user's tier on the template ladder.
func (e *Engine) TemplateTier(p *models.UserProgress) models.Tier {
	return e.Tiers[models.DomainTemplate].CurrentTier(p)
}

func (e *Engine) Overview(ctx context.Context, userID string) (*Overview, error) {
	p, err := e.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &Overview{
		UserID:       userID,
		Balance:      balanceOf(p),
		Standings:    make(map[models.ContentDomain]DomainStanding, len(e.Tiers)),
		Achievements: Snapshot(e.Tracker.Catalog(), p),
		Template:     e.TemplateLimitsFor(e.TemplateTier(p)),
	}
	for domain, engine := range e.Tiers {
		out.Standings[domain] = DomainStanding{
			Tier:     engine.CurrentTier(p),
			Next:     engine.ProgressToNextTier(p),
			Features: engine.Features(p),
		}
	}
	return out, nil
}
