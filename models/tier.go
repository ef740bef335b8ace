package models

import (
	"fmt"
	"sort"
)

// FeatureFlag is a closed set of entitlements a tier can grant.
type FeatureFlag string

const (
	FeatureAudioLibrary      FeatureFlag = "audio_library"
	FeaturePremiumAudio      FeatureFlag = "premium_audio"
	FeatureOfflineAudio      FeatureFlag = "offline_audio"
	FeatureTemplateLibrary   FeatureFlag = "template_library"
	FeatureTemplateCreate    FeatureFlag = "template_create"
	FeatureTemplateSchedule  FeatureFlag = "template_schedule"
	FeatureAISuggestions     FeatureFlag = "ai_suggestions"
	FeatureProgressInsights  FeatureFlag = "progress_insights"
	FeaturePremiumWidgets    FeatureFlag = "premium_widgets"
	FeatureMPPricingDiscount FeatureFlag = "mp_pricing_discount"
)

var AllFeatureFlags = []FeatureFlag{
	FeatureAudioLibrary,
	FeaturePremiumAudio,
	FeatureOfflineAudio,
	FeatureTemplateLibrary,
	FeatureTemplateCreate,
	FeatureTemplateSchedule,
	FeatureAISuggestions,
	FeatureProgressInsights,
	FeaturePremiumWidgets,
	FeatureMPPricingDiscount,
}

func (f FeatureFlag) Valid() bool {
	for _, known := range AllFeatureFlags {
		if f == known {
			return true
		}
	}
	return false
}

// ContentDomain names an independent entitlement track. Each domain owns its own TierCatalog.
type ContentDomain string

const (
	DomainAudio     ContentDomain = "audio"
	DomainTemplate  ContentDomain = "template"
	DomainDashboard ContentDomain = "dashboard"
)

func (d ContentDomain) Valid() bool {
	switch d {
	case DomainAudio, DomainTemplate, DomainDashboard:
		return true
	}
	return false
}

// Tier is one rung of an entitlement ladder.
type Tier struct {
	ID                   string        `json:"id"`
	Level                int           `json:"level"`
	Name                 string        `json:"name"`
	RequiredMP           int64         `json:"required_mp"`
	RequiredAchievements []string      `json:"required_achievements,omitempty"`
	Features             []FeatureFlag `json:"features"`
}

func (t Tier) Has(flag FeatureFlag) bool {
	for _, f := range t.Features {
		if f == flag {
			return true
		}
	}
	return false
}

// TierCatalog is an ordered, validated ladder of tiers (ascending by level).
type TierCatalog struct {
	Domain ContentDomain
	tiers  []Tier
	byID   map[string]int
}

// NewTierCatalog sorts tiers by level and checks the ladder invariants:
// levels run 1..N, the base tier is ungated, RequiredMP never decreases and
// every tier keeps all features of the tier below it.
func NewTierCatalog(domain ContentDomain, tiers ...Tier) (*TierCatalog, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("tier catalog %q: no tiers", domain)
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	c := &TierCatalog{Domain: domain, tiers: sorted, byID: make(map[string]int, len(sorted))}
	for i, t := range sorted {
		if t.ID == "" {
			return nil, fmt.Errorf("tier catalog %q: tier at level %d has no id", domain, t.Level)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("tier catalog %q: duplicate tier id %q", domain, t.ID)
		}
		c.byID[t.ID] = i
		if t.Level != i+1 {
			return nil, fmt.Errorf("tier catalog %q: tier %q has level %d, want %d", domain, t.ID, t.Level, i+1)
		}
		for _, f := range t.Features {
			if !f.Valid() {
				return nil, fmt.Errorf("tier catalog %q: tier %q has unknown feature %q", domain, t.ID, f)
			}
		}
		if i == 0 {
			if t.RequiredMP != 0 || len(t.RequiredAchievements) > 0 {
				return nil, fmt.Errorf("tier catalog %q: base tier %q must be ungated", domain, t.ID)
			}
			continue
		}
		prev := sorted[i-1]
		if t.RequiredMP < prev.RequiredMP {
			return nil, fmt.Errorf("tier catalog %q: tier %q requires less MP than %q", domain, t.ID, prev.ID)
		}
		for _, f := range prev.Features {
			if !t.Has(f) {
				return nil, fmt.Errorf("tier catalog %q: tier %q drops feature %q of %q", domain, t.ID, f, prev.ID)
			}
		}
	}
	return c, nil
}

// MustTierCatalog is NewTierCatalog for static configuration.
func MustTierCatalog(domain ContentDomain, tiers ...Tier) *TierCatalog {
	c, err := NewTierCatalog(domain, tiers...)
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers returns a copy of the ladder, lowest level first.
func (c *TierCatalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

func (c *TierCatalog) Base() Tier { return c.tiers[0] }
func (c *TierCatalog) Max() Tier  { return c.tiers[len(c.tiers)-1] }

func (c *TierCatalog) Get(id string) (Tier, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Tier{}, false
	}
	return c.tiers[i], true
}

// Level returns the level of tierID, or 0 if the id is unknown.
func (c *TierCatalog) Level(id string) int {
	if t, ok := c.Get(id); ok {
		return t.Level
	}
	return 0
}

// Next returns the tier directly above t.
func (c *TierCatalog) Next(t Tier) (Tier, bool) {
	if t.Level >= len(c.tiers) {
		return Tier{}, false
	}
	return c.tiers[t.Level], true
}
