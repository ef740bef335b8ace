package models

import "math"

// Audio ladder: free → bronze → silver → gold → platinum
var AudioTiers = []Tier{
	{ID: "free", Level: 1, Name: "Free", Features: []FeatureFlag{FeatureAudioLibrary}},
	{ID: "bronze", Level: 2, Name: "Bronze", RequiredMP: 500,
		Features: []FeatureFlag{FeatureAudioLibrary, FeaturePremiumAudio}},
	{ID: "silver", Level: 3, Name: "Silver", RequiredMP: 1500,
		Features: []FeatureFlag{FeatureAudioLibrary, FeaturePremiumAudio, FeatureOfflineAudio}},
	{ID: "gold", Level: 4, Name: "Gold", RequiredMP: 4000,
		Features: []FeatureFlag{FeatureAudioLibrary, FeaturePremiumAudio, FeatureOfflineAudio, FeatureProgressInsights}},
	{ID: "platinum", Level: 5, Name: "Platinum", RequiredMP: 10000, RequiredAchievements: []string{"month_streak"},
		Features: []FeatureFlag{FeatureAudioLibrary, FeaturePremiumAudio, FeatureOfflineAudio, FeatureProgressInsights, FeatureMPPricingDiscount}},
}

// Template ladder: free → bronze → premium → platinum
var TemplateTiers = []Tier{
	{ID: "free", Level: 1, Name: "Free", Features: []FeatureFlag{FeatureTemplateLibrary}},
	{ID: "bronze", Level: 2, Name: "Bronze", RequiredMP: 1000,
		Features: []FeatureFlag{FeatureTemplateLibrary, FeatureTemplateCreate}},
	{ID: "premium", Level: 3, Name: "Premium", RequiredMP: 3000, RequiredAchievements: []string{"first_template"},
		Features: []FeatureFlag{FeatureTemplateLibrary, FeatureTemplateCreate, FeatureTemplateSchedule}},
	{ID: "platinum", Level: 4, Name: "Platinum", RequiredMP: 8000, RequiredAchievements: []string{"first_template", "template_architect"},
		Features: []FeatureFlag{FeatureTemplateLibrary, FeatureTemplateCreate, FeatureTemplateSchedule, FeatureAISuggestions}},
}

// Dashboard narrative ladder: Foundation → Explorer → Architect → Master
var DashboardTiers = []Tier{
	{ID: "foundation", Level: 1, Name: "Foundation"},
	{ID: "explorer", Level: 2, Name: "Explorer", RequiredMP: 1000,
		Features: []FeatureFlag{FeatureProgressInsights}},
	{ID: "architect", Level: 3, Name: "Architect", RequiredMP: 5000,
		Features: []FeatureFlag{FeatureProgressInsights, FeaturePremiumWidgets}},
	{ID: "master", Level: 4, Name: "Master", RequiredMP: 15000, RequiredAchievements: []string{"month_streak", "template_architect"},
		Features: []FeatureFlag{FeatureProgressInsights, FeaturePremiumWidgets, FeatureMPPricingDiscount}},
}

// UnlimitedSteps stands in for "no limit" so step comparisons stay integer arithmetic.
const UnlimitedSteps = math.MaxInt32

// TemplateStepLimits maps template tier id → max steps per template.
var TemplateStepLimits = map[string]int{
	"free":     0,
	"bronze":   5,
	"premium":  15,
	"platinum": UnlimitedSteps,
}

// DefaultTierCatalogs builds one catalog per content domain. The ladders are
// independent entitlement tracks and are never merged.
func DefaultTierCatalogs() map[ContentDomain]*TierCatalog {
	return map[ContentDomain]*TierCatalog{
		DomainAudio:     MustTierCatalog(DomainAudio, AudioTiers...),
		DomainTemplate:  MustTierCatalog(DomainTemplate, TemplateTiers...),
		DomainDashboard: MustTierCatalog(DomainDashboard, DashboardTiers...),
	}
}
