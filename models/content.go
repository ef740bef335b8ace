package models

// ContentItem is the unified gating shape for audio tracks, templates and
// premium dashboard widgets.
type ContentItem struct {
	ID              string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Domain          ContentDomain `gorm:"type:varchar(16);index;not null" json:"domain"`
	Title           string        `gorm:"not null" json:"title"`
	Category        string        `gorm:"type:varchar(32)" json:"category"`
	RequiredTier    string        `gorm:"type:varchar(32);not null" json:"required_tier"`
	RequiredMP      int64         `gorm:"default:0" json:"required_mp"` // 0 if free
	DurationSeconds int           `json:"duration_seconds,omitempty"`
	AssetURL        string        `gorm:"type:text" json:"asset_url,omitempty"`

	Timestamps
}

func (i ContentItem) Priced() bool { return i.RequiredMP > 0 }

// DefaultContent seeds the content catalog on first start.
var DefaultContent = []ContentItem{
	{ID: "audio-morning-breath", Domain: DomainAudio, Title: "Morning Breath", Category: "breathing", RequiredTier: "free", DurationSeconds: 300},
	{ID: "audio-body-scan", Domain: DomainAudio, Title: "Body Scan", Category: "relaxation", RequiredTier: "free", DurationSeconds: 900},
	{ID: "audio-ocean-drift", Domain: DomainAudio, Title: "Ocean Drift", Category: "sleep", RequiredTier: "bronze", DurationSeconds: 1800},
	{ID: "audio-forest-rain", Domain: DomainAudio, Title: "Forest Rain", Category: "soundscape", RequiredTier: "silver", RequiredMP: 200, DurationSeconds: 2400},
	{ID: "audio-tibetan-bowls", Domain: DomainAudio, Title: "Tibetan Bowls", Category: "soundscape", RequiredTier: "gold", RequiredMP: 500, DurationSeconds: 3600},
	{ID: "audio-binaural-focus", Domain: DomainAudio, Title: "Binaural Focus", Category: "focus", RequiredTier: "platinum", RequiredMP: 1000, DurationSeconds: 2700},
	{ID: "template-starter-calm", Domain: DomainTemplate, Title: "Starter Calm Routine", Category: "routine", RequiredTier: "free"},
	{ID: "template-evening-wind-down", Domain: DomainTemplate, Title: "Evening Wind-Down", Category: "sleep", RequiredTier: "bronze", RequiredMP: 150},
	{ID: "template-deep-work", Domain: DomainTemplate, Title: "Deep Work Protocol", Category: "focus", RequiredTier: "premium", RequiredMP: 400},
	{ID: "widget-streak-heatmap", Domain: DomainDashboard, Title: "Streak Heatmap", Category: "insights", RequiredTier: "explorer"},
	{ID: "widget-mastery-radar", Domain: DomainDashboard, Title: "Mastery Radar", Category: "insights", RequiredTier: "architect", RequiredMP: 300},
}
