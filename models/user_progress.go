package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxActivityEntries caps the recent-activity feed kept inside a progress snapshot.
const MaxActivityEntries = 50

// UserProgress is the mutable per-user state the engine derives every decision from.
// It deliberately has no tier field: the tier is always recomputed from MP and
// completed achievements.
type UserProgress struct {
	UserID string `json:"user_id"`

	AchievementProgress map[string]float64   `json:"achievement_progress"`
	Completed           map[string]time.Time `json:"completed_achievements"`

	CurrentMP  int64 `json:"current_mp"`
	LifetimeMP int64 `json:"lifetime_mp"`

	// Unlocked content, keyed by content item id
	Unlocked map[string]UnlockRecord `json:"unlocked"`

	// Newest first, capped at MaxActivityEntries
	Activity []LedgerEntry `json:"activity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnlockRecord is the receipt kept for a one-time content acquisition.
type UnlockRecord struct {
	ReceiptID  string    `json:"receipt_id"`
	MPSpent    int64     `json:"mp_spent"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// NewUserProgress returns the state of a brand new user: base tier, zero MP.
func NewUserProgress(userID string, now time.Time) *UserProgress {
	return &UserProgress{
		UserID:              userID,
		AchievementProgress: map[string]float64{},
		Completed:           map[string]time.Time{},
		Unlocked:            map[string]UnlockRecord{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func (p *UserProgress) HasCompleted(achievementID string) bool {
	_, ok := p.Completed[achievementID]
	return ok
}

// Normalize fills nil maps left by older or hand-edited snapshots.
func (p *UserProgress) Normalize() {
	if p.AchievementProgress == nil {
		p.AchievementProgress = map[string]float64{}
	}
	if p.Completed == nil {
		p.Completed = map[string]time.Time{}
	}
	if p.Unlocked == nil {
		p.Unlocked = map[string]UnlockRecord{}
	}
}

// Clone deep-copies p so a mutation can be staged and discarded on failure.
func (p *UserProgress) Clone() *UserProgress {
	c := *p
	c.AchievementProgress = make(map[string]float64, len(p.AchievementProgress))
	for k, v := range p.AchievementProgress {
		c.AchievementProgress[k] = v
	}
	c.Completed = make(map[string]time.Time, len(p.Completed))
	for k, v := range p.Completed {
		c.Completed[k] = v
	}
	c.Unlocked = make(map[string]UnlockRecord, len(p.Unlocked))
	for k, v := range p.Unlocked {
		c.Unlocked[k] = v
	}
	c.Activity = append([]LedgerEntry(nil), p.Activity...)
	return &c
}

// PushActivity prepends e to the feed and trims it to MaxActivityEntries.
func (p *UserProgress) PushActivity(e LedgerEntry) {
	p.Activity = append([]LedgerEntry{e}, p.Activity...)
	if len(p.Activity) > MaxActivityEntries {
		p.Activity = p.Activity[:MaxActivityEntries]
	}
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
