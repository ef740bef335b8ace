package models

import "fmt"

// ActivityKind identifies a raw activity event emitted by the UI shell.
type ActivityKind string

const (
	ActivitySessionCompleted   ActivityKind = "session_completed"
	ActivityMinutesMeditated   ActivityKind = "minutes_meditated"
	ActivityStreakDay          ActivityKind = "streak_day"
	ActivityAudioPlayed        ActivityKind = "audio_played"
	ActivityTemplateCreated    ActivityKind = "template_created"
	ActivityTemplateDownloaded ActivityKind = "template_downloaded"
	ActivityReferralJoined     ActivityKind = "referral_joined"
)

type AchievementCategory string

const (
	CategoryMindfulness AchievementCategory = "mindfulness"
	CategoryConsistency AchievementCategory = "consistency"
	CategoryCreation    AchievementCategory = "creation"
	CategoryExploration AchievementCategory = "exploration"
	CategoryCommunity   AchievementCategory = "community"
)

// Achievement: static config, never mutated after load.
// A TargetProgress of 0 marks a binary achievement, completed by a single event.
// Requires lists achievements that must be complete before this one advances.
type Achievement struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Category       AchievementCategory `json:"category"`
	TargetProgress float64             `json:"target_progress"`
	MPReward       int64               `json:"mp_reward"`
	Trigger        ActivityKind        `json:"trigger"`
	Requires       []string            `json:"requires,omitempty"`
}

func (a Achievement) Binary() bool { return a.TargetProgress == 0 }

// AchievementCatalog keeps definitions in declaration order; prerequisites
// always precede the achievements that depend on them.
type AchievementCatalog struct {
	list []Achievement
	byID map[string]int
}

func NewAchievementCatalog(achievements ...Achievement) (*AchievementCatalog, error) {
	c := &AchievementCatalog{byID: make(map[string]int, len(achievements))}
	for i, a := range achievements {
		if a.ID == "" {
			return nil, fmt.Errorf("achievement at index %d has no id", i)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		if a.TargetProgress < 0 {
			return nil, fmt.Errorf("achievement %q: negative target", a.ID)
		}
		if a.MPReward <= 0 {
			return nil, fmt.Errorf("achievement %q: reward must be positive", a.ID)
		}
		for _, req := range a.Requires {
			if _, ok := c.byID[req]; !ok {
				return nil, fmt.Errorf("achievement %q: prerequisite %q must be declared before it", a.ID, req)
			}
		}
		c.byID[a.ID] = i
		c.list = append(c.list, a)
	}
	return c, nil
}

func MustAchievementCatalog(achievements ...Achievement) *AchievementCatalog {
	c, err := NewAchievementCatalog(achievements...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *AchievementCatalog) Get(id string) (Achievement, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Achievement{}, false
	}
	return c.list[i], true
}

func (c *AchievementCatalog) All() []Achievement {
	out := make([]Achievement, len(c.list))
	copy(out, c.list)
	return out
}

// Triggered returns achievements advanced by kind, in declaration order.
func (c *AchievementCatalog) Triggered(kind ActivityKind) []Achievement {
	var out []Achievement
	for _, a := range c.list {
		if a.Trigger == kind {
			out = append(out, a)
		}
	}
	return out
}

// Predefined achievements
var DefaultAchievements = []Achievement{
	{
		ID:          "first_session",
		Name:        "First Breath",
		Description: "Completed your first meditation session",
		Category:    CategoryMindfulness,
		MPReward:    100,
		Trigger:     ActivitySessionCompleted,
	},
	{
		ID:             "ten_sessions",
		Name:           "Settling In",
		Description:    "Completed 10 meditation sessions",
		Category:       CategoryMindfulness,
		TargetProgress: 10,
		MPReward:       500,
		Trigger:        ActivitySessionCompleted,
		Requires:       []string{"first_session"},
	},
	{
		ID:             "hundred_minutes",
		Name:           "Hundred Minutes",
		Description:    "Meditated for 100 minutes in total",
		Category:       CategoryMindfulness,
		TargetProgress: 100,
		MPReward:       300,
		Trigger:        ActivityMinutesMeditated,
	},
	{
		ID:             "thousand_minutes",
		Name:           "Deep Practice",
		Description:    "Meditated for 1000 minutes in total",
		Category:       CategoryMindfulness,
		TargetProgress: 1000,
		MPReward:       2000,
		Trigger:        ActivityMinutesMeditated,
		Requires:       []string{"hundred_minutes"},
	},
	{
		ID:             "week_streak",
		Name:           "Seven Days",
		Description:    "Practised seven days in a row",
		Category:       CategoryConsistency,
		TargetProgress: 7,
		MPReward:       700,
		Trigger:        ActivityStreakDay,
	},
	{
		ID:             "month_streak",
		Name:           "Unbroken",
		Description:    "Practised thirty days in a row",
		Category:       CategoryConsistency,
		TargetProgress: 30,
		MPReward:       3000,
		Trigger:        ActivityStreakDay,
		Requires:       []string{"week_streak"},
	},
	{
		ID:             "sound_explorer",
		Name:           "Sound Explorer",
		Description:    "Played 25 audio tracks",
		Category:       CategoryExploration,
		TargetProgress: 25,
		MPReward:       400,
		Trigger:        ActivityAudioPlayed,
	},
	{
		ID:          "first_template",
		Name:        "Architect's First Draft",
		Description: "Published your first template",
		Category:    CategoryCreation,
		MPReward:    250,
		Trigger:     ActivityTemplateCreated,
	},
	{
		ID:             "template_architect",
		Name:           "Template Architect",
		Description:    "Published 10 templates",
		Category:       CategoryCreation,
		TargetProgress: 10,
		MPReward:       1500,
		Trigger:        ActivityTemplateCreated,
		Requires:       []string{"first_template"},
	},
	{
		ID:             "curator",
		Name:           "Curator",
		Description:    "Downloaded 5 community templates",
		Category:       CategoryExploration,
		TargetProgress: 5,
		MPReward:       200,
		Trigger:        ActivityTemplateDownloaded,
	},
	{
		ID:             "ambassador",
		Name:           "Ambassador",
		Description:    "Invited 3 friends who joined",
		Category:       CategoryCommunity,
		TargetProgress: 3,
		MPReward:       1000,
		Trigger:        ActivityReferralJoined,
	},
}
