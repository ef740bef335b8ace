package models

import "time"

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type Recurrence string

const (
	RecurrenceOnce   Recurrence = "once"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Step is a single instruction in a template.
type Step struct {
	Title           string `json:"title"`
	Instruction     string `json:"instruction,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	AISuggestion    string `json:"ai_suggestion,omitempty"`
}

type ScheduleConfig struct {
	StartAt    time.Time  `json:"start_at"`
	Recurrence Recurrence `json:"recurrence"`
}

// TemplateDraft is authored content under construction.
type TemplateDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Difficulty  Difficulty      `json:"difficulty"`
	Steps       []Step          `json:"steps"`
	Schedule    *ScheduleConfig `json:"schedule,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// Clone copies the draft so helpers never mutate the caller's value.
func (d TemplateDraft) Clone() TemplateDraft {
	c := d
	c.Steps = append([]Step(nil), d.Steps...)
	c.Tags = append([]string(nil), d.Tags...)
	if d.Schedule != nil {
		s := *d.Schedule
		c.Schedule = &s
	}
	return c
}

type PublishStatus string

const (
	PublishStatusScheduled PublishStatus = "scheduled"
	PublishStatusPublished PublishStatus = "published"
)

// PublishedTemplate is a validated draft accepted for the community library.
type PublishedTemplate struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID    string        `gorm:"index;not null" json:"author_id"`
	AuthorTier  string        `gorm:"type:varchar(32);not null" json:"author_tier"`
	Slug        string        `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string        `gorm:"not null" json:"title"`
	Category    string        `json:"category"`
	Difficulty  Difficulty    `gorm:"type:varchar(16)" json:"difficulty"`
	StepCount   int           `json:"step_count"`
	Tags        string        `json:"tags"` // comma separated, case-folded
	Body        []byte        `json:"-"`    // JSON export of the draft
	ExportURL   string        `gorm:"type:text" json:"export_url,omitempty"`
	Status      PublishStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	PublishAt   *time.Time    `gorm:"index" json:"publish_at,omitempty"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`

	Timestamps
}
