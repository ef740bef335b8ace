package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// ObjectStore receives JSON exports of published templates.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// TemplatePublisher turns a valid draft into a community template.
type TemplatePublisher struct {
	DB          *gorm.DB
	repo        *ProgressRepository
	tiers       *TierAccessEngine
	constraints *TemplateConstraintEngine
	tracker     *AchievementTracker
	exports     ObjectStore
	log         *logger.Logger
}

// NewTemplatePublisher wires the publisher; exports may be nil to skip uploads.
func NewTemplatePublisher(db *gorm.DB, repo *ProgressRepository, tiers *TierAccessEngine, constraints *TemplateConstraintEngine, tracker *AchievementTracker, exports ObjectStore, log *logger.Logger) *TemplatePublisher {
	return &TemplatePublisher{
		DB:          db,
		repo:        repo,
		tiers:       tiers,
		constraints: constraints,
		tracker:     tracker,
		exports:     exports,
		log:         log.With("service", "TemplatePublisher"),
	}
}

// AuthorTier derives the user's tier on the template ladder.
func (s *TemplatePublisher) AuthorTier(ctx context.Context, userID string) (models.Tier, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return models.Tier{}, err
	}
	return s.tiers.CurrentTier(p), nil
}

// Validate checks a draft against the author's current tier.
func (s *TemplatePublisher) Validate(ctx context.Context, userID string, draft models.TemplateDraft) (models.Tier, []Violation, error) {
	tier, err := s.AuthorTier(ctx, userID)
	if err != nil {
		return models.Tier{}, nil, err
	}
	return tier, s.constraints.ValidateDraft(draft, tier), nil
}

// Publish stores a draft that passes validation. Drafts scheduled in the future
// are stored as scheduled and released by PublishDue.
func (s *TemplatePublisher) Publish(ctx context.Context, userID string, draft models.TemplateDraft) (*models.PublishedTemplate, error) {
	tier, violations, err := s.Validate(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	draft = draft.Clone()
	draft.Tags = NormalizeTags(draft.Tags)
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}

	id := uuid.NewString()
	now := s.repo.Now()
	tpl := &models.PublishedTemplate{
		ID:         id,
		AuthorID:   userID,
		AuthorTier: tier.ID,
		Slug:       slug.Make(draft.Title) + "-" + id[:8],
		Title:      strings.TrimSpace(draft.Title),
		Category:   draft.Category,
		Difficulty: draft.Difficulty,
		StepCount:  len(draft.Steps),
		Tags:       strings.Join(draft.Tags, ","),
		Body:       body,
		Status:     models.PublishStatusPublished,
	}
	if draft.Schedule != nil && draft.Schedule.StartAt.After(now) {
		at := draft.Schedule.StartAt
		tpl.Status = models.PublishStatusScheduled
		tpl.PublishAt = &at
	} else {
		tpl.PublishedAt = &now
	}

	if err := s.DB.WithContext(ctx).Create(tpl).Error; err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	// Export only rows that exist, so a failed insert leaves no orphan object.
	if s.exports != nil {
		s.export(ctx, tpl, body)
	}
	s.log.Info("Template accepted", "template_id", id, "user_id", userID, "status", tpl.Status, "tier", tier.ID)

	if _, err := s.tracker.RecordActivity(ctx, userID, ActivityEvent{Kind: models.ActivityTemplateCreated, Amount: 1}); err != nil {
		s.log.Warn("Failed to record template activity", "user_id", userID, "error", err)
	}
	return tpl, nil
}

func (s *TemplatePublisher) export(ctx context.Context, tpl *models.PublishedTemplate, body []byte) {
	url, err := s.exports.Put(ctx, "templates/"+tpl.ID+".json", body, "application/json")
	if err != nil {
		s.log.Warn("Template export failed", "template_id", tpl.ID, "error", err)
		return
	}
	err = s.DB.WithContext(ctx).Model(tpl).Update("export_url", url).Error
	if err != nil {
		s.log.Warn("Failed to record export URL", "template_id", tpl.ID, "error", err)
		return
	}
	tpl.ExportURL = url
}

// PublishDue releases scheduled templates whose time has come.
func (s *TemplatePublisher) PublishDue(ctx context.Context) (int, error) {
	var due []models.PublishedTemplate
	now := s.repo.Now()
	err := s.DB.WithContext(ctx).
		Where("status = ? AND publish_at <= ?", models.PublishStatusScheduled, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for _, t := range due {
		t.Status = models.PublishStatusPublished
		t.PublishedAt = &now
		t.PublishAt = nil
		if err := s.DB.WithContext(ctx).Save(&t).Error; err != nil {
			s.log.Error("Failed to publish scheduled template", "template_id", t.ID, "error", err)
			continue
		}
		published++
		s.log.Info("Auto-published template", "template_id", t.ID, "slug", t.Slug)
	}
	return published, nil
}

// ListPublished returns the newest published templates.
func (s *TemplatePublisher) ListPublished(ctx context.Context, limit int) ([]models.PublishedTemplate, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var out []models.PublishedTemplate
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.PublishStatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
