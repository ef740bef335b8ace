package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness-entitlements/models"
)

// ContentCatalog reads gated content items from the content_items table.
type ContentCatalog struct {
	DB *gorm.DB
}

func NewContentCatalog(db *gorm.DB) *ContentCatalog {
	return &ContentCatalog{DB: db}
}

// Seed inserts items that don't exist yet; existing rows are left as edited.
func (c *ContentCatalog) Seed(ctx context.Context, items []models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	return c.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&items).Error
}

func (c *ContentCatalog) Get(ctx context.Context, id string) (models.ContentItem, error) {
	var item models.ContentItem
	err := c.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: %s", ErrUnknownContent, id)
	}
	return item, err
}

func (c *ContentCatalog) List(ctx context.Context, domain models.ContentDomain) ([]models.ContentItem, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	var items []models.ContentItem
	err := c.DB.WithContext(ctx).
		Where("domain = ?", domain).
		Order("required_mp ASC, id ASC").
		Find(&items).Error
	return items, err
}

// ContentView annotates an item with the caller's access state.
type ContentView struct {
	models.ContentItem
	Accessible bool `json:"accessible"`
	Owned      bool `json:"owned"`
	Affordable bool `json:"affordable"`
}

// Annotate decorates items for one user's progress.
func (f *ContentAccessFilter) Annotate(p *models.UserProgress, items []models.ContentItem) []ContentView {
	out := make([]ContentView, 0, len(items))
	for _, item := range items {
		out = append(out, ContentView{
			ContentItem: item,
			Accessible:  f.IsAccessible(p, item),
			Owned:       f.IsOwned(p, item.ID),
			Affordable:  p.CurrentMP >= item.RequiredMP,
		})
	}
	return out
}
