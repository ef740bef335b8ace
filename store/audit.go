package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness-entitlements/models"
)

// GormAuditLog appends ledger entries to mp_ledger_entries.
type GormAuditLog struct {
	DB *gorm.DB
}

func NewGormAuditLog(db *gorm.DB) *GormAuditLog {
	return &GormAuditLog{DB: db}
}

// Append is idempotent on entry id so a retried batch never duplicates rows.
func (a *GormAuditLog) Append(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return a.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&entries).Error
}

// Recent returns a user's entries, newest first.
func (a *GormAuditLog) Recent(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var out []models.LedgerEntry
	err := a.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
