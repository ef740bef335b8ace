package models

import "time"

// KVRecord backs the key-value persistence boundary when it is stored in SQL.
type KVRecord struct {
	Key       string    `gorm:"primaryKey;type:varchar(191)"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (KVRecord) TableName() string { return "kv_records" }
