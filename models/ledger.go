package models

import "time"

type LedgerKind string

const (
	LedgerEarn  LedgerKind = "earn"
	LedgerSpend LedgerKind = "spend"
)

// LedgerEntry is one MP movement. It is embedded in the progress snapshot
// (recent-activity feed) and appended to the mp_ledger_entries audit table.
type LedgerEntry struct {
	ID            string     `gorm:"primaryKey;type:varchar(27)" json:"id"` // KSUID, sorts by time
	UserID        string     `gorm:"index;not null" json:"user_id"`
	Kind          LedgerKind `gorm:"type:varchar(8);not null" json:"kind"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Reason        string     `gorm:"not null" json:"reason"` // e.g. "achievement:first_session", "unlock:<item>"
	BalanceAfter  int64      `json:"balance_after"`
	LifetimeAfter int64      `json:"lifetime_after"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "mp_ledger_entries" }
