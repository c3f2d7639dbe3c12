package model

import (
	"time"
)

// Transaction is one processed program transaction. Signature is globally
// unique; re-processing the same signature must never create a second row.
type Transaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Signature string    `json:"signature" gorm:"uniqueIndex;not null"`
	BlockTime time.Time `json:"block_time" gorm:"not null;index"`
	EventType string    `json:"event_type" gorm:"not null"`

	AuthorityID uint `json:"authority_id" gorm:"not null"`

	// Related entity ids filled in by the owning domain processor.
	ReleaseID   *uint `json:"release_id"`
	HubID       *uint `json:"hub_id"`
	PostID      *uint `json:"post_id"`
	ToAccountID *uint `json:"to_account_id"`
	ToHubID     *uint `json:"to_hub_id"`

	// Set when the type came from the positional fallback classifier,
	// so heuristically classified rows can be audited offline.
	Heuristic bool `json:"heuristic" gorm:"default:false"`

	Authority Account `json:"authority,omitempty" gorm:"foreignKey:AuthorityID"`
}

func (Transaction) TableName() string {
	return "transactions"
}
