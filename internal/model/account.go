package model

import (
	"time"
)

// Account is any wallet observed by the pipeline. The on-chain address is
// the natural key; the surrogate id is assigned on first sight.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
}

func (Account) TableName() string {
	return "accounts"
}
