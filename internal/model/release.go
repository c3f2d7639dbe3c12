package model

import (
	"time"
)

// Release is one published piece of content (an on-chain release account).
type Release struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	Mint      string `json:"mint" gorm:"not null"`

	// On-chain state mirrored for reads; refreshed by the verification sync.
	MetadataURI     string `json:"metadata_uri"`
	Metadata        string `json:"metadata" gorm:"type:text"`
	TotalSupply     uint64 `json:"total_supply"`
	RemainingSupply uint64 `json:"remaining_supply"`
	Price           uint64 `json:"price"`

	ReleaseDatetime time.Time `json:"release_datetime"`

	AuthorityID uint `json:"authority_id" gorm:"not null"`
	// Set once a hub event proves the release was published through a hub.
	HubID *uint `json:"hub_id"`

	Authority Account `json:"authority,omitempty" gorm:"foreignKey:AuthorityID"`
}

func (Release) TableName() string {
	return "releases"
}

// ReleaseCollected relates a collector wallet to a release it holds.
type ReleaseCollected struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountID uint `json:"account_id" gorm:"not null;uniqueIndex:idx_release_collected"`
	ReleaseID uint `json:"release_id" gorm:"not null;uniqueIndex:idx_release_collected"`

	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	Release Release `json:"release,omitempty" gorm:"foreignKey:ReleaseID"`
}

func (ReleaseCollected) TableName() string {
	return "releases_collected"
}
