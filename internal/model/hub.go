package model

import (
	"time"
)

// Hub is a curated collection owned by an authority account.
type Hub struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	Handle    string `json:"handle" gorm:"uniqueIndex;not null"`

	MetadataURI string `json:"metadata_uri"`
	Metadata    string `json:"metadata" gorm:"type:text"`

	HubDatetime time.Time `json:"hub_datetime"`

	AuthorityID uint `json:"authority_id" gorm:"not null"`

	Authority Account `json:"authority,omitempty" gorm:"foreignKey:AuthorityID"`
}

func (Hub) TableName() string {
	return "hubs"
}

// HubRelease is the hub-to-release membership edge. PublicKey is the
// derived hub-content address, the edge's natural key on chain.
type HubRelease struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	HubID     uint   `json:"hub_id" gorm:"not null;uniqueIndex:idx_hub_release"`
	ReleaseID uint   `json:"release_id" gorm:"not null;uniqueIndex:idx_hub_release"`
	Visible   bool   `json:"visible" gorm:"default:true"`

	Hub     Hub     `json:"hub,omitempty" gorm:"foreignKey:HubID"`
	Release Release `json:"release,omitempty" gorm:"foreignKey:ReleaseID"`
}

func (HubRelease) TableName() string {
	return "hubs_releases"
}

// HubCollaborator relates a wallet allowed to add content to a hub.
type HubCollaborator struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	HubID     uint   `json:"hub_id" gorm:"not null;uniqueIndex:idx_hub_collaborator"`
	AccountID uint   `json:"account_id" gorm:"not null;uniqueIndex:idx_hub_collaborator"`

	Hub     Hub     `json:"hub,omitempty" gorm:"foreignKey:HubID"`
	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}

func (HubCollaborator) TableName() string {
	return "hubs_collaborators"
}

// HubPost is the hub-to-post edge, keyed by the derived hub-content address.
type HubPost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	HubID     uint   `json:"hub_id" gorm:"not null;uniqueIndex:idx_hub_post"`
	PostID    uint   `json:"post_id" gorm:"not null;uniqueIndex:idx_hub_post"`
	Visible   bool   `json:"visible" gorm:"default:true"`

	Hub  Hub  `json:"hub,omitempty" gorm:"foreignKey:HubID"`
	Post Post `json:"post,omitempty" gorm:"foreignKey:PostID"`
}

func (HubPost) TableName() string {
	return "hubs_posts"
}
