package model

import (
	"time"
)

// Post is a rich-content entry published through a hub.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicKey string `json:"public_key" gorm:"uniqueIndex;not null"`
	Slug      string `json:"slug" gorm:"index"`

	MetadataURI string `json:"metadata_uri"`
	Metadata    string `json:"metadata" gorm:"type:text"`

	PostDatetime time.Time `json:"post_datetime"`

	AuthorityID uint `json:"authority_id" gorm:"not null"`

	Authority Account `json:"authority,omitempty" gorm:"foreignKey:AuthorityID"`
}

func (Post) TableName() string {
	return "posts"
}

// PostRelease relates a post to a release referenced from its body.
type PostRelease struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PostID    uint `json:"post_id" gorm:"not null;uniqueIndex:idx_post_release"`
	ReleaseID uint `json:"release_id" gorm:"not null;uniqueIndex:idx_post_release"`

	Post    Post    `json:"post,omitempty" gorm:"foreignKey:PostID"`
	Release Release `json:"release,omitempty" gorm:"foreignKey:ReleaseID"`
}

func (PostRelease) TableName() string {
	return "posts_releases"
}
