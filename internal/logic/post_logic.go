package logic

import (
	"errors"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostLogic owns reads and writes for posts and their release references.
type PostLogic struct {
	db *gorm.DB
}

func NewPostLogic(db *gorm.DB) *PostLogic {
	return &PostLogic{db: db}
}

// FindByPublicKey returns nil without error when the post is unknown.
func (l *PostLogic) FindByPublicKey(publicKey string) (*model.Post, error) {
	var post model.Post
	err := l.db.Where("public_key = ?", publicKey).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find post %s: %w", publicKey, err)
	}
	return &post, nil
}

// Create inserts the post if its public key is unseen, otherwise returns
// the existing row unchanged.
func (l *PostLogic) Create(post *model.Post) (*model.Post, error) {
	if post.PublicKey == "" {
		return nil, errors.New("post public key is empty")
	}

	var existing model.Post
	err := l.db.Where(model.Post{PublicKey: post.PublicKey}).
		Attrs(*post).
		FirstOrCreate(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("create post %s: %w", post.PublicKey, err)
	}
	return &existing, nil
}

// AddReleaseReference relates a post to a release mentioned in its body.
func (l *PostLogic) AddReleaseReference(postID, releaseID uint) error {
	edge := model.PostRelease{PostID: postID, ReleaseID: releaseID}
	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	if err != nil {
		return fmt.Errorf("add release %d reference to post %d: %w", releaseID, postID, err)
	}
	return nil
}

// GetPosts returns one page of posts, newest first, with the total.
func (l *PostLogic) GetPosts(page, pageSize int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	if err := l.db.Model(&model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	offset := (page - 1) * pageSize
	err := l.db.Preload("Authority").
		Order("post_datetime DESC").Offset(offset).Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}
