package logic

import (
	"errors"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReleaseLogic owns reads and writes for releases and collector edges.
type ReleaseLogic struct {
	db *gorm.DB
}

func NewReleaseLogic(db *gorm.DB) *ReleaseLogic {
	return &ReleaseLogic{db: db}
}

// FindByPublicKey returns nil without error when the release is unknown.
func (l *ReleaseLogic) FindByPublicKey(publicKey string) (*model.Release, error) {
	var release model.Release
	err := l.db.Where("public_key = ?", publicKey).First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find release %s: %w", publicKey, err)
	}
	return &release, nil
}

// Create inserts the release if its public key is unseen, otherwise
// returns the existing row unchanged.
func (l *ReleaseLogic) Create(release *model.Release) (*model.Release, error) {
	if release.PublicKey == "" {
		return nil, errors.New("release public key is empty")
	}

	var existing model.Release
	err := l.db.Where(model.Release{PublicKey: release.PublicKey}).
		Attrs(*release).
		FirstOrCreate(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("create release %s: %w", release.PublicKey, err)
	}
	return &existing, nil
}

// SetHub patches the hub back-reference once, the first time an event
// proves the release was published through a hub.
func (l *ReleaseLogic) SetHub(releaseID, hubID uint) error {
	err := l.db.Model(&model.Release{}).
		Where("id = ? AND hub_id IS NULL", releaseID).
		Update("hub_id", hubID).Error
	if err != nil {
		return fmt.Errorf("set hub on release %d: %w", releaseID, err)
	}
	return nil
}

// UpdateChainState refreshes the mirrored on-chain columns.
func (l *ReleaseLogic) UpdateChainState(releaseID uint, metadataURI string, totalSupply, remainingSupply, price uint64) error {
	updates := map[string]interface{}{
		"metadata_uri":     metadataURI,
		"total_supply":     totalSupply,
		"remaining_supply": remainingSupply,
		"price":            price,
	}
	if err := l.db.Model(&model.Release{}).Where("id = ?", releaseID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update release %d chain state: %w", releaseID, err)
	}
	return nil
}

// UpdateMetadata stores a freshly fetched metadata document.
func (l *ReleaseLogic) UpdateMetadata(releaseID uint, metadata string) error {
	if err := l.db.Model(&model.Release{}).Where("id = ?", releaseID).Update("metadata", metadata).Error; err != nil {
		return fmt.Errorf("update release %d metadata: %w", releaseID, err)
	}
	return nil
}

// AddCollector relates a wallet to a release it collected. Re-adding an
// existing edge is a no-op.
func (l *ReleaseLogic) AddCollector(accountID, releaseID uint) error {
	edge := model.ReleaseCollected{AccountID: accountID, ReleaseID: releaseID}
	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	if err != nil {
		return fmt.Errorf("add collector %d for release %d: %w", accountID, releaseID, err)
	}
	return nil
}

// RemoveCollector drops a stale collector edge (used by the collector sync
// when the wallet no longer holds the release).
func (l *ReleaseLogic) RemoveCollector(accountID, releaseID uint) error {
	err := l.db.Where("account_id = ? AND release_id = ?", accountID, releaseID).
		Delete(&model.ReleaseCollected{}).Error
	if err != nil {
		return fmt.Errorf("remove collector %d for release %d: %w", accountID, releaseID, err)
	}
	return nil
}

// CollectedEdges pages through collector edges with their accounts and
// releases preloaded.
func (l *ReleaseLogic) CollectedEdges(offset, limit int) ([]model.ReleaseCollected, error) {
	var edges []model.ReleaseCollected
	err := l.db.Preload("Account").Preload("Release").
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("list collected edges: %w", err)
	}
	return edges, nil
}

// GetReleases returns one page of releases, newest first, with the total.
func (l *ReleaseLogic) GetReleases(page, pageSize int) ([]model.Release, int64, error) {
	var releases []model.Release
	var total int64

	if err := l.db.Model(&model.Release{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count releases: %w", err)
	}

	offset := (page - 1) * pageSize
	err := l.db.Preload("Authority").
		Order("release_datetime DESC").Offset(offset).Limit(pageSize).
		Find(&releases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list releases: %w", err)
	}
	return releases, total, nil
}

// Releases pages through releases in insertion order (verification sync).
func (l *ReleaseLogic) Releases(offset, limit int) ([]model.Release, error) {
	var releases []model.Release
	if err := l.db.Order("id ASC").Offset(offset).Limit(limit).Find(&releases).Error; err != nil {
		return nil, fmt.Errorf("page releases: %w", err)
	}
	return releases, nil
}
