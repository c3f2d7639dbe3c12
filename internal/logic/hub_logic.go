package logic

import (
	"errors"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HubLogic owns reads and writes for hubs and their membership edges.
type HubLogic struct {
	db *gorm.DB
}

func NewHubLogic(db *gorm.DB) *HubLogic {
	return &HubLogic{db: db}
}

// FindByPublicKey returns nil without error when the hub is unknown.
func (l *HubLogic) FindByPublicKey(publicKey string) (*model.Hub, error) {
	var hub model.Hub
	err := l.db.Where("public_key = ?", publicKey).First(&hub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find hub %s: %w", publicKey, err)
	}
	return &hub, nil
}

// FindByPublicKeyOrHandle serves the read API's flexible lookup.
func (l *HubLogic) FindByPublicKeyOrHandle(key string) (*model.Hub, error) {
	var hub model.Hub
	err := l.db.Where("public_key = ? OR handle = ?", key, key).First(&hub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find hub %s: %w", key, err)
	}
	return &hub, nil
}

// Create inserts the hub if its public key is unseen, otherwise returns
// the existing row unchanged.
func (l *HubLogic) Create(hub *model.Hub) (*model.Hub, error) {
	if hub.PublicKey == "" {
		return nil, errors.New("hub public key is empty")
	}

	var existing model.Hub
	err := l.db.Where(model.Hub{PublicKey: hub.PublicKey}).
		Attrs(*hub).
		FirstOrCreate(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("create hub %s: %w", hub.PublicKey, err)
	}
	return &existing, nil
}

// UpdateChainState refreshes the mirrored on-chain columns.
func (l *HubLogic) UpdateChainState(hubID uint, metadataURI string) error {
	if err := l.db.Model(&model.Hub{}).Where("id = ?", hubID).Update("metadata_uri", metadataURI).Error; err != nil {
		return fmt.Errorf("update hub %d chain state: %w", hubID, err)
	}
	return nil
}

// AddRelease relates a release to a hub. Re-adding an existing edge is a
// no-op; the derived content address is the edge's natural key.
func (l *HubLogic) AddRelease(edge *model.HubRelease) error {
	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
	if err != nil {
		return fmt.Errorf("add release %d to hub %d: %w", edge.ReleaseID, edge.HubID, err)
	}
	return nil
}

// AddCollaborator relates a wallet to a hub it can publish through.
func (l *HubLogic) AddCollaborator(edge *model.HubCollaborator) error {
	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
	if err != nil {
		return fmt.Errorf("add collaborator %d to hub %d: %w", edge.AccountID, edge.HubID, err)
	}
	return nil
}

// RemoveCollaborator unrelates a wallet from a hub.
func (l *HubLogic) RemoveCollaborator(hubID, accountID uint) error {
	err := l.db.Where("hub_id = ? AND account_id = ?", hubID, accountID).
		Delete(&model.HubCollaborator{}).Error
	if err != nil {
		return fmt.Errorf("remove collaborator %d from hub %d: %w", accountID, hubID, err)
	}
	return nil
}

// AddPost relates a post to the hub it was published through.
func (l *HubLogic) AddPost(edge *model.HubPost) error {
	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
	if err != nil {
		return fmt.Errorf("add post %d to hub %d: %w", edge.PostID, edge.HubID, err)
	}
	return nil
}

// SetContentVisibility patches the visibility flag on the hub-content edge
// with the given derived address. Returns false when no edge matches.
func (l *HubLogic) SetContentVisibility(contentAddress string, visible bool) (bool, error) {
	res := l.db.Model(&model.HubRelease{}).
		Where("public_key = ?", contentAddress).
		Update("visible", visible)
	if res.Error != nil {
		return false, fmt.Errorf("toggle release visibility %s: %w", contentAddress, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	res = l.db.Model(&model.HubPost{}).
		Where("public_key = ?", contentAddress).
		Update("visible", visible)
	if res.Error != nil {
		return false, fmt.Errorf("toggle post visibility %s: %w", contentAddress, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetHubs returns one page of hubs, newest first, with the total.
func (l *HubLogic) GetHubs(page, pageSize int) ([]model.Hub, int64, error) {
	var hubs []model.Hub
	var total int64

	if err := l.db.Model(&model.Hub{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count hubs: %w", err)
	}

	offset := (page - 1) * pageSize
	err := l.db.Preload("Authority").
		Order("hub_datetime DESC").Offset(offset).Limit(pageSize).
		Find(&hubs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list hubs: %w", err)
	}
	return hubs, total, nil
}

// Hubs pages through hubs in insertion order (verification sync).
func (l *HubLogic) Hubs(offset, limit int) ([]model.Hub, error) {
	var hubs []model.Hub
	if err := l.db.Order("id ASC").Offset(offset).Limit(limit).Find(&hubs).Error; err != nil {
		return nil, fmt.Errorf("page hubs: %w", err)
	}
	return hubs, nil
}
