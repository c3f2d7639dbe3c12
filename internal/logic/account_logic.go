package logic

import (
	"errors"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
)

// AccountLogic owns reads and writes for wallet accounts.
type AccountLogic struct {
	db *gorm.DB
}

func NewAccountLogic(db *gorm.DB) *AccountLogic {
	return &AccountLogic{db: db}
}

// FindOrCreate returns the account for publicKey, creating it on first
// sight. The unique index on public_key keeps concurrent creators safe.
func (l *AccountLogic) FindOrCreate(publicKey string) (*model.Account, error) {
	if publicKey == "" {
		return nil, errors.New("account public key is empty")
	}

	var account model.Account
	err := l.db.Where(model.Account{PublicKey: publicKey}).FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("find or create account %s: %w", publicKey, err)
	}
	return &account, nil
}

// FindByPublicKey returns nil without error when the account is unknown.
func (l *AccountLogic) FindByPublicKey(publicKey string) (*model.Account, error) {
	var account model.Account
	err := l.db.Where("public_key = ?", publicKey).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account %s: %w", publicKey, err)
	}
	return &account, nil
}
