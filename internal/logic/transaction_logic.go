package logic

import (
	"errors"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionLogic owns the transactions table, the pipeline's source of
// truth for ingestion progress.
type TransactionLogic struct {
	db *gorm.DB
}

func NewTransactionLogic(db *gorm.DB) *TransactionLogic {
	return &TransactionLogic{db: db}
}

// Insert writes the transaction row, ignoring the write when a row with
// the same signature already exists. Returns whether a row was inserted.
func (l *TransactionLogic) Insert(tx *model.Transaction) (bool, error) {
	if tx.Signature == "" {
		return false, errors.New("transaction signature is empty")
	}

	res := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(tx)
	if res.Error != nil {
		return false, fmt.Errorf("insert transaction %s: %w", tx.Signature, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Latest returns the most recently observed transaction, or nil when the
// table is empty. The cursor is derived from this row.
func (l *TransactionLogic) Latest() (*model.Transaction, error) {
	var tx model.Transaction
	err := l.db.Order("block_time DESC, id DESC").First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest transaction: %w", err)
	}
	return &tx, nil
}

// ExistingSignatures reports which of the given signatures are already
// persisted.
func (l *TransactionLogic) ExistingSignatures(signatures []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(signatures) == 0 {
		return existing, nil
	}

	var found []string
	err := l.db.Model(&model.Transaction{}).
		Where("signature IN ?", signatures).
		Pluck("signature", &found).Error
	if err != nil {
		return nil, fmt.Errorf("check existing signatures: %w", err)
	}

	for _, sig := range found {
		existing[sig] = true
	}
	return existing, nil
}

// GetTransactions returns one page of the activity feed, newest first.
func (l *TransactionLogic) GetTransactions(page, pageSize int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	if err := l.db.Model(&model.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	err := l.db.Preload("Authority").
		Order("block_time DESC, id DESC").Offset(offset).Limit(pageSize).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}
