package repository

import (
	"fmt"
	"time"

	"github.com/camden-git/aliasbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AliasRepository handles database operations for scanned memos and the
// alias records derived from them
type AliasRepository struct {
	DB *gorm.DB
}

// NewAliasRepository creates a new instance of AliasRepository
func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{DB: db}
}

// SaveEntries inserts entries, skipping any whose hash is already stored.
// Returns the number of rows actually inserted
func (r *AliasRepository) SaveEntries(entries []models.MemoEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().Unix()
	for i := range entries {
		if entries[i].CreatedAt == 0 {
			entries[i].CreatedAt = now
		}
	}

	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).CreateInBatches(entries, 100)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to save %d memo entries: %w", len(entries), result.Error)
	}
	return result.RowsAffected, nil
}

// ListEntries retrieves every entry for account in chain order
func (r *AliasRepository) ListEntries(account string) ([]models.MemoEntry, error) {
	var entries []models.MemoEntry
	err := r.DB.Where("account = ?", account).Order("height ASC, tx_index ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memo entries for %s: %w", account, err)
	}
	return entries, nil
}

// ReplaceRecords swaps the whole alias table for records in one transaction
func (r *AliasRepository) ReplaceRecords(records []models.AliasRecord) error {
	now := time.Now().Unix()
	for i := range records {
		records[i].UpdatedAt = now
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.AliasRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear alias records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("failed to insert %d alias records: %w", len(records), err)
		}
		return nil
	})
}

// ListRecords retrieves all alias records ordered by height
func (r *AliasRepository) ListRecords() ([]models.AliasRecord, error) {
	var records []models.AliasRecord
	err := r.DB.Order("height ASC, tx_index ASC, alias ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alias records: %w", err)
	}
	return records, nil
}

// GetRecord retrieves the record for alias. Returns gorm.ErrRecordNotFound
// when the alias is not bound
func (r *AliasRepository) GetRecord(alias string) (*models.AliasRecord, error) {
	var record models.AliasRecord
	err := r.DB.Where("alias = ?", alias).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
