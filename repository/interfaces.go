package repository

import (
	"github.com/camden-git/aliasbackend/models"
)

// AliasRepositoryInterface defines the methods for alias index data operations
type AliasRepositoryInterface interface {
	SaveEntries(entries []models.MemoEntry) (int64, error)
	ListEntries(account string) ([]models.MemoEntry, error)
	ReplaceRecords(records []models.AliasRecord) error
	ListRecords() ([]models.AliasRecord, error)
	GetRecord(alias string) (*models.AliasRecord, error)
}
