package models

// AliasRecord is the current binding of an alias, derived from memo_entries.
// It corresponds to the 'alias_records' table and is rebuilt, never edited.
type AliasRecord struct {
	Alias     string `gorm:"primaryKey" json:"alias"`
	Height    int64  `gorm:"not null;index" json:"height"`
	TxIndex   uint32 `gorm:"not null" json:"-"`
	Hash      string `gorm:"not null" json:"hash"`
	UpdatedAt int64  `gorm:"not null" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (AliasRecord) TableName() string {
	return "alias_records"
}
