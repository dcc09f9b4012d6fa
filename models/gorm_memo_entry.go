package models

// MemoEntry is one transaction sent by the service account, as found on chain.
// It corresponds to the 'memo_entries' table.
type MemoEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Account   string `gorm:"not null;index" json:"account"`
	Hash      string `gorm:"not null;uniqueIndex" json:"hash"`
	Height    int64  `gorm:"not null;index:idx_memo_entries_position" json:"height"`
	TxIndex   uint32 `gorm:"not null;index:idx_memo_entries_position" json:"tx_index"`
	Memo      string `gorm:"not null" json:"memo"`
	Kind      string `gorm:"not null" json:"kind"` // register, confirm or unknown
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (MemoEntry) TableName() string {
	return "memo_entries"
}
