package models

import "time"

// Account keeps the current credit balance; the ledger is the source of
// truth and the balance is updated in the same transaction as each entry.
type Account struct {
	UserID  string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Credits int64  `gorm:"column:credits;type:bigint" json:"credits"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

type CreditEntry struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	Delta  int64  `gorm:"column:delta;type:bigint" json:"delta"` // positive purchase, negative spend
	Reason string `gorm:"column:reason;type:text" json:"reason"` // purchase|analysis|humanize|refund

	// payment reference for purchases, unique so a receipt is credited once
	Reference string `gorm:"column:reference;type:text;uniqueIndex:idx_credit_reference,where:reference <> ''" json:"reference,omitempty"`
	Provider  string `gorm:"column:provider;type:text" json:"provider,omitempty"` // paystack|bitcoin

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (CreditEntry) TableName() string { return "credit_entries" }
