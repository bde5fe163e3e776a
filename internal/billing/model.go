package billing

import (
	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/shipment/model"
)

// TransactionType distinguishes ledger directions.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is one entry in a user's balance ledger. The cached balance
// on the user row is adjusted in the same transaction that inserts the entry.
type Transaction struct {
	model.BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	ShipmentID  *uuid.UUID      `gorm:"type:uuid;column:shipment_id;index" json:"shipmentId,omitempty"`
	Type        TransactionType `gorm:"type:varchar(10);column:type;not null" json:"type"`
	Amount      float64         `gorm:"type:numeric;column:amount;not null" json:"amount"`
	Description string          `gorm:"type:text;column:description" json:"description,omitempty"`
}

func (t *Transaction) TableName() string {
	return "balance_transactions"
}

// DailyRevenue is one row of the gross revenue report.
type DailyRevenue struct {
	Day   string  `json:"day"`
	Gross float64 `json:"gross"`
	Count int64   `json:"count"`
}
