package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
)

// Movement Model ("movimiento"). Exactly one of the income/expense pairs is
// set; the other pair stays null. Movements are immutable once created.
type Movement struct {
	ID            uint             `gorm:"primaryKey" json:"id"`                 // Primary key
	WalletID      uint             `gorm:"index;not null" json:"wallet_id"`      // Foreign key to the owning Wallet
	Month         string           `gorm:"size:7;not null" json:"mes"`           // Calendar month in YYYY-MM format
	Income        *decimal.Decimal `gorm:"type:decimal(20,2)" json:"ingreso"`    // Income amount, nil for expenses
	IncomeDetail  *string          `json:"detalle_ingreso"`                      // Income description, nil for expenses
	Expense       *decimal.Decimal `gorm:"type:decimal(20,2)" json:"gasto"`      // Expense amount, nil for incomes
	ExpenseDetail *string          `json:"detalle_gasto"`                        // Expense description, nil for incomes
	CreatedAt     time.Time        `json:"created_at"`                           // Timestamp of creation
}
