package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
)

// Wallet Model ("billetera")
type Wallet struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                       // Primary key
	UserID      uint            `gorm:"index;not null" json:"user_id"`              // Foreign key to the owning User
	Name        string          `gorm:"not null" json:"nombre"`                     // Wallet name
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"monto"`   // Running balance, kept in sync with movements
	Description string          `json:"descripcion"`                                // Optional description
	Movements   []Movement      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`      // Movements of the wallet, deleted with it
	CreatedAt   time.Time       `json:"created_at"`                                 // Timestamp of creation
}
