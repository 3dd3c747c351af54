package ledger

import (
	"errors" // Sentinel errors
	"regexp" // Month format validation
	"time"   // Current month for the opening movement

	"catia_backend/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// Movement kinds, as they travel on the wire
const (
	KindIncome  = "Ingreso" // Adds to the wallet balance
	KindExpense = "Gasto"   // Subtracts from the wallet balance
)

// OpeningDetail is the detail recorded on the synthetic movement created
// together with every new wallet.
const OpeningDetail = "Apertura de billetera"

// ErrWalletNotFound is returned both when a wallet does not exist and when
// it belongs to another user, so callers cannot probe for foreign wallets.
var ErrWalletNotFound = errors.New("wallet not found")

// ValidationError carries a field -> message map for invalid input
type ValidationError struct {
	Fields map[string]string // Field name to human-readable message
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return "validation failed"
}

// monthPattern matches calendar-valid YYYY-MM months (rejects e.g. 2025-13)
var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CreateWallet persists a new wallet with its opening balance and the
// synthetic opening movement for the current month. Both writes happen in
// one transaction so a wallet can never exist without its opening record.
func CreateWallet(db *gorm.DB, ownerID uint, name string, amount decimal.Decimal, description string) (*domain.Wallet, error) {
	// Validate input before touching the database
	fields := map[string]string{}
	if name == "" {
		fields["nombre"] = "El nombre es obligatorio"
	}
	if amount.IsNegative() {
		fields["monto"] = "El monto debe ser mayor o igual a 0"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	wallet := domain.Wallet{
		UserID:      ownerID,     // Owner from the authenticated caller, never from input
		Name:        name,        // Wallet name
		Balance:     amount,      // Opening balance
		Description: description, // Optional description
	}
	// Wallet row and opening movement are one logical unit
	err := db.Transaction(func(tx *gorm.DB) error {
		// Create the wallet
		if err := tx.Create(&wallet).Error; err != nil {
			return err // Return error to rollback
		}
		detail := OpeningDetail // Opening movement detail
		opening := domain.Movement{
			WalletID:     wallet.ID,                       // Freshly created wallet
			Month:        time.Now().Format("2006-01"),    // Current calendar month
			Income:       &amount,                         // Opening balance recorded as income
			IncomeDetail: &detail,                         // Expense pair stays null
		}
		// Create the opening movement
		if err := tx.Create(&opening).Error; err != nil {
			return err // Return error to rollback
		}
		return nil // Commit transaction
	})
	if err != nil {
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"user_id": ownerID,     // Owner user ID
			"nombre":  name,        // Wallet name
			"error":   err.Error(), // Error message
		}).Error("Failed to create wallet")
		return nil, err
	}
	// Log successful wallet creation
	logrus.WithFields(logrus.Fields{
		"user_id":   ownerID,       // Owner user ID
		"wallet_id": wallet.ID,     // Wallet ID
		"monto":     amount.String(), // Opening balance
	}).Info("Wallet created")
	return &wallet, nil
}

// ListWallets returns every wallet owned by the caller
func ListWallets(db *gorm.DB, ownerID uint) ([]domain.Wallet, error) {
	wallets := []domain.Wallet{} // Empty slice, not nil, so it serializes as []
	if err := db.Where("user_id = ?", ownerID).Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// findOwned fetches a wallet only if it belongs to ownerID. Not-mine and
// not-exists collapse into the same ErrWalletNotFound.
func findOwned(db *gorm.DB, ownerID, walletID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := db.Where("id = ? AND user_id = ?", walletID, ownerID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// DeleteWallet removes a wallet owned by the caller together with all of
// its movements.
func DeleteWallet(db *gorm.DB, ownerID, walletID uint) error {
	wallet, err := findOwned(db, ownerID, walletID) // Ownership check
	if err != nil {
		return err
	}
	// Movements and wallet go away in one transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		// Delete the wallet's movements
		if err := tx.Where("wallet_id = ?", wallet.ID).Delete(&domain.Movement{}).Error; err != nil {
			return err // Return error to rollback
		}
		// Delete the wallet itself
		if err := tx.Delete(wallet).Error; err != nil {
			return err // Return error to rollback
		}
		return nil // Commit transaction
	})
	if err != nil {
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"user_id":   ownerID,     // Owner user ID
			"wallet_id": walletID,    // Wallet ID
			"error":     err.Error(), // Error message
		}).Error("Failed to delete wallet")
		return err
	}
	// Log successful deletion
	logrus.WithFields(logrus.Fields{
		"user_id":   ownerID,  // Owner user ID
		"wallet_id": walletID, // Wallet ID
	}).Info("Wallet deleted")
	return nil
}

// ListMovements returns the movements of a wallet owned by the caller,
// most recent first.
func ListMovements(db *gorm.DB, ownerID, walletID uint) ([]domain.Movement, error) {
	wallet, err := findOwned(db, ownerID, walletID) // Ownership check
	if err != nil {
		return nil, err
	}
	movements := []domain.Movement{} // Empty slice, not nil, so it serializes as []
	// created_at ties are broken by id so same-second inserts keep insertion order
	if err := db.Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC, id DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ApplyMovement validates and records one income or expense against a
// wallet owned by the caller. The movement insert and the balance update
// run in a single transaction, and the balance changes through a relative
// SQL increment so concurrent movements never overwrite each other.
// A balance is allowed to go negative; no floor is enforced.
func ApplyMovement(db *gorm.DB, ownerID, walletID uint, kind string, amount decimal.Decimal, detail, month string) (*domain.Movement, error) {
	// Validate input before touching the database
	fields := map[string]string{}
	if kind != KindIncome && kind != KindExpense {
		fields["tipo"] = "El tipo debe ser Ingreso o Gasto"
	}
	if amount.IsNegative() {
		fields["monto"] = "El monto debe ser mayor o igual a 0"
	}
	if detail == "" {
		fields["detalle"] = "El detalle es obligatorio"
	}
	if !monthPattern.MatchString(month) {
		fields["mes"] = "El mes debe tener el formato YYYY-MM"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	wallet, err := findOwned(db, ownerID, walletID) // Ownership check
	if err != nil {
		return nil, err
	}
	movement := domain.Movement{
		WalletID: wallet.ID, // Owning wallet
		Month:    month,     // Movement month
	}
	// Fill exactly one of the income/expense pairs
	if kind == KindIncome {
		movement.Income = &amount       // Income amount
		movement.IncomeDetail = &detail // Income detail
	} else {
		movement.Expense = &amount       // Expense amount
		movement.ExpenseDetail = &detail // Expense detail
	}
	// Movement insert and balance delta are one atomic step
	err = db.Transaction(func(tx *gorm.DB) error {
		// Create the movement record
		if err := tx.Create(&movement).Error; err != nil {
			return err // Return error to rollback
		}
		// Apply the relative balance delta
		expr := gorm.Expr("balance + ?", amount)
		if kind == KindExpense {
			expr = gorm.Expr("balance - ?", amount)
		}
		if err := tx.Model(&domain.Wallet{}).Where("id = ?", wallet.ID).
			Update("balance", expr).Error; err != nil {
			return err // Return error to rollback
		}
		return nil // Commit transaction
	})
	if err != nil {
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"user_id":   ownerID,         // Owner user ID
			"wallet_id": wallet.ID,       // Wallet ID
			"tipo":      kind,            // Movement kind
			"monto":     amount.String(), // Movement amount
			"error":     err.Error(),     // Error message
		}).Error("Movement failed")
		return nil, err
	}
	// Log successful movement
	logrus.WithFields(logrus.Fields{
		"user_id":   ownerID,         // Owner user ID
		"wallet_id": wallet.ID,       // Wallet ID
		"tipo":      kind,            // Movement kind
		"monto":     amount.String(), // Movement amount
		"mes":       month,           // Movement month
	}).Info("Movement recorded")
	return &movement, nil
}
