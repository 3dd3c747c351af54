package ledger_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"catia_backend/internal/domain"
	"catia_backend/internal/ledger"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Wallet{}, &domain.Movement{}))
	return db
}

// newTestUser persists a user to own wallets in tests
func newTestUser(t *testing.T, db *gorm.DB, email string) domain.User {
	t.Helper()
	user := domain.User{Name: "Tester", Email: email, Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// reloadWallet fetches the current wallet row
func reloadWallet(t *testing.T, db *gorm.DB, id uint) domain.Wallet {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, db.First(&w, id).Error)
	return w
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCreateWalletRecordsOpeningMovement(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")

	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(1000), "plata guardada")
	require.NoError(t, err)
	assert.True(t, dec(1000).Equal(wallet.Balance), "balance should equal the opening amount")

	movements, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	opening := movements[0]
	require.NotNil(t, opening.Income)
	assert.True(t, dec(1000).Equal(*opening.Income))
	require.NotNil(t, opening.IncomeDetail)
	assert.Equal(t, ledger.OpeningDetail, *opening.IncomeDetail)
	assert.Nil(t, opening.Expense)
	assert.Nil(t, opening.ExpenseDetail)
	assert.Equal(t, time.Now().Format("2006-01"), opening.Month)
}

func TestCreateWalletValidation(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")

	_, err := ledger.CreateWallet(db, user.ID, "", dec(10), "")
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nombre")

	_, err = ledger.CreateWallet(db, user.ID, "Ahorros", dec(-1), "")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "monto")

	// A zero opening balance is fine
	_, err = ledger.CreateWallet(db, user.ID, "Vacía", dec(0), "")
	assert.NoError(t, err)
}

func TestExpenseUpdatesBalanceAndOrdering(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(1000), "")
	require.NoError(t, err)

	month := time.Now().Format("2006-01")
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(200), "mercado", month)
	require.NoError(t, err)

	assert.True(t, dec(800).Equal(reloadWallet(t, db, wallet.ID).Balance))

	movements, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	// Most recent first: the expense precedes the opening movement
	require.NotNil(t, movements[0].Expense)
	assert.True(t, dec(200).Equal(*movements[0].Expense))
	assert.Equal(t, "mercado", *movements[0].ExpenseDetail)
	require.NotNil(t, movements[1].Income)
	assert.Equal(t, ledger.OpeningDetail, *movements[1].IncomeDetail)
}

func TestMovementKindFieldPlacement(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(0), "")
	require.NoError(t, err)
	month := "2025-06"

	income, err := ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(50), "sueldo", month)
	require.NoError(t, err)
	require.NotNil(t, income.Income)
	assert.True(t, dec(50).Equal(*income.Income))
	assert.Nil(t, income.Expense)
	assert.Nil(t, income.ExpenseDetail)

	expense, err := ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(50), "arriendo", month)
	require.NoError(t, err)
	require.NotNil(t, expense.Expense)
	assert.True(t, dec(50).Equal(*expense.Expense))
	assert.Nil(t, expense.Income)
	assert.Nil(t, expense.IncomeDetail)

	// Anything other than Ingreso/Gasto fails validation
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, "Transferencia", dec(50), "x", month)
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "tipo")
}

func TestMovementValidation(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(0), "")
	require.NoError(t, err)

	var verr *ledger.ValidationError
	for _, month := range []string{"2025-13", "2025-00", "25-01", "2025-1", "2025/01", ""} {
		_, err := ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(1), "x", month)
		require.ErrorAs(t, err, &verr, "month %q should be rejected", month)
		assert.Contains(t, verr.Fields, "mes")
	}
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(1), "x", "2025-12")
	assert.NoError(t, err)

	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(-5), "x", "2025-01")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "monto")

	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(5), "", "2025-01")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "detalle")
}

// The wallet may go negative: no floor is enforced on expenses.
func TestBalanceMayGoNegative(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(100), "")
	require.NoError(t, err)

	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(250), "imprevisto", "2025-03")
	require.NoError(t, err)
	assert.True(t, dec(-150).Equal(reloadWallet(t, db, wallet.ID).Balance))
}

// After any sequence of movements the balance equals the running sum of
// every recorded movement, including the opening one.
func TestBalanceMatchesMovementSum(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")

	rng := rand.New(rand.NewSource(42))
	opening := dec(int64(rng.Intn(1000)))
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", opening, "")
	require.NoError(t, err)

	expected := opening
	for i := 0; i < 60; i++ {
		amount := dec(int64(rng.Intn(500)))
		if rng.Intn(2) == 0 {
			_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, amount, "ingreso", "2025-05")
			expected = expected.Add(amount)
		} else {
			_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, amount, "gasto", "2025-05")
			expected = expected.Sub(amount)
		}
		require.NoError(t, err)
		got := reloadWallet(t, db, wallet.ID).Balance
		require.True(t, expected.Equal(got), "step %d: balance %s != running sum %s", i, got, expected)
	}

	// Recompute from the recorded movements themselves
	movements, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range movements {
		if m.Income != nil {
			sum = sum.Add(*m.Income)
		}
		if m.Expense != nil {
			sum = sum.Sub(*m.Expense)
		}
	}
	assert.True(t, sum.Equal(reloadWallet(t, db, wallet.ID).Balance))
}

// Whatever order two movements land in, the final balance is the same and
// both movements are persisted.
func TestMovementOrderDoesNotChangeFinalBalance(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")

	apply := func(walletID uint, kind string, amount int64) {
		_, err := ledger.ApplyMovement(db, user.ID, walletID, kind, dec(amount), "mov", "2025-04")
		require.NoError(t, err)
	}

	first, err := ledger.CreateWallet(db, user.ID, "Uno", dec(500), "")
	require.NoError(t, err)
	apply(first.ID, ledger.KindIncome, 100)
	apply(first.ID, ledger.KindExpense, 30)

	second, err := ledger.CreateWallet(db, user.ID, "Dos", dec(500), "")
	require.NoError(t, err)
	apply(second.ID, ledger.KindExpense, 30)
	apply(second.ID, ledger.KindIncome, 100)

	assert.True(t, dec(570).Equal(reloadWallet(t, db, first.ID).Balance))
	assert.True(t, dec(570).Equal(reloadWallet(t, db, second.ID).Balance))

	for _, id := range []uint{first.ID, second.ID} {
		movements, err := ledger.ListMovements(db, user.ID, id)
		require.NoError(t, err)
		assert.Len(t, movements, 3) // opening + both movements
	}
}

// Two goroutines hitting the same wallet at once must both land and the
// relative balance increments must not overwrite each other.
func TestConcurrentMovementsDoNotLoseUpdates(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows one writer; a single pooled connection makes the two
	// goroutines contend for the wallet row instead of erroring with busy
	sqlDB.SetMaxOpenConns(1)

	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(500), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(100), "ingreso", "2025-04")
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(30), "gasto", "2025-04")
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Whatever the interleaving, both movements persisted and the balance
	// reflects both deltas
	assert.True(t, dec(570).Equal(reloadWallet(t, db, wallet.ID).Balance))
	movements, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 3) // opening + both concurrent movements
}

// Not-mine and not-exists are indistinguishable to the caller.
func TestOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	owner := newTestUser(t, db, "owner@example.com")
	intruder := newTestUser(t, db, "intruder@example.com")
	wallet, err := ledger.CreateWallet(db, owner.ID, "Ahorros", dec(100), "")
	require.NoError(t, err)

	_, err = ledger.ListMovements(db, intruder.ID, wallet.ID)
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	err = ledger.DeleteWallet(db, intruder.ID, wallet.ID)
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	_, err = ledger.ApplyMovement(db, intruder.ID, wallet.ID, ledger.KindIncome, dec(1), "x", "2025-01")
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	// A wallet that does not exist at all yields the exact same error
	_, err = ledger.ListMovements(db, intruder.ID, wallet.ID+999)
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	// The owner's wallet is untouched
	assert.True(t, dec(100).Equal(reloadWallet(t, db, wallet.ID).Balance))
}

func TestDeleteWalletCascadesMovements(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(100), "")
	require.NoError(t, err)
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(10), "gasto", "2025-02")
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteWallet(db, user.ID, wallet.ID))

	var walletCount, movementCount int64
	require.NoError(t, db.Model(&domain.Wallet{}).Where("id = ?", wallet.ID).Count(&walletCount).Error)
	require.NoError(t, db.Model(&domain.Movement{}).Where("wallet_id = ?", wallet.ID).Count(&movementCount).Error)
	assert.Zero(t, walletCount)
	assert.Zero(t, movementCount)
}

func TestReadsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(100), "")
	require.NoError(t, err)
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(5), "x", "2025-02")
	require.NoError(t, err)

	walletsA, err := ledger.ListWallets(db, user.ID)
	require.NoError(t, err)
	walletsB, err := ledger.ListWallets(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, len(walletsA), len(walletsB))

	movementsA, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	movementsB, err := ledger.ListMovements(db, user.ID, wallet.ID)
	require.NoError(t, err)
	require.Equal(t, len(movementsA), len(movementsB))
	for i := range movementsA {
		assert.Equal(t, movementsA[i].ID, movementsB[i].ID)
	}
}

// A failure on the movement insert must leave the balance untouched, and
// a failure on the balance update must leave no movement behind.
func TestApplyMovementIsAtomic(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "a@example.com")
	wallet, err := ledger.CreateWallet(db, user.ID, "Ahorros", dec(300), "")
	require.NoError(t, err)

	// Fail the movement insert
	failCreate := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*domain.Movement); ok && failCreate {
			tx.AddError(errors.New("injected create failure"))
		}
	}))
	failCreate = true
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindIncome, dec(40), "x", "2025-01")
	failCreate = false
	require.Error(t, err)
	assert.True(t, dec(300).Equal(reloadWallet(t, db, wallet.ID).Balance), "balance must not move when the insert fails")

	// Fail the balance update
	failUpdate := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "wallets" && failUpdate {
			tx.AddError(errors.New("injected update failure"))
		}
	}))
	failUpdate = true
	_, err = ledger.ApplyMovement(db, user.ID, wallet.ID, ledger.KindExpense, dec(40), "x", "2025-01")
	failUpdate = false
	require.Error(t, err)

	var movementCount int64
	require.NoError(t, db.Model(&domain.Movement{}).Where("wallet_id = ?", wallet.ID).Count(&movementCount).Error)
	assert.EqualValues(t, 1, movementCount, "only the opening movement should exist")
	assert.True(t, dec(300).Equal(reloadWallet(t, db, wallet.ID).Balance))
}
