package api

import (
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"catia_backend/internal/domain" // Importing domain models
	"catia_backend/internal/ledger" // Core ledger operations
	"catia_backend/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal arithmetic for money
	"gorm.io/gorm"                  // GORM ORM library
)

// cacheTTL bounds how long wallet and movement lists stay cached
const cacheTTL = 60 * time.Second

// AddWalletRequest is the body of POST /addWallet
type AddWalletRequest struct {
	Name        string           `json:"nombre" binding:"required"` // Wallet name
	Amount      *decimal.Decimal `json:"monto" binding:"required"`  // Opening balance; pointer so 0 and missing differ
	Description string           `json:"descripcion"`               // Optional description
}

// WalletIDRequest is the body of the routes addressing one wallet
type WalletIDRequest struct {
	WalletID uint `json:"wallet_id" binding:"required"` // Target wallet
}

// AddMovementRequest is the body of POST /addMovementsbyWallet
type AddMovementRequest struct {
	WalletID uint             `json:"wallet_id" binding:"required"` // Target wallet
	Kind     string           `json:"tipo" binding:"required"`      // Ingreso or Gasto
	Amount   *decimal.Decimal `json:"monto" binding:"required"`     // Movement amount; pointer so 0 and missing differ
	Detail   string           `json:"detalle" binding:"required"`   // Movement description
	Month    string           `json:"mes" binding:"required"`       // Calendar month, YYYY-MM
}

// GetWalletsHandler returns every wallet of the authenticated user,
// served from Redis when a fresh copy exists.
func GetWalletsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()          // Context for Redis operations
		cacheKey := walletsCacheKey(userID) // Cache key for the wallet list
		var wallets []domain.Wallet
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallets) // Try to get from cache
		if err == nil && found {
			// Return cached wallet list
			c.JSON(http.StatusOK, gin.H{"wallets": wallets, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		wallets, err = ledger.ListWallets(db, userID)
		if err != nil {
			ledgerError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, wallets, cacheTTL)        // Cache the wallet list
		c.JSON(http.StatusOK, gin.H{"wallets": wallets, "cached": false}) // Return wallet list
	}
}

// AddWalletHandler creates a wallet with its opening movement
func AddWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AddWalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		// Create the wallet and its opening movement atomically
		wallet, err := ledger.CreateWallet(db, userID, req.Name, *req.Amount, req.Description)
		if err != nil {
			ledgerError(c, err)
			return
		}
		// Invalidate the wallet list cache
		_ = utils.DeleteCache(c.Request.Context(), rdb, walletsCacheKey(userID))
		// Return the created wallet
		c.JSON(http.StatusOK, gin.H{"wallet": wallet})
	}
}

// DeleteWalletHandler deletes one wallet of the authenticated user along
// with its movements. The owner always comes from the token, never from
// the request body.
func DeleteWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WalletIDRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		// Delete the wallet with its movements
		if err := ledger.DeleteWallet(db, userID, req.WalletID); err != nil {
			ledgerError(c, err)
			return
		}
		// Invalidate wallet and movement caches
		ctx := c.Request.Context()
		_ = utils.DeleteCache(ctx, rdb, walletsCacheKey(userID))
		_ = utils.DeleteCache(ctx, rdb, movementsCacheKey(userID, req.WalletID))
		// Return confirmation
		c.JSON(http.StatusOK, gin.H{"message": "Cartera eliminada correctamente"})
	}
}

// GetMovementsHandler returns the movements of one wallet, most recent
// first, served from Redis when a fresh copy exists.
func GetMovementsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WalletIDRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		ctx := c.Request.Context()                           // Context for Redis operations
		cacheKey := movementsCacheKey(userID, req.WalletID)  // User-scoped cache key
		var movements []domain.Movement
		found, err := utils.GetCache(ctx, rdb, cacheKey, &movements) // Try to get from cache
		if err == nil && found {
			c.JSON(http.StatusOK, movements) // Return cached movements
			return
		}
		// If not in cache, fetch from DB with the ownership check
		movements, err = ledger.ListMovements(db, userID, req.WalletID)
		if err != nil {
			ledgerError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, movements, cacheTTL) // Cache the movements
		c.JSON(http.StatusOK, movements)                            // The SPA expects the raw array
	}
}

// AddMovementHandler records one income or expense against a wallet
func AddMovementHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AddMovementRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		// Apply the movement atomically against the wallet balance
		movement, err := ledger.ApplyMovement(db, userID, req.WalletID, req.Kind, *req.Amount, req.Detail, req.Month)
		if err != nil {
			ledgerError(c, err)
			return
		}
		// Invalidate wallet and movement caches
		ctx := c.Request.Context()
		_ = utils.DeleteCache(ctx, rdb, walletsCacheKey(userID))
		_ = utils.DeleteCache(ctx, rdb, movementsCacheKey(userID, req.WalletID))
		// Return the created movement
		c.JSON(http.StatusOK, gin.H{"movement": movement})
	}
}
