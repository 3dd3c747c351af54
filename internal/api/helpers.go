package api

import (
	"net/http" // HTTP status codes
	"reflect"  // Struct tag inspection for wire field names
	"strconv"  // Cache key building
	"strings"  // JSON tag parsing

	"catia_backend/internal/domain" // Importing domain models
	"catia_backend/internal/ledger" // Core ledger operations

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Access to the binding validator
	"github.com/go-playground/validator/v10" // Binding validation errors
	"gorm.io/gorm"                           // GORM ORM library
)

// Validation errors must carry the Spanish wire names the SPA keys on
// (monto, detalle, mes, wallet_id), not Go struct field names, so the
// binding validator reports fields by their json tag.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0] // Wire name from the json tag
			if name == "-" {
				return "" // Unserialized fields keep their Go name
			}
			return name
		})
	}
}

// currentUserID reads the authenticated user id placed in the context by
// the JWT middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID") // Get userID from context
	if !exists {
		return 0, false
	}
	id, ok := v.(uint) // Stored as uint by the middleware
	return id, ok
}

// validationResponse writes the Laravel-compatible 422 envelope
func validationResponse(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "Error de validación", // Generic validation message
		"errors":  fields,                // Field -> message map
	})
}

// bindingErrors turns gin/validator binding failures into a field map
func bindingErrors(err error) map[string]string {
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		// One message per failed field
		for _, fe := range verrs {
			name := fe.Field() // Wire name via the registered json tag lookup
			switch fe.Tag() {
			case "required":
				fields[name] = "El campo es obligatorio"
			case "email":
				fields[name] = "El email no es válido"
			case "min":
				fields[name] = "El campo debe tener al menos " + fe.Param() + " caracteres"
			default:
				fields[name] = "El campo no es válido"
			}
		}
		return fields
	}
	fields["request"] = "El cuerpo de la solicitud no es válido" // Malformed JSON and friends
	return fields
}

// ledgerError maps ledger failures onto the HTTP error taxonomy: 422 for
// validation, one uniform 404 for missing/foreign wallets, 500 otherwise.
func ledgerError(c *gin.Context, err error) {
	if verr, ok := err.(*ledger.ValidationError); ok {
		validationResponse(c, verr.Fields)
		return
	}
	if err == ledger.ErrWalletNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
}

// walletsCacheKey is the Redis key for a user's wallet list
func walletsCacheKey(userID uint) string {
	return "wallets:user:" + strconv.Itoa(int(userID))
}

// movementsCacheKey is the Redis key for one wallet's movement list. It is
// scoped by user so cached entries can never serve a foreign caller.
func movementsCacheKey(userID, walletID uint) string {
	return "movements:user:" + strconv.Itoa(int(userID)) + ":wallet:" + strconv.Itoa(int(walletID))
}

// fullUserPayload builds the aggregate user object returned by /login and
// /refreshUser: profile fields plus all wallets and all movements across
// those wallets.
func fullUserPayload(db *gorm.DB, user *domain.User) (gin.H, error) {
	wallets := []domain.Wallet{} // Empty slice, not nil, so it serializes as []
	if err := db.Where("user_id = ?", user.ID).Find(&wallets).Error; err != nil {
		return nil, err
	}
	movements := []domain.Movement{} // Movements of every wallet the user owns
	if err := db.Joins("JOIN wallets ON wallets.id = movements.wallet_id").
		Where("wallets.user_id = ?", user.ID).
		Order("movements.created_at DESC, movements.id DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return gin.H{
		"id":          user.ID,    // User ID
		"name":        user.Name,  // Display name
		"email":       user.Email, // Email
		"ciudad":      user.City,  // City
		"billeteras":  wallets,    // All wallets
		"movimientos": movements,  // All movements across those wallets
	}, nil
}
