package api

import (
	"catia_backend/internal/advisor"    // Advisor gateway
	"catia_backend/internal/middleware" // JWT middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires every route of the API. Shared by cmd/server and the
// handler tests so both run the exact same routing.
func NewRouter(db *gorm.DB, rdb *redis.Client, jwtSecret string, advisorClient *advisor.Client) *gin.Engine {
	r := gin.Default() // Gin router instance

	// Public routes
	r.POST("/register", RegisterHandler(db, jwtSecret))      // Registration endpoint
	r.POST("/login", LoginHandler(db, jwtSecret))            // Login endpoint
	r.POST("/catiaConsejo", CatiaConsejoHandler(advisorClient)) // Standalone advice endpoint

	// Protected routes (JWT plus the logout revocation list)
	auth := r.Group("")
	auth.Use(middleware.JWTAuthMiddleware(jwtSecret, rdb))
	auth.POST("/logout", LogoutHandler(rdb))                          // Token revocation endpoint
	auth.POST("/catia", CatiaHandler(advisorClient))                  // Full-context advisor endpoint
	auth.POST("/dataUser", DataUserHandler(db))                       // Basic profile endpoint
	auth.POST("/refreshUser", RefreshUserHandler(db))                 // Aggregate profile endpoint
	auth.POST("/updateUser", UpdateUserHandler(db))                   // Profile update endpoint
	auth.POST("/getWallets", GetWalletsHandler(db, rdb))              // Wallet list endpoint
	auth.POST("/addWallet", AddWalletHandler(db, rdb))                // Wallet creation endpoint
	auth.POST("/deleteWallet", DeleteWalletHandler(db, rdb))          // Wallet deletion endpoint
	auth.POST("/getMovementsbyWallet", GetMovementsHandler(db, rdb))  // Movement list endpoint
	auth.POST("/addMovementsbyWallet", AddMovementHandler(db, rdb))   // Movement creation endpoint

	return r
}
