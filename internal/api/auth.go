package api

import (
	"net/http" // HTTP status codes
	"time"     // Revocation TTL

	"catia_backend/internal/domain" // Importing domain models
	"catia_backend/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name                 string `json:"name" binding:"required"`           // Display name
	Email                string `json:"email" binding:"required,email"`    // Login email, must be unique
	Password             string `json:"password" binding:"required,min=8"` // Plain password, hashed before storage
	PasswordConfirmation string `json:"password_confirmation"`             // Optional confirmation, must match when present
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email
	Password string `json:"password" binding:"required"`    // Plain password
}

// RegisterHandler creates a new user account and issues its first token
func RegisterHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		// When a confirmation is sent it has to match the password
		if req.PasswordConfirmation != "" && req.PasswordConfirmation != req.Password {
			validationResponse(c, map[string]string{"password": "Las contraseñas no coinciden"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error al crear el usuario"})
			return
		}
		user := domain.User{Name: req.Name, Email: req.Email, Password: string(hash)}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// Duplicate email is the only expected failure here
			validationResponse(c, map[string]string{"email": "El email ya está registrado"})
			return
		}
		// Generate JWT token for the new account
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error al crear el usuario"})
			return
		}
		// Log the registration
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // New user ID
		}).Info("User registered")
		// Return the token and the basic user payload
		c.JSON(http.StatusCreated, gin.H{
			"token": token, // Token for future authenticated requests
			"user": gin.H{
				"id":    user.ID,    // User ID
				"name":  user.Name,  // Display name
				"email": user.Email, // Email
			},
		})
	}
}

// LoginHandler authenticates a user and returns a token plus the full
// user payload (profile, wallets and movements) the SPA boots from.
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			// Unknown email reads exactly like a wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Credenciales incorrectas"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Credenciales incorrectas"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error al iniciar sesión"})
			return
		}
		// Build the aggregate payload with wallets and movements
		payload, err := fullUserPayload(db, &user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error al iniciar sesión"})
			return
		}
		// Log the login
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // User ID
		}).Info("User logged in")
		// Return the token and the full user payload
		c.JSON(http.StatusOK, gin.H{"token": token, "user": payload})
	}
}

// LogoutHandler revokes the caller's token for the rest of its lifetime
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString("token") // Raw token stored by the JWT middleware
		ttl := time.Duration(0)       // Revocation only needs to outlive the token
		if v, exists := c.Get("tokenExpiresAt"); exists {
			if exp, ok := v.(time.Time); ok {
				ttl = time.Until(exp) // Remaining token lifetime
			}
		}
		// Store the revocation marker in Redis
		if err := utils.RevokeToken(c.Request.Context(), rdb, token, ttl); err != nil {
			// If Redis fails, the logout did not happen
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error al cerrar sesión"})
			return
		}
		// Return confirmation
		c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada correctamente"})
	}
}
