package api

import (
	"net/http" // HTTP status codes

	"catia_backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// UpdateUserRequest is the body of POST /updateUser
type UpdateUserRequest struct {
	Name            string `json:"name" binding:"required"`        // Display name
	Email           string `json:"email" binding:"required,email"` // Email, unique among all other users
	City            string `json:"ciudad" binding:"required"`      // City
	CurrentPassword string `json:"current_password"`               // Required only when changing the password
	NewPassword     string `json:"new_password"`                   // New password, min 8 characters
}

// DataUserHandler returns the basic profile of the authenticated user
func DataUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		// Return only the basic profile fields
		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":     user.ID,    // User ID
				"name":   user.Name,  // Display name
				"email":  user.Email, // Email
				"ciudad": user.City,  // City
			},
		})
	}
}

// RefreshUserHandler returns the full user payload including wallets and
// movements, the same aggregate /login produces.
func RefreshUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		// Build the aggregate payload
		payload, err := fullUserPayload(db, &user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": payload})
	}
}

// UpdateUserHandler updates name, email, city and optionally the password
// of the authenticated user. A password change requires the current
// password to verify first.
func UpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Owner from the authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return the validation envelope
			validationResponse(c, bindingErrors(err))
			return
		}
		// current_password and new_password come together or not at all
		if (req.CurrentPassword == "") != (req.NewPassword == "") {
			validationResponse(c, map[string]string{"new_password": "Debe indicar la contraseña actual y la nueva"})
			return
		}
		// The new password has the same minimum as registration
		if req.NewPassword != "" && len(req.NewPassword) < 8 {
			validationResponse(c, map[string]string{"new_password": "El campo debe tener al menos 8 caracteres"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		// Email must be unique among all users except the caller
		var count int64
		if err := db.Model(&domain.User{}).
			Where("email = ? AND id <> ?", req.Email, userID).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		if count > 0 {
			validationResponse(c, map[string]string{"email": "El email ya está registrado"})
			return
		}
		// Update the basic profile fields
		user.Name = req.Name
		user.Email = req.Email
		user.City = req.City
		// Verify the current password before replacing it
		if req.CurrentPassword != "" && req.NewPassword != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
				// Wrong current password is a credential error, not plain validation
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "La contraseña actual es incorrecta"})
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
				return
			}
			user.Password = string(hash) // Store the new hash
		}
		// Save the changes
		if err := db.Save(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to update user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
		// Return the updated profile
		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":     user.ID,    // User ID
				"name":   user.Name,  // Display name
				"email":  user.Email, // Email
				"ciudad": user.City,  // City
			},
		})
	}
}
