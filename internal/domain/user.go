package domain

// User Model
type User struct {
	ID       uint     `gorm:"primaryKey" json:"id"`                  // Primary key
	Name     string   `gorm:"not null" json:"name"`                  // Display name
	Email    string   `gorm:"unique;not null" json:"email"`          // Unique email, used for login
	Password string   `gorm:"not null" json:"-"`                     // Hashed password, never serialized
	City     string   `json:"ciudad"`                                // City, used to personalize advisor replies
	Wallets  []Wallet `gorm:"constraint:OnDelete:CASCADE;" json:"-"` // Wallets owned by the user, deleted with it
}
