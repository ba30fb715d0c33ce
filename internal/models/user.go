package models

// User is the owner of accounts, transactions and budget periods. Rows are
// provisioned from access token claims; profiles live with the identity service.
type User struct {
	Base
	Email    string    `gorm:"index" json:"email"`
	Name     string    `json:"name"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
	Accounts []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
}
