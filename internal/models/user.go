// internal/models/user.go
package models

// User mirrors the accounts owned by the external auth service. Only the
// fields needed to address notifications are kept here.
type User struct {
	BaseModel
	Username string   `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email    string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	UserType UserType `json:"user_type" gorm:"type:varchar(20);not null"`
	IsActive bool     `json:"is_active" gorm:"default:true"`
}
