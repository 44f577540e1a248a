// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Email is the login identifier.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName  string     `gorm:"type:varchar(255);not null;default:''" json:"first_name"`
	LastName   string     `gorm:"type:varchar(255);not null;default:''" json:"last_name"`
	Password   string     `gorm:"not null" json:"-"`
	IsStaff    bool       `gorm:"not null;default:false" json:"-"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	DateJoined time.Time  `gorm:"not null" json:"date_joined"`
	LastLogin  *time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave normalizes the email so lookups stay case-insensitive.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserProfile is the public projection of a user attached to relationship listings.
type UserProfile struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// Profile returns the public projection of the user.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}
