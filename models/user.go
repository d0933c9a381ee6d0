package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a festival account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	OTP           string    `json:"-"`
	OTPExpiresAt  time.Time `json:"-"`

	// Password reset
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	// TokenVersion invalidates all issued JWTs when bumped
	TokenVersion int `gorm:"default:0" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information, completed after signup
	Name            *string `json:"name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	College         *string `json:"college,omitempty"`
	Department      *string `json:"department,omitempty"`
	YearOfStudy     *int    `json:"year_of_study,omitempty"`
	ProfileComplete bool    `gorm:"default:false" json:"profile_complete"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	// Relations
	Passes      []Pass       `gorm:"foreignKey:UserID" json:"passes,omitempty"`
	Submissions []Submission `gorm:"foreignKey:UserID" json:"submissions,omitempty"`
}

// DisplayName returns the profile name or the email when the profile is not
// filled in yet.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
