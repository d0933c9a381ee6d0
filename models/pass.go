package models

import (
	"time"

	"gorm.io/gorm"
)

// Pass types map to the festival's ticket tiers. Pass 2 and 3 gate the two
// competitive tracks.
const (
	PassTypeGeneral           = 1
	PassTypePaperPresentation = 2
	PassTypeIdeathon          = 3
)

// Pass statuses. A pass starts pending and is flipped to verified or
// rejected by an operator after checking the payment screenshot.
const (
	PassStatusPending  = "pending"
	PassStatusVerified = "verified"
	PassStatusRejected = "rejected"
)

// Pass represents a purchased festival pass awaiting or holding manual
// payment verification.
type Pass struct {
	gorm.Model
	UserID   uint `gorm:"not null;index" json:"user_id"`
	PassType int  `gorm:"not null;index" json:"pass_type"`

	Status         string `gorm:"default:'pending';index" json:"status"`
	ScreenshotURL  string `gorm:"not null" json:"screenshot_url"`
	Amount         int    `json:"amount"` // in rupees
	TransactionRef string `json:"transaction_ref"`

	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	// NotifiedAt is stamped by the notifier worker after the confirmation
	// email goes out.
	NotifiedAt *time.Time `json:"-"`

	// Relations
	User User `json:"-"`
}

// PassTypeForEvent maps a competitive track to the pass type that gates it.
func PassTypeForEvent(eventType string) int {
	switch eventType {
	case EventPaperPresentation:
		return PassTypePaperPresentation
	case EventIdeathon:
		return PassTypeIdeathon
	}
	return 0
}

// HasVerifiedPass reports whether the user holds a verified pass of the
// given type.
func HasVerifiedPass(db *gorm.DB, userID uint, passType int) (bool, error) {
	var count int64
	err := db.Model(&Pass{}).
		Where("user_id = ? AND pass_type = ? AND status = ?", userID, passType, PassStatusVerified).
		Count(&count).Error
	return count > 0, err
}
