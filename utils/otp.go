package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"gorm.io/gorm"

	"technova/models"
)

const (
	OTPLength         = 6
	OTPExpiry         = 15 * time.Minute
	OTPResendCooldown = 1 * time.Minute
)

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

func SaveOTP(db *gorm.DB, userID uint, otp string) error {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return err
	}

	user.OTP = otp
	user.OTPExpiresAt = time.Now().Add(OTPExpiry)

	return db.Save(&user).Error
}

// VerifyOTP checks the code against the stored one and, on success, clears
// it and marks the email verified.
func VerifyOTP(db *gorm.DB, userID uint, otp string) (bool, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, err
	}

	if user.OTP == otp && user.OTP != "" && time.Now().Before(user.OTPExpiresAt) {
		user.OTP = ""
		user.EmailVerified = true
		if err := db.Save(&user).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func CanResendOTP(db *gorm.DB, userID uint) (bool, time.Duration, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, 0, err
	}

	if user.OTPExpiresAt.IsZero() {
		return true, 0, nil
	}

	issuedAt := user.OTPExpiresAt.Add(-OTPExpiry)
	remaining := time.Until(issuedAt.Add(OTPResendCooldown))
	if remaining <= 0 {
		return true, 0, nil
	}

	return false, remaining, nil
}
