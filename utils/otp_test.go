package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"technova/config"
	"technova/models"
)

func otpTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	return db
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	require.NoError(t, err)
	assert.Len(t, otp, OTPLength)
	for _, ch := range otp {
		assert.True(t, ch >= '0' && ch <= '9', "OTP must be digits only, got %q", otp)
	}
}

func TestSaveAndVerifyOTP(t *testing.T) {
	db := otpTestDB(t)

	user := models.User{Email: "otp@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, SaveOTP(db, user.ID, "123456"))

	valid, err := VerifyOTP(db, user.ID, "000000")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = VerifyOTP(db, user.ID, "123456")
	require.NoError(t, err)
	assert.True(t, valid)

	// A consumed code cannot be replayed
	valid, err = VerifyOTP(db, user.ID, "123456")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyOTPExpired(t *testing.T) {
	db := otpTestDB(t)

	user := models.User{Email: "expired@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, SaveOTP(db, user.ID, "123456"))

	require.NoError(t, db.Model(&user).
		Update("otp_expires_at", time.Now().Add(-time.Minute)).Error)

	valid, err := VerifyOTP(db, user.ID, "123456")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestCanResendOTP(t *testing.T) {
	db := otpTestDB(t)

	user := models.User{Email: "resend@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	// No code issued yet
	can, _, err := CanResendOTP(db, user.ID)
	require.NoError(t, err)
	assert.True(t, can)

	require.NoError(t, SaveOTP(db, user.ID, "123456"))

	can, remaining, err := CanResendOTP(db, user.ID)
	require.NoError(t, err)
	assert.False(t, can)
	assert.Greater(t, remaining, time.Duration(0))
}
