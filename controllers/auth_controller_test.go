package controller

import (
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"technova/config"
	"technova/models"
	"technova/utils"
)

func newAuthApp(db *gorm.DB) *fiber.App {
	config.AppConfig.JWTSecret = "test-secret"

	app := fiber.New()
	discard := log.New(io.Discard, "", 0)
	ac := NewAuthController(db, discard)
	oc := NewOTPController(db, discard)
	pc := NewProfileController(db, discard)

	app.Post("/auth/register", ac.Register)
	app.Post("/auth/login", ac.Login)
	app.Post("/otp/verify", oc.VerifyOTP)

	protected := app.Group("", testAuth(db))
	protected.Post("/auth/logout", ac.Logout)
	protected.Get("/profile", pc.GetProfile)
	protected.Put("/profile", pc.UpdateProfile)
	return app
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/auth/register", 0, fiber.Map{
		"email":    "new@test.com",
		"password": "hunter2hunter2",
		"name":     "New User",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "new@test.com").First(&user).Error)
	assert.False(t, user.EmailVerified)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	createTestUser(t, db, "taken@test.com", "Existing")

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/auth/register", 0, fiber.Map{
		"email":    "taken@test.com",
		"password": "hunter2hunter2",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterShortPassword(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/auth/register", 0, fiber.Map{
		"email":    "new@test.com",
		"password": "short",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{Email: "login@test.com", PasswordHash: string(hash), IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/auth/login", 0, fiber.Map{
		"email":    "login@test.com",
		"password": "correct-horse",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access_token"])

	resp, err = app.Test(jsonReq(t, http.MethodPost, "/auth/login", 0, fiber.Map{
		"email":    "login@test.com",
		"password": "wrong-password",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutRevokesTokens(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	user := createTestUser(t, db, "logout@test.com", "Out")
	before := user.TokenVersion

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/auth/logout", user.ID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.Equal(t, before+1, updated.TokenVersion)
}

func TestVerifyOTP(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	user := models.User{Email: "verify@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, utils.SaveOTP(db, user.ID, "123456"))

	resp, err := app.Test(jsonReq(t, http.MethodPost, "/otp/verify", 0, fiber.Map{
		"email": "verify@test.com",
		"otp":   "654321",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(jsonReq(t, http.MethodPost, "/otp/verify", 0, fiber.Map{
		"email": "verify@test.com",
		"otp":   "123456",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var verified models.User
	require.NoError(t, db.First(&verified, user.ID).Error)
	assert.True(t, verified.EmailVerified)
	assert.Equal(t, "", verified.OTP)
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	user := models.User{Email: "profile@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	resp, err := app.Test(jsonReq(t, http.MethodPut, "/profile", user.ID, fiber.Map{
		"name":          "Priya S",
		"phone":         "9876543210",
		"college":       "NIT Trichy",
		"department":    "CSE",
		"year_of_study": 3,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.True(t, updated.ProfileComplete)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "9876543210", *updated.Phone)

	// Missing fields keep the profile incomplete
	resp, err = app.Test(jsonReq(t, http.MethodPut, "/profile", user.ID, fiber.Map{
		"name": "Priya S",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
