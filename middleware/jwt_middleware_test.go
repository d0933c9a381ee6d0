package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"technova/config"
	"technova/models"
	"technova/utils"
)

func setupProtectedApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	app := fiber.New()
	app.Get("/me", Protected(db), func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)
		return c.JSON(fiber.Map{"email": user.Email})
	})
	return app, db
}

func TestProtectedWithBearerToken(t *testing.T) {
	app, db := setupProtectedApp(t)

	user := models.User{Email: "auth@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	access, _, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedWithCookie(t *testing.T) {
	app, db := setupProtectedApp(t)

	user := models.User{Email: "cookie@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	access, _, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRejectsMissingOrBadTokens(t *testing.T) {
	app, db := setupProtectedApp(t)

	user := models.User{Email: "reject@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	// No credentials at all
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Malformed header
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Garbage token
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRejectsRevokedToken(t *testing.T) {
	app, db := setupProtectedApp(t)

	user := models.User{Email: "revoked@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	access, _, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	// Logout bumps the version, revoking the token
	require.NoError(t, db.Model(&user).Update("token_version", user.TokenVersion+1).Error)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRejectsInactiveUser(t *testing.T) {
	app, db := setupProtectedApp(t)

	user := models.User{Email: "inactive@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	access, _, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	require.NoError(t, db.Model(&user).Update("is_active", false).Error)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
