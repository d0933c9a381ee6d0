package controller

import (
	"bytes"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

func newPassApp(db *gorm.DB, storage utils.Storage) *fiber.App {
	app := fiber.New()
	pc := NewPassController(db, storage, log.New(io.Discard, "", 0))

	app.Get("/passes/catalog", pc.GetCatalog)

	app.Use(testAuth(db))
	app.Get("/passes/mine", pc.GetMyPasses)
	app.Post("/passes/purchase", pc.PurchasePass)
	return app
}

func purchaseReq(t *testing.T, userID uint, passType int, fileName string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("pass_type", strconv.Itoa(passType)))
	require.NoError(t, w.WriteField("transaction_ref", "UPI-1234567890"))
	if fileName != "" {
		fw, err := w.CreateFormFile("screenshot", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/passes/purchase", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-User-ID", strconv.Itoa(int(userID)))
	return req
}

func TestGetCatalog(t *testing.T) {
	db := setupTestDB(t)
	app := newPassApp(db, &stubStorage{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/passes/catalog", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Len(t, body["passes"].([]interface{}), 3)
}

func TestPurchasePass(t *testing.T) {
	db := setupTestDB(t)
	storage := &stubStorage{}
	app := newPassApp(db, storage)

	user := createTestUser(t, db, "buyer@test.com", "Buyer")

	resp, err := app.Test(purchaseReq(t, user.ID, models.PassTypeIdeathon, "payment.png"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var pass models.Pass
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&pass).Error)
	assert.Equal(t, models.PassStatusPending, pass.Status)
	assert.Equal(t, 399, pass.Amount)
	assert.Equal(t, "UPI-1234567890", pass.TransactionRef)
	assert.Len(t, storage.uploads, 1)
}

func TestPurchasePassDuplicate(t *testing.T) {
	db := setupTestDB(t)
	app := newPassApp(db, &stubStorage{})

	user := createTestUser(t, db, "buyer@test.com", "Buyer")

	resp, err := app.Test(purchaseReq(t, user.ID, models.PassTypeGeneral, "payment.jpg"), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// A second purchase while the first is pending is rejected
	resp, err = app.Test(purchaseReq(t, user.ID, models.PassTypeGeneral, "payment.jpg"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// A rejected purchase can be retried
	require.NoError(t, db.Model(&models.Pass{}).
		Where("user_id = ?", user.ID).
		Update("status", models.PassStatusRejected).Error)

	resp, err = app.Test(purchaseReq(t, user.ID, models.PassTypeGeneral, "payment.jpg"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestPurchasePassValidation(t *testing.T) {
	db := setupTestDB(t)
	app := newPassApp(db, &stubStorage{})

	user := createTestUser(t, db, "buyer@test.com", "Buyer")

	// Unknown tier
	resp, err := app.Test(purchaseReq(t, user.ID, 99, "payment.png"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Missing screenshot
	resp, err = app.Test(purchaseReq(t, user.ID, models.PassTypeGeneral, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Screenshot must be an image
	resp, err = app.Test(purchaseReq(t, user.ID, models.PassTypeGeneral, "payment.pdf"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetMyPasses(t *testing.T) {
	db := setupTestDB(t)
	app := newPassApp(db, &stubStorage{})

	user := createTestUser(t, db, "buyer@test.com", "Buyer")
	grantVerifiedPass(t, db, user.ID, models.PassTypeIdeathon)

	req := httptest.NewRequest(http.MethodGet, "/passes/mine", nil)
	req.Header.Set("X-User-ID", strconv.Itoa(int(user.ID)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Len(t, body["passes"].([]interface{}), 1)
}
