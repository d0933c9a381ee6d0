package controller

import (
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

// PassInfo describes one purchasable pass tier; the catalog is fixed for the
// fest edition.
type PassInfo struct {
	PassType    int    `json:"pass_type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int    `json:"amount"` // in rupees
}

var passCatalog = []PassInfo{
	{
		PassType:    models.PassTypeGeneral,
		Name:        "General Pass",
		Description: "Entry to all workshops, talks and exhibitions",
		Amount:      299,
	},
	{
		PassType:    models.PassTypePaperPresentation,
		Name:        "Paper Presentation Pass",
		Description: "Entry to the paper presentation track, team registration included",
		Amount:      499,
	},
	{
		PassType:    models.PassTypeIdeathon,
		Name:        "Ideathon Pass",
		Description: "Entry to the ideathon track, team registration included",
		Amount:      399,
	},
}

const maxScreenshotSize = 5 << 20 // 5MB

var screenshotExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type PassController struct {
	DB      *gorm.DB
	Storage utils.Storage
	Logger  *log.Logger
}

func NewPassController(db *gorm.DB, storage utils.Storage, logger *log.Logger) *PassController {
	return &PassController{DB: db, Storage: storage, Logger: logger}
}

func (pc *PassController) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"passes": passCatalog,
	})
}

func (pc *PassController) GetMyPasses(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var passes []models.Pass
	if err := pc.DB.Where("user_id = ?", user.ID).Order("created_at desc").Find(&passes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load passes",
		})
	}

	return c.JSON(fiber.Map{
		"passes": passes,
	})
}

// PurchasePass records a pass purchase with its payment screenshot. The pass
// stays pending until an operator verifies the screenshot out of band.
func (pc *PassController) PurchasePass(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	passType, err := strconv.Atoi(c.FormValue("pass_type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "pass_type is required",
		})
	}

	var info *PassInfo
	for i := range passCatalog {
		if passCatalog[i].PassType == passType {
			info = &passCatalog[i]
			break
		}
	}
	if info == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown pass type",
		})
	}

	// Reject duplicate purchases while one is pending or already verified
	var existing int64
	err = pc.DB.Model(&models.Pass{}).
		Where("user_id = ? AND pass_type = ? AND status IN ?", user.ID, passType,
			[]string{models.PassStatusPending, models.PassStatusVerified}).
		Count(&existing).Error
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "pass_purchase"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check existing passes",
		})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "You already have this pass or a pending purchase for it",
		})
	}

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Payment screenshot is required",
		})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed := false
	for _, a := range screenshotExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Screenshot must be an image (jpg, jpeg, png or webp)",
		})
	}
	if fileHeader.Size > maxScreenshotSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Screenshot exceeds the 5MB limit",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to read screenshot",
		})
	}
	defer file.Close()

	screenshotURL, err := pc.Storage.Upload(fileHeader.Filename, file)
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "pass_purchase"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to store screenshot",
		})
	}

	pass := models.Pass{
		UserID:         user.ID,
		PassType:       passType,
		Status:         models.PassStatusPending,
		ScreenshotURL:  screenshotURL,
		Amount:         info.Amount,
		TransactionRef: c.FormValue("transaction_ref"),
	}

	if err := pc.DB.Create(&pass).Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "pass_purchase"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to record purchase",
		})
	}

	utils.LogEvent("pass_purchased", map[string]interface{}{
		"user_id":   user.ID,
		"pass_type": passType,
		"amount":    info.Amount,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Purchase recorded. Your pass will be activated after payment verification.",
		"pass":    pass,
	})
}
