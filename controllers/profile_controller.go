package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

type UpdateProfileRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,min=10,max=15"`
	College     string `json:"college" validate:"required,max=200"`
	Department  string `json:"department" validate:"required,max=100"`
	YearOfStudy int    `json:"year_of_study" validate:"required,min=1,max=5"`
}

type ProfileController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewProfileController(db *gorm.DB, logger *log.Logger) *ProfileController {
	return &ProfileController{DB: db, Logger: logger}
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var withPasses models.User
	if err := pc.DB.Preload("Passes").First(&withPasses, user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load profile",
		})
	}

	return c.JSON(withPasses)
}

// UpdateProfile fills in the post-signup details and marks the profile
// complete once every field is present.
func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	user := c.Locals("user").(*models.User)

	user.Name = &req.Name
	user.Phone = &req.Phone
	user.College = &req.College
	user.Department = &req.Department
	user.YearOfStudy = &req.YearOfStudy
	user.ProfileComplete = true

	if err := pc.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update profile",
		})
	}

	return c.JSON(user)
}
