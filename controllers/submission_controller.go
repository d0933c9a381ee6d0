package controller

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

// TeamMemberView is the member shape returned by the team-check endpoint.
type TeamMemberView struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	IsCurrentUser bool   `json:"is_current_user"`
}

type SubmissionController struct {
	DB      *gorm.DB
	Storage utils.Storage
	Logger  *log.Logger
}

func NewSubmissionController(db *gorm.DB, storage utils.Storage, logger *log.Logger) *SubmissionController {
	return &SubmissionController{DB: db, Storage: storage, Logger: logger}
}

// TeamCheck reports whether the caller has a team for the track, who is on
// it, and which submission currently represents the team (or the caller
// alone, when they have no team).
func (sc *SubmissionController) TeamCheck(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	eventType := c.Query("event_type")
	if !models.ValidEventType(eventType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "event_type must be paper-presentation or ideathon",
		})
	}

	_, team, err := models.ActiveMembership(sc.DB, user.ID, eventType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp := fiber.Map{"has_team": false}
		if sub, err := models.ActiveUserSubmission(sc.DB, user.ID, eventType); err == nil {
			resp["existing_submission"] = sub
		}
		return c.JSON(resp)
	}
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_check"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check team",
		})
	}

	var members []models.TeamMember
	if err := sc.DB.Where("team_id = ?", team.ID).Order("joined_at asc").Find(&members).Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_check"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load team members",
		})
	}

	views := make([]TeamMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, TeamMemberView{
			Name:          m.Name,
			Email:         m.Email,
			Role:          m.Role,
			IsCurrentUser: m.UserID == user.ID,
		})
	}

	resp := fiber.Map{
		"has_team": true,
		"team":     team,
		"members":  views,
	}

	if sub, err := models.ActiveTeamSubmission(sc.DB, team.ID, eventType); err == nil {
		resp["existing_submission"] = sub

		// Two authoritative rows is a bug state the write path prevents;
		// the oldest one was returned, but make the anomaly visible.
		var active int64
		sc.DB.Model(&models.Submission{}).
			Where("team_id = ? AND event_type = ? AND final_submission = ? AND status <> ?",
				team.ID, eventType, true, models.SubmissionStatusOverridden).
			Count(&active)
		if active > 1 {
			sc.Logger.Printf("WARNING: team %d has %d active submissions for %s", team.ID, active, eventType)
		}
	}

	return c.JSON(resp)
}

// Upload creates or updates the caller's entry for a track. In a team
// context a teammate's authoritative entry is overridden atomically as the
// new one takes its place.
func (sc *SubmissionController) Upload(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	eventType := c.FormValue("event_type")
	if !models.ValidEventType(eventType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "event_type must be paper-presentation or ideathon",
		})
	}

	title := c.FormValue("title")
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Title is required",
		})
	}
	description := c.FormValue("description")

	ok, err := models.HasVerifiedPass(sc.DB, user.ID, models.PassTypeForEvent(eventType))
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "submission_upload"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check pass",
		})
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You need a verified pass for " + eventType + " to submit",
		})
	}

	// Resolve the record being updated, if any
	var existing *models.Submission
	if idStr := c.FormValue("submission_id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid submission_id",
			})
		}
		var sub models.Submission
		if err := sc.DB.Where("id = ? AND user_id = ? AND event_type = ?", id, user.ID, eventType).
			First(&sub).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Submission not found",
			})
		}
		existing = &sub
	} else {
		var sub models.Submission
		err := sc.DB.Where("user_id = ? AND event_type = ? AND status <> ?",
			user.ID, eventType, models.SubmissionStatusOverridden).First(&sub).Error
		if err == nil {
			existing = &sub
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to check existing submission",
			})
		}
	}

	// Reviewed, accepted and rejected records belong to the review pipeline;
	// a new upload cannot reopen them.
	if existing != nil && !existing.Withdrawable() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A " + existing.Status + " submission can no longer be changed",
		})
	}

	// File is mandatory on create, optional on update
	fileHeader, fileErr := c.FormFile("file")
	if fileErr != nil && existing == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A file is required for a new submission",
		})
	}

	var fileURL, fileName string
	var fileSize int64
	if fileErr == nil {
		if err := utils.ValidateSubmissionFile(eventType, fileHeader.Filename, fileHeader.Size); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to read file",
			})
		}
		defer file.Close()

		fileURL, err = sc.Storage.Upload(fileHeader.Filename, file)
		if err != nil {
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to store file",
			})
		}
		fileName = fileHeader.Filename
		fileSize = fileHeader.Size
	}

	// Team context is resolved before the write so the override and the new
	// authoritative entry land in one transaction.
	var team *models.Team
	if _, t, err := models.ActiveMembership(sc.DB, user.ID, eventType); err == nil {
		team = t
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CaptureError(err, map[string]string{"op": "submission_upload"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check team",
		})
	}

	now := time.Now()
	tx := sc.DB.Begin()

	if team != nil {
		if err := models.BumpTeamVersion(tx, team); err != nil {
			tx.Rollback()
			if errors.Is(err, models.ErrTeamModified) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"message": "A teammate is submitting at the same time, please try again",
				})
			}
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to submit",
			})
		}

		// A teammate's authoritative entry yields to this one
		var teammate models.Submission
		err := tx.Where(
			"team_id = ? AND event_type = ? AND final_submission = ? AND status <> ? AND user_id <> ?",
			team.ID, eventType, true, models.SubmissionStatusOverridden, user.ID,
		).First(&teammate).Error
		if err == nil {
			overrides := map[string]interface{}{
				"status":           models.SubmissionStatusOverridden,
				"final_submission": false,
			}
			if err := tx.Model(&models.Submission{}).Where("id = ?", teammate.ID).Updates(overrides).Error; err != nil {
				tx.Rollback()
				utils.CaptureError(err, map[string]string{"op": "submission_upload"})
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Failed to submit",
				})
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to submit",
			})
		}
	}

	var submission models.Submission
	if existing != nil {
		existing.Title = title
		existing.Description = description
		existing.Status = models.SubmissionStatusSubmitted
		existing.SubmittedAt = &now
		existing.FinalSubmission = true
		if fileURL != "" {
			existing.FileURL = fileURL
			existing.FileName = fileName
			existing.FileSize = fileSize
		}
		if team != nil {
			existing.IsTeamSubmission = true
			existing.TeamID = &team.ID
		} else {
			existing.IsTeamSubmission = false
			existing.TeamID = nil
		}

		if err := tx.Save(existing).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to submit",
			})
		}
		submission = *existing
	} else {
		submission = models.Submission{
			UserID:          user.ID,
			EventType:       eventType,
			Status:          models.SubmissionStatusSubmitted,
			Title:           title,
			Description:     description,
			FileURL:         fileURL,
			FileName:        fileName,
			FileSize:        fileSize,
			FinalSubmission: true,
			SubmittedAt:     &now,
		}
		if team != nil {
			submission.IsTeamSubmission = true
			submission.TeamID = &team.ID
		}

		if err := tx.Create(&submission).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "submission_upload"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to submit",
			})
		}
	}

	if err := tx.Commit().Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "submission_upload"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to submit",
		})
	}

	utils.LogEvent("submission_uploaded", map[string]interface{}{
		"submission_id": submission.ID,
		"user_id":       user.ID,
		"event_type":    eventType,
		"team":          team != nil,
	})

	return c.JSON(fiber.Map{
		"submission": submission,
	})
}

// Withdraw deletes the caller's active entry for a track. Only drafts and
// submitted entries can go; reviewed, accepted, rejected and overridden
// records are final.
func (sc *SubmissionController) Withdraw(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req struct {
		EventType string `json:"event_type" validate:"required,oneof=paper-presentation ideathon"`
	}
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

	sub, err := models.ActiveUserSubmission(sc.DB, user.ID, req.EventType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No submission to withdraw",
		})
	}
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "submission_withdraw"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to look up submission",
		})
	}

	if !sub.Withdrawable() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A " + sub.Status + " submission cannot be withdrawn",
		})
	}

	// Blob delete is best-effort; the record removal is what the user sees
	if sub.FileURL != "" {
		if err := sc.Storage.Delete(sub.FileURL); err != nil {
			sc.Logger.Printf("Failed to delete file %s for submission %d: %v", sub.FileURL, sub.ID, err)
		}
	}

	tx := sc.DB.Begin()
	if err := tx.Where("submission_id = ?", sub.ID).Delete(&models.SubmissionReview{}).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "submission_withdraw"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to withdraw submission",
		})
	}
	if err := tx.Delete(&models.Submission{}, sub.ID).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "submission_withdraw"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to withdraw submission",
		})
	}
	if err := tx.Commit().Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "submission_withdraw"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to withdraw submission",
		})
	}

	utils.LogEvent("submission_withdrawn", map[string]interface{}{
		"submission_id": sub.ID,
		"user_id":       user.ID,
		"event_type":    req.EventType,
	})

	return c.JSON(fiber.Map{
		"message": "Submission withdrawn",
	})
}

// GetMySubmissions lists the caller's submissions with any reviews attached.
func (sc *SubmissionController) GetMySubmissions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var subs []models.Submission
	if err := sc.DB.Preload("Reviews").Where("user_id = ?", user.ID).
		Order("created_at desc").Find(&subs).Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "submission_list"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load submissions",
		})
	}

	return c.JSON(fiber.Map{
		"submissions": subs,
	})
}
