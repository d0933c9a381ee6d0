package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

type CreateTeamRequest struct {
	EventType string `json:"event_type" validate:"required,oneof=paper-presentation ideathon"`
	TeamName  string `json:"team_name" validate:"required,max=100"`
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code" validate:"required,len=6"`
}

type LeaveTeamRequest struct {
	TeamID uint `json:"team_id" validate:"required"`
}

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{DB: db, Logger: logger}
}

// requireEventPass enforces the entitlement gate: a verified pass matching
// the track (pass 2 for paper-presentation, pass 3 for ideathon). When the
// gate fails the response has already been written; the caller returns the
// error as-is.
func (tc *TeamController) requireEventPass(c *fiber.Ctx, userID uint, eventType string) (bool, error) {
	ok, err := models.HasVerifiedPass(tc.DB, userID, models.PassTypeForEvent(eventType))
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "pass_check"})
		return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check pass",
		})
	}
	if !ok {
		return false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You need a verified pass for " + eventType + " to do this",
		})
	}
	return true, nil
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
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

	if ok, err := tc.requireEventPass(c, user.ID, req.EventType); !ok {
		return err
	}

	// One active team per user per track
	if _, _, err := models.ActiveMembership(tc.DB, user.ID, req.EventType); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "You are already in a team for " + req.EventType,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CaptureError(err, map[string]string{"op": "team_create"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check team membership",
		})
	}

	team := models.Team{
		TeamName:   req.TeamName,
		EventType:  req.EventType,
		LeaderID:   user.ID,
		MaxMembers: models.MaxMembersForEvent(req.EventType),
		IsActive:   true,
	}

	// Invite codes collide rarely; retry generation a few times before
	// giving up. The unique index still catches a lost race on insert.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.GenerateInviteCode()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to generate invite code",
			})
		}
		var taken int64
		if err := tc.DB.Model(&models.Team{}).Where("invite_code = ?", code).Count(&taken).Error; err != nil {
			utils.CaptureError(err, map[string]string{"op": "team_create"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to generate invite code",
			})
		}
		if taken == 0 {
			team.InviteCode = code
			break
		}
	}
	if team.InviteCode == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Could not allocate an invite code, please try again",
		})
	}

	tx := tc.DB.Begin()

	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		// A lost race on the invite-code index is retryable; anything else
		// is a real failure
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Could not allocate an invite code, please try again",
			})
		}
		utils.CaptureError(err, map[string]string{"op": "team_create"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create team",
		})
	}

	member := models.TeamMember{
		TeamID:   team.ID,
		UserID:   user.ID,
		Name:     user.DisplayName(),
		Email:    user.Email,
		Role:     models.RoleLeader,
		JoinedAt: time.Now(),
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_create"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create team",
		})
	}

	if err := tx.Commit().Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_create"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create team",
		})
	}

	team.Members = []models.TeamMember{member}

	utils.LogEvent("team_created", map[string]interface{}{
		"team_id":    team.ID,
		"event_type": team.EventType,
		"leader_id":  user.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"team": team,
	})
}

func (tc *TeamController) JoinTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req JoinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	// Normalize before validating so "  ab12cd " passes the length check
	req.InviteCode = utils.NormalizeInviteCode(req.InviteCode)
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	code := req.InviteCode

	var team models.Team
	if err := tc.DB.Where("invite_code = ? AND is_active = ?", code, true).First(&team).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "No team found for that invite code",
		})
	}

	if ok, err := tc.requireEventPass(c, user.ID, team.EventType); !ok {
		return err
	}

	// Not already in this team
	var existing models.TeamMember
	if err := tc.DB.Where("team_id = ? AND user_id = ?", team.ID, user.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "You are already a member of this team",
		})
	}

	// Not in any other active team for the track
	if _, _, err := models.ActiveMembership(tc.DB, user.ID, team.EventType); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "You are already in a team for " + team.EventType,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check team membership",
		})
	}

	tx := tc.DB.Begin()

	var memberCount int64
	if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to join team",
		})
	}
	if memberCount >= int64(team.MaxMembers) {
		tx.Rollback()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Team is full",
		})
	}

	// The version swap serializes concurrent joins: the loser rolls back
	// instead of overshooting the capacity.
	if err := models.BumpTeamVersion(tx, &team); err != nil {
		tx.Rollback()
		if errors.Is(err, models.ErrTeamModified) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Team changed while joining, please try again",
			})
		}
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to join team",
		})
	}

	member := models.TeamMember{
		TeamID:   team.ID,
		UserID:   user.ID,
		Name:     user.DisplayName(),
		Email:    user.Email,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to join team",
		})
	}

	if err := tx.Commit().Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to join team",
		})
	}

	if err := tc.DB.Preload("Members").First(&team, team.ID).Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_join"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load team",
		})
	}

	utils.LogEvent("team_joined", map[string]interface{}{
		"team_id": team.ID,
		"user_id": user.ID,
	})

	return c.JSON(fiber.Map{
		"team": team,
	})
}

// LeaveTeam removes the caller from a team. Leadership passes to the
// earliest-joined remaining member; the team deactivates when empty. If the
// caller held the team's authoritative submission it is reset to an
// individual draft — the same rule on every leave path — and a remaining
// member re-establishes the team entry by submitting again.
func (tc *TeamController) LeaveTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req LeaveTeamRequest
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

	var team models.Team
	if err := tc.DB.First(&team, req.TeamID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Team not found",
		})
	}

	var membership models.TeamMember
	if err := tc.DB.Where("team_id = ? AND user_id = ?", team.ID, user.ID).First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "You are not a member of this team",
		})
	}

	tx := tc.DB.Begin()

	if err := models.BumpTeamVersion(tx, &team); err != nil {
		tx.Rollback()
		if errors.Is(err, models.ErrTeamModified) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Team changed while leaving, please try again",
			})
		}
		utils.CaptureError(err, map[string]string{"op": "team_leave"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to leave team",
		})
	}

	var remaining []models.TeamMember
	if err := tx.Where("team_id = ? AND user_id <> ?", team.ID, user.ID).
		Order("joined_at asc").Find(&remaining).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_leave"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to leave team",
		})
	}

	// Leadership transfers before the member row is removed
	if membership.Role == models.RoleLeader && len(remaining) > 0 {
		next := remaining[0]
		if err := tx.Model(&models.TeamMember{}).Where("id = ?", next.ID).
			Update("role", models.RoleLeader).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "team_leave"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to transfer leadership",
			})
		}
		if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("leader_id", next.UserID).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "team_leave"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to transfer leadership",
			})
		}
	}

	if err := tx.Delete(&membership).Error; err != nil {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_leave"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to leave team",
		})
	}

	if len(remaining) == 0 {
		if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("is_active", false).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "team_leave"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to leave team",
			})
		}
	}

	// If the leaver held the team's authoritative submission, turn it back
	// into an individual draft. They keep their own copy; the team entry is
	// gone until a remaining member submits again.
	var teamSub models.Submission
	err := tx.Where(
		"user_id = ? AND team_id = ? AND is_team_submission = ? AND final_submission = ? AND status <> ?",
		user.ID, team.ID, true, true, models.SubmissionStatusOverridden,
	).First(&teamSub).Error
	if err == nil {
		updates := map[string]interface{}{
			"is_team_submission": false,
			"team_id":            nil,
			"status":             models.SubmissionStatusDraft,
			"final_submission":   true,
		}
		if err := tx.Model(&models.Submission{}).Where("id = ?", teamSub.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			utils.CaptureError(err, map[string]string{"op": "team_leave"})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to leave team",
			})
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		utils.CaptureError(err, map[string]string{"op": "team_leave"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to leave team",
		})
	}

	if err := tx.Commit().Error; err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_leave"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to leave team",
		})
	}

	utils.LogEvent("team_left", map[string]interface{}{
		"team_id":   team.ID,
		"user_id":   user.ID,
		"dissolved": len(remaining) == 0,
	})

	return c.JSON(fiber.Map{
		"message": "You have left the team",
	})
}

// GetMyTeams lists the caller's active teams across both tracks.
func (tc *TeamController) GetMyTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var teams []models.Team
	err := tc.DB.Preload("Members").
		Joins("JOIN team_members ON team_members.team_id = teams.id AND team_members.deleted_at IS NULL").
		Where("team_members.user_id = ? AND teams.is_active = ?", user.ID, true).
		Find(&teams).Error
	if err != nil {
		utils.CaptureError(err, map[string]string{"op": "team_list"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load teams",
		})
	}

	return c.JSON(fiber.Map{
		"teams": teams,
	})
}
