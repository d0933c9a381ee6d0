package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission statuses. Reviewed, accepted, rejected and overridden are
// terminal for user-initiated transitions; only draft and submitted entries
// can be withdrawn.
const (
	SubmissionStatusDraft      = "draft"
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusReviewed   = "reviewed"
	SubmissionStatusAccepted   = "accepted"
	SubmissionStatusRejected   = "rejected"
	SubmissionStatusOverridden = "overridden"
)

// Submission represents one entrant's competition entry. It is a first-class
// row with foreign keys to the owning user and (for team entries) the team,
// so the authoritative entry for a team is found with a single query instead
// of walking every member.
type Submission struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	EventType string `gorm:"not null;index" json:"event_type"`

	Status      string `gorm:"default:'draft';index" json:"status"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`

	// FinalSubmission marks the record as the currently active entry for its
	// owner (and, when IsTeamSubmission, for the whole team).
	FinalSubmission  bool  `gorm:"default:false;index" json:"final_submission"`
	IsTeamSubmission bool  `gorm:"default:false" json:"is_team_submission"`
	TeamID           *uint `gorm:"index" json:"team_id,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// Relations
	User    User               `json:"-"`
	Team    *Team              `json:"-"`
	Reviews []SubmissionReview `gorm:"foreignKey:SubmissionID" json:"reviews,omitempty"`
}

// SubmissionReview is appended by reviewers through tooling outside this
// service; it is read-only here and removed with its submission.
type SubmissionReview struct {
	gorm.Model
	SubmissionID uint `gorm:"not null;index" json:"submission_id"`

	ReviewerName string    `gorm:"not null" json:"reviewer_name"`
	Score        int       `json:"score"`
	Comments     string    `gorm:"type:text" json:"comments"`
	ReviewedAt   time.Time `json:"reviewed_at"`

	// Relations
	Submission Submission `json:"-"`
}

// Withdrawable reports whether the submission may still be withdrawn by its
// owner.
func (s *Submission) Withdrawable() bool {
	return s.Status == SubmissionStatusDraft || s.Status == SubmissionStatusSubmitted
}

// ActiveTeamSubmission returns the authoritative entry for a team and track:
// final, not overridden. When more than one row matches (a state the write
// path prevents but the store does not), the oldest wins so the result is
// deterministic.
func ActiveTeamSubmission(db *gorm.DB, teamID uint, eventType string) (*Submission, error) {
	var sub Submission
	err := db.Where(
		"team_id = ? AND event_type = ? AND final_submission = ? AND status <> ?",
		teamID, eventType, true, SubmissionStatusOverridden,
	).Order("created_at asc").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ActiveUserSubmission returns the user's own active entry for a track.
func ActiveUserSubmission(db *gorm.DB, userID uint, eventType string) (*Submission, error) {
	var sub Submission
	err := db.Where(
		"user_id = ? AND event_type = ? AND final_submission = ? AND status <> ?",
		userID, eventType, true, SubmissionStatusOverridden,
	).Order("created_at asc").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
