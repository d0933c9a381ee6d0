package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrTeamModified is returned when a compare-and-swap on the team version
// loses to a concurrent writer. Callers surface it as a retryable conflict.
var ErrTeamModified = errors.New("team was modified concurrently")

// Competitive tracks
const (
	EventPaperPresentation = "paper-presentation"
	EventIdeathon          = "ideathon"
)

// Member roles. Exactly one member holds RoleLeader while the team is active.
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// Team capacities are fixed per track at creation time.
const (
	MaxMembersPaperPresentation = 10
	MaxMembersIdeathon          = 2
)

// Team represents a group of collaborators for one competitive track
type Team struct {
	gorm.Model
	TeamName  string `gorm:"not null" json:"team_name"`
	EventType string `gorm:"not null;index" json:"event_type"`
	LeaderID  uint   `gorm:"not null" json:"leader_id"`

	// InviteCode is stored uppercase; lookup is case-insensitive
	InviteCode string `gorm:"uniqueIndex;not null" json:"invite_code"`
	MaxMembers int    `gorm:"not null" json:"max_members"`

	// IsActive flips to false when the last member leaves. The row is kept
	// so invite codes stay unique and history survives.
	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// Version guards multi-step team mutations (join, leave, submission
	// override) with a compare-and-swap, so two concurrent writers cannot
	// both succeed.
	Version int `gorm:"default:0" json:"-"`

	// Relations
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember represents one user's membership in a team
type TeamMember struct {
	gorm.Model
	TeamID uint `gorm:"not null;index" json:"team_id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name     string    `json:"name"`
	Email    string    `gorm:"not null" json:"email"`
	Role     string    `gorm:"default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	// Relations
	Team Team `json:"-"`
	User User `json:"-"`
}

// BumpTeamVersion performs the compare-and-swap that serializes multi-step
// team mutations. The caller must run it inside the same transaction as the
// mutation it guards; ErrTeamModified means the whole transaction should be
// rolled back and retried.
func BumpTeamVersion(tx *gorm.DB, team *Team) error {
	res := tx.Model(&Team{}).
		Where("id = ? AND version = ?", team.ID, team.Version).
		Update("version", team.Version+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTeamModified
	}
	team.Version++
	return nil
}

// MaxMembersForEvent returns the fixed team capacity for a track.
func MaxMembersForEvent(eventType string) int {
	if eventType == EventIdeathon {
		return MaxMembersIdeathon
	}
	return MaxMembersPaperPresentation
}

// ValidEventType reports whether the given string names a competitive track.
func ValidEventType(eventType string) bool {
	return eventType == EventPaperPresentation || eventType == EventIdeathon
}

// ActiveMembership returns the user's membership in an active team for the
// track, or gorm.ErrRecordNotFound.
func ActiveMembership(db *gorm.DB, userID uint, eventType string) (*TeamMember, *Team, error) {
	var member TeamMember
	err := db.Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("team_members.user_id = ? AND teams.event_type = ? AND teams.is_active = ?", userID, eventType, true).
		First(&member).Error
	if err != nil {
		return nil, nil, err
	}

	var team Team
	if err := db.First(&team, member.TeamID).Error; err != nil {
		return nil, nil, err
	}
	return &member, &team, nil
}
