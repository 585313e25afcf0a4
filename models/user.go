package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleParticipant UserRole = "participant"
	RoleMentor      UserRole = "mentor"
	RoleJury        UserRole = "jury"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleParticipant, RoleMentor, RoleJury:
		return true
	}
	return false
}

// ProfileRole is the jam specialty a participant picks at registration.
type ProfileRole string

const (
	ProfileDeveloper ProfileRole = "developer"
	ProfileArtist    ProfileRole = "artist"
	ProfileDesigner  ProfileRole = "designer"
	ProfileAudio     ProfileRole = "audio"
	ProfileOther     ProfileRole = "other"
)

func (p ProfileRole) Valid() bool {
	switch p {
	case ProfileDeveloper, ProfileArtist, ProfileDesigner, ProfileAudio, ProfileOther:
		return true
	}
	return false
}

type User struct {
	ID           int          `json:"id"`
	Email        string       `json:"email"`
	Name         *string      `json:"name,omitempty"`
	PasswordHash *string      `json:"-"`
	CanLogin     bool         `json:"can_login"`
	TeamID       *int         `json:"team_id,omitempty"`
	Role         UserRole     `json:"role"`
	ProfileRole  *ProfileRole `json:"profile_role,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}

// DisplayName falls back to the local part of the email.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserFilter struct {
	Role   *UserRole
	TeamID *int
	Search string
	Page   int
	Limit  int
}

type UserListResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}
