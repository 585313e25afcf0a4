package models

import "time"

// MaxTeamMembers is the capacity ceiling enforced by team assignment.
const MaxTeamMembers = 4

type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	MemberCount     int    `json:"member_count"`
	SubmissionCount int    `json:"submission_count"`
	Members         []User `json:"members,omitempty"`
}

func (t *Team) Full() bool {
	return t.MemberCount >= MaxTeamMembers
}

// AssignResult reports the outcome of a capacity-constrained assignment.
type AssignResult struct {
	TeamID       int   `json:"team_id"`
	Assigned     []int `json:"assigned"`
	Skipped      []int `json:"skipped"`
	CapacityLeft int   `json:"capacity_left"`
}
