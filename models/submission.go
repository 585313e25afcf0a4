package models

import "time"

type Submission struct {
	ID          int       `json:"id"`
	TeamID      int       `json:"team_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        *string   `json:"link,omitempty"`
	ArtifactKey *string   `json:"-"`
	ArtifactURL *string   `json:"artifact_url,omitempty"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	TeamName string `json:"team_name,omitempty"`
}
