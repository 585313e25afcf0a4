package models

type DashboardStats struct {
	UsersTotal       int `json:"users_total"`
	Participants     int `json:"participants"`
	ActivatedUsers   int `json:"activated_users"`
	TeamsTotal       int `json:"teams_total"`
	FullTeams        int `json:"full_teams"`
	SubmissionsTotal int `json:"submissions_total"`
	UnreadMessages   int `json:"unread_messages"`
}
