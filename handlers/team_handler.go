package handlers

import (
	"net/http"

	"github.com/Dosada05/gamejam/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// CreateTeam godoc
// @Summary Create a team
// @Tags admin-teams
// @Accept json
// @Produce json
// @Param input body services.CreateTeamInput true "Team"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "name taken"
// @Security BearerAuth
// @Router /admin/teams [post]
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var input services.CreateTeamInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), actor, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teams, err := h.teamService.ListTeams(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	users, err := h.teamService.ListUnassigned(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.CreateTeamInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	team, err := h.teamService.RenameTeam(r.Context(), actor, teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Assign godoc
// @Summary Assign participants to a team
// @Description Fills the team up to four members, taking candidates in request order.
// @Description A full team is not an error: every candidate is reported as skipped.
// @Tags admin-teams
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param input body services.TeamMembersInput true "Candidate user ids"
// @Success 200 {object} models.AssignResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/teams/{teamID}/assign [post]
func (h *TeamHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.TeamMembersInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	result, err := h.teamService.Assign(r.Context(), actor, teamID, input.UserIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Remove godoc
// @Summary Remove users from their teams
// @Tags admin-teams
// @Accept json
// @Produce json
// @Param input body services.TeamMembersInput true "User ids"
// @Success 200 {object} map[string]int
// @Security BearerAuth
// @Router /admin/teams/remove [post]
func (h *TeamHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var input services.TeamMembersInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	removed, err := h.teamService.Remove(r.Context(), actor, input.UserIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteTeam godoc
// @Summary Delete a team without submissions
// @Tags admin-teams
// @Produce json
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]int "members unlinked"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "team has submissions"
// @Security BearerAuth
// @Router /admin/teams/{teamID} [delete]
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	unlinked, err := h.teamService.DeleteTeam(r.Context(), actor, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"unlinked": unlinked}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
