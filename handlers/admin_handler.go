package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/services"
)

type AdminHandler struct {
	userService      services.AdminUserService
	authService      services.AuthService
	dashboardService services.DashboardService
}

func NewAdminHandler(us services.AdminUserService, as services.AuthService, ds services.DashboardService) *AdminHandler {
	return &AdminHandler{userService: us, authService: as, dashboardService: ds}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	stats, err := h.dashboardService.GetStats(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListUsers godoc
// @Summary List users
// @Tags admin-users
// @Produce json
// @Param role query string false "admin, participant, mentor or jury"
// @Param team_id query int false "Team"
// @Param q query string false "Email or name fragment"
// @Param page query int false "Page (from 1)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.UserListResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := models.UserFilter{Search: q.Get("q")}
	if v := q.Get("role"); v != "" {
		role := models.UserRole(v)
		filter.Role = &role
	}
	ints := map[string]*int{"page": &filter.Page, "limit": &filter.Limit}
	for name, dst := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				badRequestResponse(w, r, fmt.Errorf("invalid %s: %q", name, v))
				return
			}
			*dst = n
		}
	}
	if v := q.Get("team_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid team_id: %q", v))
			return
		}
		filter.TeamID = &id
	}

	resp, err := h.userService.ListUsers(r.Context(), actor, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var input services.InviteUserInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	user, err := h.authService.InviteUser(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
