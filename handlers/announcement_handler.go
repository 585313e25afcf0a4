package handlers

import (
	"net/http"

	"github.com/Dosada05/gamejam/services"
)

type AnnouncementHandler struct {
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(as services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: as}
}

// ListPublished godoc
// @Summary Published announcements, newest first
// @Tags announcements
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /announcements [get]
func (h *AnnouncementHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.announcementService.ListPublished(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"announcements": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	list, err := h.announcementService.ListAll(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"announcements": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var input services.AnnouncementInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a, err := h.announcementService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"announcement": a}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "announcementID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.AnnouncementInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a, err := h.announcementService.Update(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"announcement": a}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "announcementID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.announcementService.Delete(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
