package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/Dosada05/gamejam/services"
)

// multipart parts above this size spill to temporary files.
const multipartMemory = 8 << 20

type SubmissionHandler struct {
	submissionService services.SubmissionService
}

func NewSubmissionHandler(ss services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

// CreateSubmission godoc
// @Summary Submit a game for a team
// @Description Accepts JSON or multipart/form-data with fields title, description, link and an optional "artifact" file.
// @Tags submissions
// @Accept json,mpfd
// @Produce json
// @Param teamID path int true "Team ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string "not a member of the team"
// @Security BearerAuth
// @Router /teams/{teamID}/submissions [post]
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSubmissionInput
	var artifact *services.Artifact

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, services.MaxArtifactSize+multipartMemory)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid multipart body: %w", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		input.Title = r.FormValue("title")
		input.Description = r.FormValue("description")
		if link := r.FormValue("link"); link != "" {
			input.Link = &link
		}

		file, header, err := r.FormFile("artifact")
		switch {
		case err == nil:
			defer file.Close()
			artifact = &services.Artifact{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		case !errors.Is(err, http.ErrMissingFile):
			badRequestResponse(w, r, fmt.Errorf("invalid artifact upload: %w", err))
			return
		}
		if err := input.Validate(); err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
	} else if !decodeAndValidate(w, r, &input) {
		return
	}

	sub, err := h.submissionService.Create(r.Context(), actor, teamID, input, artifact)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": sub}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var teamID *int
	if raw := r.URL.Query().Get("team_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid team_id: %q", raw))
			return
		}
		teamID = &id
	}

	list, err := h.submissionService.List(r.Context(), actor, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"submissions": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubmissionHandler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "submissionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.submissionService.Delete(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
