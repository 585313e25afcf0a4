package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/gamejam/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(ms services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: ms}
}

func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	inbox, err := h.messageService.Inbox(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"conversations": inbox}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	otherID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid limit: %q", raw))
			return
		}
	}

	messages, err := h.messageService.Conversation(r.Context(), actor, otherID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": messages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Send godoc
// @Summary Send a private message
// @Tags messages
// @Accept json
// @Produce json
// @Param userID path int true "Recipient"
// @Param input body services.SendMessageInput true "Message"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /messages/{userID} [post]
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	recipientID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.SendMessageInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), actor, recipientID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": msg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	otherID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	n, err := h.messageService.MarkRead(r.Context(), actor, otherID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"marked": n}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
