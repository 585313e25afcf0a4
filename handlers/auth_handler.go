package handlers

import (
	"net/http"

	"github.com/Dosada05/gamejam/services"
)

const (
	resetRequestedMessage = "if the email is registered, a reset link has been sent"
	registeredMessage     = "check your inbox for a link to activate your account"
)

type AuthHandler struct {
	authService services.AuthService
	sessions    *services.SessionManager
}

func NewAuthHandler(authService services.AuthService, sessions *services.SessionManager) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// Register godoc
// @Summary Register as a participant
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.RegisterInput true "Registration"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.authService.Register(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"message": registeredMessage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.LoginInput true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSession(w, r, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Description The response is the same whether or not the address is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.ForgotPasswordInput true "Email"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input services.ForgotPasswordInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.authService.RequestPasswordReset(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"message": resetRequestedMessage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetPassword godoc
// @Summary Redeem a reset or activation token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.ResetPasswordInput true "Token and new password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "invalid or expired token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input services.ResetPasswordInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	result, err := h.authService.ResetPassword(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	http.SetCookie(w, h.sessions.Cookie(result.Token, result.ExpiresAt))
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": result.User}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Profile(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request, result *services.AuthResult) {
	http.SetCookie(w, h.sessions.Cookie(result.Token, result.ExpiresAt))
	response := jsonResponse{
		"user":       result.User,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
