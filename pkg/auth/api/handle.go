package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/clinicore/auth-service/pkg/auth"
	"github.com/clinicore/auth-service/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// AuthHandler handles HTTP requests for the authentication flows
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the request body for requesting a reset code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyResetCodeRequest represents the request body for exchanging a reset code
type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest represents the request body for completing a reset.
// The reset token may arrive in the body or as a bearer token.
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken,omitempty"`
	NewPassword string `json:"newPassword"`
}

// GoogleLoginRequest represents the request body for Google federated login
type GoogleLoginRequest struct {
	TokenID string `json:"tokenId"`
}

// OkResponse represents a generic success response
type OkResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Ok      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if !emailPattern.MatchString(req.Email) {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "a valid email is required"))
		return
	}
	if len(req.Password) < 6 {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "password must be at least 6 characters"))
		return
	}

	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// ForgotPassword handles reset-code requests. The response is identical for
// every input so it cannot be used to probe registered emails.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if !emailPattern.MatchString(req.Email) {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "a valid email is required"))
		return
	}

	h.authService.ForgotPassword(r.Context(), req.Email)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, OkResponse{Ok: true, Message: "If the email exists, a reset code has been sent"})
}

// VerifyResetCode exchanges a valid code for a reset-scoped token
func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyResetCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if !emailPattern.MatchString(req.Email) {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "a valid email is required"))
		return
	}
	if !codePattern.MatchString(req.Code) {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "code must be 6 digits"))
		return
	}

	res, err := h.authService.VerifyResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// ResetPassword completes the reset flow
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	token := req.ResetToken
	if bearer := bearerToken(r); bearer != "" {
		token = bearer
	}
	if token == "" {
		renderError(w, r, errors.New(errors.ErrCodeResetTokenInvalid, "missing reset token"))
		return
	}
	if len(req.NewPassword) < 8 {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "password must be at least 8 characters"))
		return
	}

	if err := h.authService.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, OkResponse{Ok: true, Message: "Password updated"})
}

// GoogleLogin handles Google federated login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	res, err := h.authService.GoogleLogin(r.Context(), req.TokenID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// BiometricLogin handles Apple biometric login
func (h *AuthHandler) BiometricLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.BiometricLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	res, err := h.authService.BiometricLogin(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// Handler returns a http.Handler for the auth API
func Handler(h *AuthHandler) http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-reset-code", h.VerifyResetCode)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/google", h.GoogleLogin)
	r.Post("/biometric-login", h.BiometricLogin)

	return r
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// renderError maps a service error onto the wire format. Internal causes are
// logged but never leaked to the client.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("auth request failed", "path", r.URL.Path, "err", err)
	}

	message := "internal error"
	var appErr *errors.Error
	if stderrors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Ok: false, Code: string(code), Message: message})
}
