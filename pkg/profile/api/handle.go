package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/clinicore/auth-service/pkg/errors"
	"github.com/clinicore/auth-service/pkg/profile"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

// ProfileHandler handles HTTP requests for registration and profiles
type ProfileHandler struct {
	profileService *profile.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// RegisterRequest represents the request body for account registration
type RegisterRequest struct {
	DocumentType   int        `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	RoleID         int        `json:"role_id,omitempty"`
	SiteID         *int64     `json:"site_id,omitempty"`
}

// UpdateUserRequest represents the request body for a profile update. Absent
// fields leave the stored values unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	SiteID    *int64  `json:"site_id,omitempty"`
	Status    *int    `json:"status,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Ok      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Register handles account registration
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if req.Email == "" || len(req.Password) < 6 {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput,
			"email and a password of at least 6 characters are required"))
		return
	}

	var params profile.RegisterParams
	if err := copier.Copy(&params, &req); err != nil {
		renderError(w, r, errors.Wrap(err, errors.ErrCodeInternal, "failed to map request"))
		return
	}

	u, err := h.profileService.Register(r.Context(), params)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, u)
}

// Me returns the profile of the authenticated user
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := subjectUserID(r)
	if !ok {
		renderError(w, r, errors.New(errors.ErrCodeTokenInvalid, "invalid token subject"))
		return
	}

	u, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, u)
}

// UpdateUser updates a profile. Users may update themselves; admins may
// update anyone.
func (h *ProfileHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid user id"))
		return
	}

	requesterID, ok := subjectUserID(r)
	if !ok {
		renderError(w, r, errors.New(errors.ErrCodeTokenInvalid, "invalid token subject"))
		return
	}
	if requesterID != targetID && claimRoleID(r) != user.RoleAdmin {
		renderError(w, r, errors.New(errors.ErrCodeForbidden, "not allowed to update this user"))
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	var params user.UpdateUserParams
	if err := copier.Copy(&params, &req); err != nil {
		renderError(w, r, errors.Wrap(err, errors.ErrCodeInternal, "failed to map request"))
		return
	}

	u, err := h.profileService.Update(r.Context(), targetID, params)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, u)
}

// Handler returns a http.Handler for the profile API. tokenAuth guards the
// authenticated routes.
func Handler(h *ProfileHandler, tokenAuth *jwtauth.JWTAuth) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(RejectResetTokens)

		r.Get("/me", h.Me)
		r.Put("/{id}", h.UpdateUser)
	})

	return r
}

// RejectResetTokens blocks password-reset-scoped tokens from every
// authenticated route. A reset token proves code possession, not a login.
func RejectResetTokens(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			renderError(w, r, errors.New(errors.ErrCodeTokenInvalid, "invalid token"))
			return
		}
		if purpose, _ := claims["purpose"].(string); purpose == tokenauth.PurposePasswordReset {
			renderError(w, r, errors.New(errors.ErrCodeTokenInvalid, "reset tokens cannot access this resource"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// subjectUserID extracts the numeric user ID from the verified token subject
func subjectUserID(r *http.Request) (int64, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, false
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// claimRoleID extracts the role claim; JSON numbers decode as float64
func claimRoleID(r *http.Request) int {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0
	}
	switch v := claims["role_id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("profile request failed", "path", r.URL.Path, "err", err)
	}

	message := "internal error"
	var appErr *errors.Error
	if stderrors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Ok: false, Code: string(code), Message: message})
}
