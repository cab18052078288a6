package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicore/auth-service/pkg/errors"
	"github.com/clinicore/auth-service/pkg/password"
	"github.com/clinicore/auth-service/pkg/user"
)

// Service handles account registration and profile reads/updates.
type Service struct {
	users  user.Repository
	hasher password.Hasher
}

// NewService creates a new profile service
func NewService(users user.Repository, hasher password.Hasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// RegisterParams are the fields accepted when registering a local account.
// Password arrives in the clear and is hashed here; it is never stored or
// logged as-is.
type RegisterParams struct {
	DocumentType   int
	DocumentNumber string
	FirstName      string
	LastName       string
	Email          string
	Password       string
	Phone          string
	Address        string
	BirthDate      *time.Time
	Gender         string
	RoleID         int
	SiteID         *int64
}

// Register creates a local account with a hashed password. The role defaults
// to patient when unset.
func (s *Service) Register(ctx context.Context, params RegisterParams) (user.User, error) {
	if _, err := s.users.FindByEmail(ctx, params.Email); err == nil {
		return user.User{}, errors.New(errors.ErrCodeAlreadyExists, "email already registered")
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	roleID := params.RoleID
	if roleID == 0 {
		roleID = user.RolePatient
	}

	u, err := s.users.Create(ctx, user.CreateUserParams{
		DocumentType:   params.DocumentType,
		DocumentNumber: params.DocumentNumber,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		PasswordHash:   hash,
		Phone:          params.Phone,
		Address:        params.Address,
		BirthDate:      params.BirthDate,
		Gender:         params.Gender,
		RoleID:         roleID,
		SiteID:         params.SiteID,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to create user")
	}
	slog.Info("registered user", "userID", u.ID, "roleID", u.RoleID)
	return u, nil
}

// GetProfile returns the account for the given user ID
func (s *Service) GetProfile(ctx context.Context, userID int64) (user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errors.New(errors.ErrCodeUserNotFound, "user not found")
		}
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to load user")
	}
	return u, nil
}

// Update applies the non-nil fields to the account and returns the result
func (s *Service) Update(ctx context.Context, userID int64, params user.UpdateUserParams) (user.User, error) {
	if err := s.users.UpdateUser(ctx, userID, params); err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errors.New(errors.ErrCodeUserNotFound, "user not found")
		}
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to update user")
	}
	return s.GetProfile(ctx, userID)
}
