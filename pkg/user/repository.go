package user

import (
	"context"
	"errors"
	"time"
)

// Clinic roles. RoleID on a user always holds one of these.
const (
	RolePatient  = 1
	RoleDoctor   = 2
	RoleOperator = 3
	RoleAdmin    = 4
)

// User statuses
const (
	StatusActive   = 1
	StatusDisabled = 0
)

// ErrNotFound is returned by repositories when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// User is a durable identity record. PasswordHash never leaves the trust
// boundary: it is read for verification and written on registration/reset
// only, and is never serialized into responses or tokens.
type User struct {
	ID             int64      `json:"id"`
	DocumentType   int        `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	RoleID         int        `json:"role_id"`
	SiteID         *int64     `json:"site_id,omitempty"`
	Status         int        `json:"status"`
	EmailVerified  bool       `json:"email_verified"`
	AppleUserID    string     `json:"-"`
	RegisteredAt   time.Time  `json:"registered_at"`
}

// FullName returns the display name of the user.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// CreateUserParams are the fields required to register a local account.
// PasswordHash must already be hashed by the caller.
type CreateUserParams struct {
	DocumentType   int
	DocumentNumber string
	FirstName      string
	LastName       string
	Email          string
	PasswordHash   string
	Phone          string
	Address        string
	BirthDate      *time.Time
	Gender         string
	RoleID         int
	SiteID         *int64
}

// CreateFromProviderParams are the fields available when provisioning an
// account from a federated identity assertion.
type CreateFromProviderParams struct {
	Email          string
	ProviderUserID string
	FirstName      string
	LastName       string
	EmailVerified  bool
}

// UpdateUserParams holds the mutable non-credential profile fields. Nil
// pointers leave the stored value unchanged.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	SiteID    *int64
	Status    *int
}

// Repository defines the durable identity store consumed by the
// authentication and profile services. The interface is total: every
// implementation provides all methods, there is no runtime capability
// probing.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByProviderID(ctx context.Context, providerUserID string) (User, error)
	Create(ctx context.Context, params CreateUserParams) (User, error)
	CreateFromProvider(ctx context.Context, params CreateFromProviderParams) (User, error)
	LinkProviderAccount(ctx context.Context, userID int64, providerUserID string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateUser(ctx context.Context, userID int64, params UpdateUserParams) error
}
