package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// InMemRepository implements Repository using in-memory maps. Useful for
// development, demos and tests; all data is lost when the process stops.
type InMemRepository struct {
	mu         sync.Mutex
	users      map[int64]User
	byEmail    map[string]int64
	byProvider map[string]int64
	nextID     int64
}

// NewInMemRepository creates a new in-memory user repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		users:      make(map[int64]User),
		byEmail:    make(map[string]int64),
		byProvider: make(map[string]int64),
		nextID:     1,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail retrieves a user by email
func (r *InMemRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

// FindByID retrieves a user by its numeric ID
func (r *InMemRepository) FindByID(ctx context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// FindByProviderID retrieves a user by its linked provider identifier
func (r *InMemRepository) FindByProviderID(ctx context.Context, providerUserID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byProvider[providerUserID]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

// Create registers a new local account
func (r *InMemRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(params.Email)
	if _, exists := r.byEmail[email]; exists {
		return User{}, errors.New("email already registered")
	}

	u := User{
		ID:             r.nextID,
		DocumentType:   params.DocumentType,
		DocumentNumber: params.DocumentNumber,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          email,
		PasswordHash:   params.PasswordHash,
		Phone:          params.Phone,
		Address:        params.Address,
		BirthDate:      params.BirthDate,
		Gender:         params.Gender,
		RoleID:         params.RoleID,
		SiteID:         params.SiteID,
		Status:         StatusActive,
		RegisteredAt:   time.Now().UTC(),
	}
	r.nextID++
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

// CreateFromProvider provisions an account from a federated identity
func (r *InMemRepository) CreateFromProvider(ctx context.Context, params CreateFromProviderParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(params.Email)
	if _, exists := r.byEmail[email]; exists {
		return User{}, errors.New("email already registered")
	}

	u := User{
		ID:            r.nextID,
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Email:         email,
		RoleID:        RolePatient,
		Status:        StatusActive,
		EmailVerified: params.EmailVerified,
		AppleUserID:   params.ProviderUserID,
		RegisteredAt:  time.Now().UTC(),
	}
	r.nextID++
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	if params.ProviderUserID != "" {
		r.byProvider[params.ProviderUserID] = u.ID
	}
	return u, nil
}

// LinkProviderAccount associates a provider identifier with an existing user
func (r *InMemRepository) LinkProviderAccount(ctx context.Context, userID int64, providerUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.AppleUserID = providerUserID
	r.users[userID] = u
	r.byProvider[providerUserID] = userID
	return nil
}

// UpdatePassword replaces the stored password hash for a user
func (r *InMemRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.users[userID] = u
	return nil
}

// UpdateUser applies the non-nil profile fields to a user
func (r *InMemRepository) UpdateUser(ctx context.Context, userID int64, params UpdateUserParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.Email != nil {
		newEmail := normalizeEmail(*params.Email)
		if newEmail != u.Email {
			if _, exists := r.byEmail[newEmail]; exists {
				return errors.New("email already registered")
			}
			delete(r.byEmail, u.Email)
			r.byEmail[newEmail] = userID
			u.Email = newEmail
		}
	}
	if params.Phone != nil {
		u.Phone = *params.Phone
	}
	if params.Address != nil {
		u.Address = *params.Address
	}
	if params.SiteID != nil {
		u.SiteID = params.SiteID
	}
	if params.Status != nil {
		u.Status = *params.Status
	}
	r.users[userID] = u
	return nil
}
