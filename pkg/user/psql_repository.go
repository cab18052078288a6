package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both a pgx pool and a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL user repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	id, document_type, document_number, first_name, last_name, email,
	password_hash, phone, address, birth_date, gender, role_id, site_id,
	status, email_verified, apple_user_id, registered_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var gender, appleUserID sql.NullString
	err := row.Scan(
		&u.ID, &u.DocumentType, &u.DocumentNumber, &u.FirstName, &u.LastName,
		&u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.BirthDate,
		&gender, &u.RoleID, &u.SiteID, &u.Status, &u.EmailVerified,
		&appleUserID, &u.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Gender = gender.String
	u.AppleUserID = appleUserID.String
	return u, nil
}

// FindByEmail retrieves a user by email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// FindByID retrieves a user by its numeric ID
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// FindByProviderID retrieves a user by its linked provider identifier
func (r *PostgresRepository) FindByProviderID(ctx context.Context, providerUserID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE apple_user_id = $1 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, providerUserID))
}

// Create registers a new local account
func (r *PostgresRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (
			document_type, document_number, first_name, last_name, email,
			password_hash, phone, address, birth_date, gender, role_id,
			site_id, status, email_verified, registered_at
		) VALUES (
			$1, $2, $3, $4, lower($5), $6, $7, $8, $9, $10, $11, $12, $13, false, $14
		) RETURNING ` + userColumns
	var gender interface{}
	if params.Gender != "" {
		gender = params.Gender
	}
	return scanUser(r.db.QueryRow(ctx, query,
		params.DocumentType, params.DocumentNumber, params.FirstName,
		params.LastName, params.Email, params.PasswordHash, params.Phone,
		params.Address, params.BirthDate, gender, params.RoleID,
		params.SiteID, StatusActive, time.Now().UTC(),
	))
}

// CreateFromProvider provisions an account from a federated identity
func (r *PostgresRepository) CreateFromProvider(ctx context.Context, params CreateFromProviderParams) (User, error) {
	query := `
		INSERT INTO users (
			document_type, document_number, first_name, last_name, email,
			password_hash, phone, address, role_id, status, email_verified,
			apple_user_id, registered_at
		) VALUES (
			0, '', $1, $2, lower($3), '', '', '', $4, $5, $6, $7, $8
		) RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Email, RolePatient,
		StatusActive, params.EmailVerified, params.ProviderUserID,
		time.Now().UTC(),
	))
}

// LinkProviderAccount associates a provider identifier with an existing user
func (r *PostgresRepository) LinkProviderAccount(ctx context.Context, userID int64, providerUserID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET apple_user_id = $1 WHERE id = $2`,
		providerUserID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to link provider account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash for a user
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUser applies the non-nil profile fields to a user
func (r *PostgresRepository) UpdateUser(ctx context.Context, userID int64, params UpdateUserParams) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			first_name = COALESCE($1, first_name),
			last_name  = COALESCE($2, last_name),
			email      = COALESCE(lower($3), email),
			phone      = COALESCE($4, phone),
			address    = COALESCE($5, address),
			site_id    = COALESCE($6, site_id),
			status     = COALESCE($7, status)
		WHERE id = $8`,
		params.FirstName, params.LastName, params.Email, params.Phone,
		params.Address, params.SiteID, params.Status, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
