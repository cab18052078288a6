package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemRepository_CreateAndLookups(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		DocumentType:   1,
		DocumentNumber: "12345678",
		FirstName:      "Ana",
		LastName:       "Gomez",
		Email:          "Ana@Example.com",
		PasswordHash:   "$2a$10$hash",
		RoleID:         RolePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "ana@example.com", created.Email, "emails are stored normalized")
	assert.Equal(t, StatusActive, created.Status)

	byEmail, err := repo.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx, CreateUserParams{Email: "ana@example.com"})
	assert.Error(t, err, "duplicate email must be rejected")
}

func TestInMemRepository_ProviderProvisioningAndLinking(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.CreateFromProvider(ctx, CreateFromProviderParams{
		Email:          "apple-user@privaterelay.appleid.com",
		ProviderUserID: "001234.abcdef",
		FirstName:      "iOS",
		LastName:       "User",
		EmailVerified:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, RolePatient, created.RoleID)
	assert.True(t, created.EmailVerified)

	byProvider, err := repo.FindByProviderID(ctx, "001234.abcdef")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byProvider.ID)

	// Linking an existing local account to a provider identifier.
	local, err := repo.Create(ctx, CreateUserParams{
		Email:        "local@example.com",
		PasswordHash: "$2a$10$hash",
		RoleID:       RolePatient,
	})
	require.NoError(t, err)

	err = repo.LinkProviderAccount(ctx, local.ID, "009999.fedcba")
	require.NoError(t, err)

	linked, err := repo.FindByProviderID(ctx, "009999.fedcba")
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)
}

func TestInMemRepository_UpdatePassword(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		Email:        "ana@example.com",
		PasswordHash: "old-hash",
		RoleID:       RolePatient,
	})
	require.NoError(t, err)

	err = repo.UpdatePassword(ctx, created.ID, "new-hash")
	require.NoError(t, err)

	updated, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)

	err = repo.UpdatePassword(ctx, 999, "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_UpdateUserPartial(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserParams{
		FirstName:    "Ana",
		LastName:     "Gomez",
		Email:        "ana@example.com",
		Phone:        "555-0100",
		PasswordHash: "hash",
		RoleID:       RolePatient,
	})
	require.NoError(t, err)

	phone := "555-0199"
	err = repo.UpdateUser(ctx, created.ID, UpdateUserParams{Phone: &phone})
	require.NoError(t, err)

	updated, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "Ana", updated.FirstName, "unset fields stay unchanged")
}
