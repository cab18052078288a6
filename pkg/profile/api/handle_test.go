package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/auth-service/pkg/password"
	"github.com/clinicore/auth-service/pkg/profile"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

const testSecret = "test-secret"

type apiEnv struct {
	server *httptest.Server
	users  *user.InMemRepository
	tokens *tokenauth.JwtTokenService
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	env := &apiEnv{
		users:  user.NewInMemRepository(),
		tokens: tokenauth.NewJwtTokenService(testSecret, "auth-service-test"),
	}
	svc := profile.NewService(env.users, password.NewBcryptHasher())
	tokenAuth := jwtauth.New("HS256", []byte(testSecret), nil)

	env.server = httptest.NewServer(Handler(NewProfileHandler(svc), tokenAuth))
	t.Cleanup(env.server.Close)
	return env
}

func (e *apiEnv) createUser(t *testing.T, email string, roleID int) user.User {
	t.Helper()

	u, err := e.users.Create(context.Background(), user.CreateUserParams{
		FirstName:    "Ana",
		LastName:     "Silva",
		Email:        email,
		PasswordHash: "irrelevant",
		RoleID:       roleID,
	})
	require.NoError(t, err)
	return u
}

func (e *apiEnv) accessToken(t *testing.T, u user.User) string {
	t.Helper()

	token, _, err := e.tokens.Issue(
		strconv.FormatInt(u.ID, 10), time.Hour,
		tokenauth.ExtraClaims{Email: u.Email, RoleID: u.RoleID},
	)
	require.NoError(t, err)
	return token
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestRegisterEndpoint(t *testing.T) {
	env := setupAPI(t)

	resp, body := doJSON(t, http.MethodPost, env.server.URL+"/register", "", RegisterRequest{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana@example.com",
		Password:  "secret-pass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["email"])
	assert.NotContains(t, body, "PasswordHash")

	resp, body = doJSON(t, http.MethodPost, env.server.URL+"/register", "", RegisterRequest{
		Email: "ana@example.com", Password: "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])
}

func TestMeEndpoint(t *testing.T) {
	env := setupAPI(t)
	u := env.createUser(t, "ana@example.com", user.RolePatient)

	resp, body := doJSON(t, http.MethodGet, env.server.URL+"/me", env.accessToken(t, u), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["email"])
}

func TestMeEndpoint_RequiresToken(t *testing.T) {
	env := setupAPI(t)

	resp, _ := doJSON(t, http.MethodGet, env.server.URL+"/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeEndpoint_RejectsResetToken(t *testing.T) {
	env := setupAPI(t)
	u := env.createUser(t, "ana@example.com", user.RolePatient)

	resetToken, _, err := env.tokens.Issue(itoa(u.ID), time.Hour, tokenauth.ExtraClaims{
		Email:   u.Email,
		Purpose: tokenauth.PurposePasswordReset,
	})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodGet, env.server.URL+"/me", resetToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_INVALID", body["code"])
}

func TestUpdateEndpoint_SelfAndAdmin(t *testing.T) {
	env := setupAPI(t)
	ana := env.createUser(t, "ana@example.com", user.RolePatient)
	admin := env.createUser(t, "admin@example.com", user.RoleAdmin)

	phone := "+57 300 000 0000"
	resp, body := doJSON(t, http.MethodPut, env.server.URL+"/"+itoa(ana.ID),
		env.accessToken(t, ana), UpdateUserRequest{Phone: &phone})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, phone, body["phone"])

	// Admin updating someone else's profile.
	address := "Cra 7 # 12-34"
	resp, body = doJSON(t, http.MethodPut, env.server.URL+"/"+itoa(ana.ID),
		env.accessToken(t, admin), UpdateUserRequest{Address: &address})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, address, body["address"])
}

func TestUpdateEndpoint_ForbiddenForOtherUsers(t *testing.T) {
	env := setupAPI(t)
	ana := env.createUser(t, "ana@example.com", user.RolePatient)
	other := env.createUser(t, "other@example.com", user.RolePatient)

	phone := "+57 300 000 0000"
	resp, body := doJSON(t, http.MethodPut, env.server.URL+"/"+itoa(ana.ID),
		env.accessToken(t, other), UpdateUserRequest{Phone: &phone})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}
