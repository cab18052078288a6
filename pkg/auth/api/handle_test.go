package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/auth-service/pkg/auth"
	"github.com/clinicore/auth-service/pkg/device"
	"github.com/clinicore/auth-service/pkg/notification"
	"github.com/clinicore/auth-service/pkg/password"
	"github.com/clinicore/auth-service/pkg/resetcode"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

type apiEnv struct {
	server *httptest.Server
	users  *user.InMemRepository
	hasher *password.BcryptHasher
	codes  *resetcode.TTLStore
	tokens *tokenauth.JwtTokenService
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	env := &apiEnv{
		users:  user.NewInMemRepository(),
		hasher: password.NewBcryptHasher(),
		codes:  resetcode.NewTTLStore(),
		tokens: tokenauth.NewJwtTokenService("test-secret", "auth-service-test"),
	}
	t.Cleanup(env.codes.Stop)

	svc := auth.NewService(env.users, env.hasher, env.tokens, env.codes, notification.NewMockNotifier(),
		auth.WithDeviceService(device.NewService(device.NewInMemRepository())),
	)
	env.server = httptest.NewServer(Handler(NewAuthHandler(svc)))
	t.Cleanup(env.server.Close)
	return env
}

func (e *apiEnv) createUser(t *testing.T, email, pw string) user.User {
	t.Helper()

	hash, err := e.hasher.Hash(pw)
	require.NoError(t, err)
	u, err := e.users.Create(context.Background(), user.CreateUserParams{
		FirstName:    "Ana",
		LastName:     "Silva",
		Email:        email,
		PasswordHash: hash,
		RoleID:       user.RolePatient,
	})
	require.NoError(t, err)
	return u
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestLoginEndpoint(t *testing.T) {
	env := setupAPI(t)
	env.createUser(t, "ana@example.com", "secret-pass")

	resp, body := postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "ana@example.com", Password: "secret-pass"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "ana@example.com", Password: "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
}

func TestLoginEndpoint_Validation(t *testing.T) {
	env := setupAPI(t)

	resp, body := postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "not-an-email", Password: "secret-pass"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	resp, _ = postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "ana@example.com", Password: "tiny"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestForgotPasswordEndpoint_AlwaysOk(t *testing.T) {
	env := setupAPI(t)
	env.createUser(t, "ana@example.com", "secret-pass")

	resp, body := postJSON(t, env.server.URL+"/forgot-password",
		ForgotPasswordRequest{Email: "ana@example.com"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	// Unknown email: identical response.
	resp, unknownBody := postJSON(t, env.server.URL+"/forgot-password",
		ForgotPasswordRequest{Email: "nobody@example.com"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, unknownBody)
}

func TestResetFlowOverHTTP(t *testing.T) {
	env := setupAPI(t)
	env.createUser(t, "ana@example.com", "old-password")

	_, _ = postJSON(t, env.server.URL+"/forgot-password",
		ForgotPasswordRequest{Email: "ana@example.com"}, nil)
	entry, ok := env.codes.Get("ana@example.com")
	require.True(t, ok)

	resp, body := postJSON(t, env.server.URL+"/verify-reset-code",
		VerifyResetCodeRequest{Email: "ana@example.com", Code: entry.Code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resetToken, _ := body["resetToken"].(string)
	require.NotEmpty(t, resetToken)

	// Token supplied as a bearer header rather than in the body.
	resp, _ = postJSON(t, env.server.URL+"/reset-password",
		ResetPasswordRequest{NewPassword: "brand-new-pass"},
		map[string]string{"Authorization": "Bearer " + resetToken})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "ana@example.com", Password: "brand-new-pass"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyResetCodeEndpoint_Validation(t *testing.T) {
	env := setupAPI(t)

	resp, body := postJSON(t, env.server.URL+"/verify-reset-code",
		VerifyResetCodeRequest{Email: "ana@example.com", Code: "12345"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	resp, body = postJSON(t, env.server.URL+"/verify-reset-code",
		VerifyResetCodeRequest{Email: "ana@example.com", Code: "000000"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "RESET_CODE_INVALID", body["code"])
}

func TestResetPasswordEndpoint_RejectsAccessToken(t *testing.T) {
	env := setupAPI(t)
	env.createUser(t, "ana@example.com", "secret-pass")

	resp, body := postJSON(t, env.server.URL+"/login",
		LoginRequest{Email: "ana@example.com", Password: "secret-pass"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accessToken := body["token"].(string)

	resp, body = postJSON(t, env.server.URL+"/reset-password",
		ResetPasswordRequest{ResetToken: accessToken, NewPassword: "brand-new-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "RESET_TOKEN_INVALID", body["code"])
}

func TestResetPasswordEndpoint_MissingToken(t *testing.T) {
	env := setupAPI(t)

	resp, body := postJSON(t, env.server.URL+"/reset-password",
		ResetPasswordRequest{NewPassword: "brand-new-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "RESET_TOKEN_INVALID", body["code"])
}

func TestGoogleEndpoint_Unconfigured(t *testing.T) {
	env := setupAPI(t)

	resp, body := postJSON(t, env.server.URL+"/google",
		GoogleLoginRequest{TokenID: "some-token"}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "PROVIDER_CONFIG_MISSING", body["code"])
}

func TestBiometricEndpoint_MissingFields(t *testing.T) {
	env := setupAPI(t)

	resp, body := postJSON(t, env.server.URL+"/biometric-login",
		map[string]string{"identityToken": "tok"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}
