package apple

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicore/auth-service/pkg/errors"
)

// clientSecretTTL is the maximum lifetime Apple accepts for a developer
// client secret (six months).
const clientSecretTTL = 15777000 * time.Second

// ClientSecret mints the ES256-signed developer token used to authenticate
// against Apple's token endpoint.
func (v *Verifier) ClientSecret(now time.Time) (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(v.cfg.PrivateKey))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeProviderConfigMissing, "invalid Apple private key")
	}

	claims := jwt.RegisteredClaims{
		Issuer:    v.cfg.TeamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientSecretTTL)),
		Audience:  jwt.ClaimStrings{Issuer},
		Subject:   v.cfg.BundleID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = v.cfg.KeyID

	return token.SignedString(key)
}

// ValidateAuthorizationCode redeems an authorization code against Apple's
// token endpoint and reports whether it was accepted. Best effort: transport
// failures surface as ProviderUnavailable and callers may proceed on the
// identity token alone.
func (v *Verifier) ValidateAuthorizationCode(ctx context.Context, authorizationCode string) (bool, error) {
	secret, err := v.ClientSecret(time.Now().UTC())
	if err != nil {
		return false, err
	}

	form := url.Values{}
	form.Set("client_id", v.cfg.BundleID)
	form.Set("client_secret", secret)
	form.Set("code", authorizationCode)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "Apple token endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, nil
	}
	return body.AccessToken != "", nil
}
