package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "admin-secret"

func sign(t *testing.T, key string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) http.Handler {
	t.Helper()
	v, err := auth.NewVerifier(context.Background(), config.AuthConfig{AdminJWTSecret: secret})
	require.NoError(t, err)

	return auth.AdminOnly(v, logger.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(auth.UserID(r.Context())))
	}))
}

func call(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminOnlyAcceptsIssuedToken(t *testing.T) {
	token, err := auth.IssueAdminToken(secret, "ops@venue", time.Hour)
	require.NoError(t, err)

	rec := call(protected(t), "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@venue", rec.Body.String())

	rec = call(protected(t), "bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnlyRejections(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	expired := time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "role": "admin", "exp": expired}), http.StatusUnauthorized},
		{"no expiry", "Bearer " + sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "role": "admin"}), http.StatusUnauthorized},
		{"other algorithm", "Bearer " + sign(t, secret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"not admin", "Bearer " + sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "role": "user", "exp": exp}), http.StatusForbidden},
	}

	h := protected(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(h, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRolesListGrantsAdmin(t *testing.T) {
	token := sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "scanner-1",
		"roles": []string{"scanner", "Admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := auth.NewHMACVerifier(secret).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(auth.AdminRole))
	assert.False(t, claims.HasRole("owner"))
}

func TestNoVerifierConfiguredRefusesEverything(t *testing.T) {
	v, err := auth.NewVerifier(context.Background(), config.AuthConfig{})
	require.NoError(t, err)

	token, err := auth.IssueAdminToken(secret, "ops", time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	h := auth.AdminOnly(v, logger.NewTestLogger())(http.NotFoundHandler())
	assert.Equal(t, http.StatusUnauthorized, call(h, "Bearer "+token).Code)
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(req)
	assert.ErrorIs(t, err, auth.ErrMissingToken)

	req.Header.Set("Authorization", "Bearer a.b.c")
	token, err := auth.ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", token)

	req.Header.Set("Authorization", "Bearer a b")
	_, err = auth.ExtractTokenFromRequest(req)
	assert.Error(t, err)
}
