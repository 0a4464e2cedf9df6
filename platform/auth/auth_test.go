package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildUnsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, found := ExtractBearerToken(r)
	require.False(t, found)

	r.Header.Set("Authorization", "Bearer abc.def")
	token, found := ExtractBearerToken(r)
	require.True(t, found)
	require.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "bearer abc.def")
	token, found = ExtractBearerToken(r)
	require.True(t, found)
	require.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "Basic abc")
	_, found = ExtractBearerToken(r)
	require.False(t, found)
}

func TestDefaultCredentialExtractor(t *testing.T) {
	t.Parallel()

	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"sub":            "user-1",
		"email":          "owner@example.com",
		"email_verified": true,
		"name":           "Owner",
		"isAdmin":        true,
		"tenant_id":      "tenant-1",
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", creds.ID)
	require.Equal(t, "owner@example.com", creds.Email)
	require.True(t, creds.EmailVerified)
	require.True(t, creds.IsAdmin)
	require.NotNil(t, creds.TenantID)
	require.Equal(t, "tenant-1", *creds.TenantID)
}

func TestDefaultCredentialExtractorFirebaseTenant(t *testing.T) {
	t.Parallel()

	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"sub":      "user-1",
		"firebase": map[string]interface{}{"tenant": "tenant-9"},
	})
	require.NoError(t, err)
	require.NotNil(t, creds.TenantID)
	require.Equal(t, "tenant-9", *creds.TenantID)
}

func TestDefaultCredentialExtractorRequiresSubject(t *testing.T) {
	t.Parallel()

	_, err := DefaultCredentialExtractor(map[string]interface{}{"email": "x@example.com"})
	require.Error(t, err)

	_, err = DefaultCredentialExtractor(nil)
	require.Error(t, err)
}

func TestJWTMiddlewareAttachesCredentials(t *testing.T) {
	t.Parallel()

	token := buildUnsignedToken(t, map[string]interface{}{
		"sub":       "user-7",
		"email":     "member@example.com",
		"tenant_id": "tenant-3",
	})

	var seen *UserCredentials
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := JWT(UnsignedTokenVerifier(), nil)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-7", seen.ID)
	require.Equal(t, "tenant-3", *seen.TenantID)
}

func TestJWTMiddlewarePassesThroughWithoutToken(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserFromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	handler := JWT(UnsignedTokenVerifier(), nil)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddlewareRejectsMalformedToken(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a malformed token")
	})

	handler := JWT(UnsignedTokenVerifier(), nil)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
