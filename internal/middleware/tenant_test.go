package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTenant(t *testing.T) {
	assert.Equal(t, "acme_01", NormalizeTenant("acme_01"))
	assert.Equal(t, DefaultTenant, NormalizeTenant(""))
	assert.Equal(t, DefaultTenant, NormalizeTenant("bad tenant!"))
	assert.Equal(t, DefaultTenant, NormalizeTenant("统一租户"))
	assert.Equal(t, DefaultTenant, NormalizeTenant("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
}

func tenantProbe(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) string {
	t.Helper()
	var got string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetTenantID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestTenantFromHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, "acme", tenantProbe(t, Tenant(""), req))
}

func TestTenantDefaultsWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, DefaultTenant, tenantProbe(t, Tenant(""), req))
}

func TestTenantInvalidHeaderNormalized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "../../etc")
	assert.Equal(t, DefaultTenant, tenantProbe(t, Tenant(""), req))
}

func TestTenantFromJWTClaim(t *testing.T) {
	secret := "test-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id": "globex",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	// The claim wins over the header.
	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, "globex", tenantProbe(t, Tenant(secret), req))
}

func TestTenantBadJWTFallsThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, "acme", tenantProbe(t, Tenant("test-secret"), req))
}
