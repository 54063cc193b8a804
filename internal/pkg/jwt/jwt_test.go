package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1", user.RoleHR)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := svc.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, user.Claims{UserID: "user-1", CompanyID: "company-1", Role: user.RoleHR}, claims)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	svc.(*JWTService).clock = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken("user-1", "company-1", user.RoleHR)
	require.NoError(t, err)

	_, err = svc.ParseClaims(token)
	assert.Error(t, err)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWTService("other-secret", "1h")
	require.NoError(t, err)
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)

	token, _, err := issuer.GenerateAccessToken("user-1", "company-1", user.RoleOwner)
	require.NoError(t, err)

	_, err = svc.ParseClaims(token)
	assert.Error(t, err)
}

func TestClaimsFromMap(t *testing.T) {
	valid := map[string]interface{}{
		"type":       "access",
		"user_id":    "u",
		"company_id": "c",
		"role":       "manager",
	}
	claims, err := ClaimsFromMap(valid)
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, claims.Role)

	refresh := map[string]interface{}{"type": "refresh", "user_id": "u", "company_id": "c", "role": "manager"}
	_, err = ClaimsFromMap(refresh)
	assert.Error(t, err)

	noCompany := map[string]interface{}{"type": "access", "user_id": "u", "role": "manager"}
	_, err = ClaimsFromMap(noCompany)
	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)

	badRole := map[string]interface{}{"type": "access", "user_id": "u", "company_id": "c", "role": "pending"}
	_, err = ClaimsFromMap(badRole)
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestInvalidExpiration(t *testing.T) {
	_, err := NewJWTService("secret", "soon")
	assert.Error(t, err)
}
