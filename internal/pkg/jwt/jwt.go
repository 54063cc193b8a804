package jwt

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service issues and verifies the access tokens carried by API callers.
// Identity itself lives upstream; this service only signs what it is told.
type Service interface {
	GenerateAccessToken(userID string, companyID string, role user.Role) (token string, expiresAt int64, err error)
	ParseClaims(tokenString string) (user.Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	clock                 func() time.Time
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	return &JWTService{
		accessTokenExpiration: expiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		clock:                 time.Now,
	}, nil
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, companyID string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = j.clock().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"role":       string(role),
		"type":       "access",
		"exp":        expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseClaims decodes and validates an access token outside the HTTP stack.
func (j *JWTService) ParseClaims(tokenString string) (user.Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Claims{}, err
	}
	return ClaimsFromMap(token.PrivateClaims())
}

// ClaimsFromMap extracts the tenant claims from a decoded token.
func ClaimsFromMap(claims map[string]interface{}) (user.Claims, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return user.Claims{}, jwt.ErrInvalidJWT()
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return user.Claims{}, jwt.ErrInvalidJWT()
	}

	companyID, _ := claims["company_id"].(string)
	if companyID == "" {
		return user.Claims{}, user.ErrCompanyIDRequired
	}

	role := user.Role(fmt.Sprint(claims["role"]))
	if !role.IsValid() {
		return user.Claims{}, user.ErrInvalidRole
	}

	return user.Claims{UserID: userID, CompanyID: companyID, Role: role}, nil
}
