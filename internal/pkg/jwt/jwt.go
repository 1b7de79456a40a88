package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Access tokens are issued by the HRIS auth service with the shared secret;
// this service only mints the short-lived SSE tokens itself.
type Service interface {
	GenerateAccessToken(claims user.Claims) (token string, expiresAt int64, err error)
	GenerateSSEToken(claims user.Claims, runID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (SSEClaims, error)
	JWTAuth() *jwtauth.JWTAuth
}

// SSEClaims is what an SSE token authorizes: one user of one company watching one run.
type SSEClaims struct {
	UserID    string
	CompanyID string
	RunID     string
}

type JWTService struct {
	accessTokenExpirationTime string
	sseTokenExpiration        time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		sseTokenExpiration:        5 * time.Minute,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(claims user.Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"role":       string(claims.Role),
		"type":       "access",
		"exp":        expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(claims user.Claims, runID string) (token string, expiresIn int, err error) {
	expiresIn = int(j.sseTokenExpiration / time.Second)
	expiresAt := time.Now().Add(j.sseTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"run_id":     runID,
		"type":       "sse",
		"exp":        expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns its claims
func (j *JWTService) ValidateSSEToken(tokenString string) (SSEClaims, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return SSEClaims{}, auth.ErrTokenExpired
		}
		return SSEClaims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	// Check token type
	tokenType, ok := token.Get("type")
	if !ok || tokenType != "sse" {
		return SSEClaims{}, auth.ErrInvalidToken
	}

	var claims SSEClaims
	for key, dst := range map[string]*string{
		"user_id":    &claims.UserID,
		"company_id": &claims.CompanyID,
		"run_id":     &claims.RunID,
	} {
		val, ok := token.Get(key)
		if !ok {
			return SSEClaims{}, fmt.Errorf("%w: missing %s", auth.ErrInvalidToken, key)
		}
		s, ok := val.(string)
		if !ok || s == "" {
			return SSEClaims{}, fmt.Errorf("%w: missing %s", auth.ErrInvalidToken, key)
		}
		*dst = s
	}

	return claims, nil
}
