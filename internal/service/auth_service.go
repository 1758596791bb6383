package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

// AuthConfig holds the session token settings.
type AuthConfig struct {
	Secret string
	Issuer string
}

// AuthService validates session tokens issued by the identity service and extracts the tenant.
type AuthService struct {
	config AuthConfig
}

// NewAuthService constructs AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	return &AuthService{config: cfg}
}

// ValidateToken parses and validates a signed session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// IssueToken signs a session token for a user of a school. It backs the token command of the run CLI;
// interactive sessions are issued by the identity service.
func (s *AuthService) IssueToken(userID string, role models.UserRole, schoolID string, campusID *string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:   userID,
		Role:     role,
		SchoolID: schoolID,
		CampusID: campusID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}
