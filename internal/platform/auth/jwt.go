package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"propertyhub/internal/platform/config"
)

const issuer = "propertyhub"

// Token kinds carried in the "typ" claim so a refresh token cannot be replayed as an access token.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

type Claims struct {
	UserID         string   `json:"uid"`
	OrganizationID string   `json:"oid,omitempty"`
	Role           string   `json:"role"`
	Email          string   `json:"email"`
	Scopes         []string `json:"scp,omitempty"`
	SuperAdmin     bool     `json:"sa,omitempty"`
	Type           string   `json:"typ"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

func (s *TokenService) GenerateAccessToken(userID, orgID, role, email string) (string, error) {
	return s.sign(Claims{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Email:          email,
		Type:           TokenAccess,
	}, s.config.AccessTokenTTL)
}

// GenerateSuperAdminToken issues a platform-level token with no organization attached.
func (s *TokenService) GenerateSuperAdminToken(userID, email string) (string, error) {
	return s.sign(Claims{
		UserID:     userID,
		Role:       "superadmin",
		Email:      email,
		SuperAdmin: true,
		Type:       TokenAccess,
	}, s.config.AccessTokenTTL)
}

func (s *TokenService) GenerateRefreshToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		Type:   TokenRefresh,
	}
	claims.Subject = userID
	return s.sign(claims, s.config.RefreshTokenTTL)
}

func (s *TokenService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.Issuer = issuer

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ValidateAccessToken rejects refresh tokens.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken rejects access tokens.
func (s *TokenService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenRefresh {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}
