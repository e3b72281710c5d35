package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

// AuthMiddleware accepts either a JWT access token or an organization API key
// as the bearer credential. API keys authenticate with role "api" and may only read.
type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	apiKeys  *repositories.APIKeyRepository
	now      func() time.Time
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, apiKeys *repositories.APIKeyRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, apiKeys: apiKeys, now: time.Now}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		var claims *auth.Claims
		if strings.HasPrefix(parts[1], models.APIKeyPrefix) {
			claims = m.apiKeyClaims(r.Context(), parts[1])
			if claims == nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or revoked API key", nil)
				return
			}
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "API keys are read-only", nil)
				return
			}
		} else {
			var err error
			claims, err = m.tokenSvc.ValidateAccessToken(parts[1])
			if err != nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token", nil)
				return
			}
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}

func (m *AuthMiddleware) apiKeyClaims(ctx context.Context, plain string) *auth.Claims {
	if m.apiKeys == nil {
		return nil
	}
	key, err := m.apiKeys.GetByHash(ctx, auth.HashAPIKey(plain))
	if err != nil {
		log.Error().Err(err).Msg("API key lookup failed")
		return nil
	}
	if key == nil || !key.Usable(m.now().Unix()) {
		return nil
	}
	if err := m.apiKeys.UpdateLastUsed(ctx, key.ID); err != nil {
		log.Warn().Err(err).Str("key_id", key.ID).Msg("Failed to touch API key")
	}
	return &auth.Claims{
		UserID:         key.UserID,
		OrganizationID: key.OrganizationID,
		Role:           models.RoleAPI,
		Scopes:         key.Scopes,
		Type:           auth.TokenAccess,
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := apiContext.ClaimsFrom(r.Context())
			if !ok {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next(w, r)
					return
				}
			}
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
		}
	}
}

// RequireSuperAdmin guards the platform portal.
func RequireSuperAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := apiContext.ClaimsFrom(r.Context())
		if !ok || !claims.SuperAdmin {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Missing super-admin privilege", nil)
			return
		}
		next(w, r)
	}
}
