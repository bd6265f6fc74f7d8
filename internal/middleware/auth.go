package middleware

import (
	"net/http"
	"strings"

	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Principal is the resolved identity and authorization context for one
// request. Role, tenant slug and subscription plan come from a fresh store
// lookup, never from token claims, so a role downgrade or plan change takes
// effect on the very next request.
type Principal struct {
	UserID           uint
	Email            string
	Role             string
	TenantID         uint
	TenantSlug       string
	SubscriptionPlan string
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// Authenticator resolves bearer tokens into principals
type Authenticator struct {
	jwt   *jwtutil.JWTUtil
	store store.Store
}

// NewAuthenticator creates an authenticator over the given token service and store
func NewAuthenticator(jwt *jwtutil.JWTUtil, s store.Store) *Authenticator {
	return &Authenticator{jwt: jwt, store: s}
}

// Authenticate validates the bearer token and loads the current user and
// tenant from the store. Tokens are not revocable, so the user lookup is the
// sole mechanism that honors a deletion after issuance.
func (a *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := a.jwt.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// The token is trusted for identity only; everything else is
		// re-read so authorization state is never stale.
		user, err := a.store.FindUserByID(claims.UserID)
		if err != nil {
			log.Warn("Token subject no longer exists", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token - user not found"})
		}

		tenant, err := a.store.FindTenantByID(user.TenantID)
		if err != nil {
			log.Warn("Token subject's tenant no longer exists", zap.Uint("tenant_id", user.TenantID))
			prometheus.RecordAuthError("tenant_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token - tenant not found"})
		}

		c.Set(principalKey, &Principal{
			UserID:           user.ID,
			Email:            user.Email,
			Role:             user.Role,
			TenantID:         tenant.ID,
			TenantSlug:       tenant.Slug,
			SubscriptionPlan: tenant.SubscriptionPlan,
		})

		return next(c)
	}
}

// GetPrincipal retrieves the resolved principal from the request context
func GetPrincipal(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok
}

// RequireAdmin rejects requests whose principal is not an admin
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := GetPrincipal(c)
		if !ok {
			prometheus.RecordAuthError("missing_principal")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !p.IsAdmin() {
			prometheus.RecordAuthError("admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}

// RequireMember rejects requests whose principal has no recognized role
func RequireMember(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := GetPrincipal(c)
		if !ok {
			prometheus.RecordAuthError("missing_principal")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !model.ValidRole(p.Role) {
			prometheus.RecordAuthError("member_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "member access or higher required"})
		}
		return next(c)
	}
}
