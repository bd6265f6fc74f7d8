package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/slug"
	"notes-service/internal/store"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new tenant together with its first user, who becomes
// the tenant's admin.
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TenantName string `json:"tenantName"`
		TenantSlug string `json:"tenantSlug,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.TenantName = strings.TrimSpace(req.TenantName)

	if req.Email == "" || req.Password == "" || req.TenantName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and tenantName are required"})
	}

	tenantSlug := req.TenantSlug
	if tenantSlug == "" {
		tenantSlug = slug.Make(req.TenantName)
	} else if !slug.Valid(tenantSlug) {
		prometheus.RecordAuthError("invalid_slug")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenantSlug must be lowercase and URL-safe"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	tenant := model.Tenant{
		Slug:             tenantSlug,
		Name:             req.TenantName,
		SubscriptionPlan: model.PlanFree,
	}
	user := model.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleAdmin,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateTenantWithAdmin(&tenant, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			prometheus.RecordAuthError("registration_conflict")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or tenant slug already taken"})
		}
		log.Error("Failed to create tenant", zap.Error(err))
		prometheus.RecordAuthError("tenant_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	token, err := h.jwt.GenerateToken(user.ID, tenant.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("Tenant registered",
		zap.String("slug", tenant.Slug),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"token":  token,
		"user":   userJSON(&user),
		"tenant": tenantJSON(&tenant),
	})
}

// Login verifies credentials and issues a token. The email lookup is global:
// an email maps to exactly one account and therefore one tenant.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.store.FindUserByEmail(req.Email)
	if err != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tenant, err := h.store.FindTenantByID(user.TenantID)
	if err != nil {
		log.Error("User's tenant missing", zap.Uint("tenant_id", user.TenantID))
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(user.ID, tenant.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("tenant_slug", tenant.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"token":  token,
		"user":   userJSON(user),
		"tenant": tenantJSON(tenant),
	})
}

// Me returns the caller's current user and tenant state as resolved by the
// principal middleware.
func (h *Handler) Me(c echo.Context) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenant, err := h.store.FindTenantByID(p.TenantID)
	if err != nil {
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token - tenant not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":    p.UserID,
			"email": p.Email,
			"role":  p.Role,
		},
		"tenant": tenantJSON(tenant),
	})
}
