package handler

import (
	"net/http"
	"time"

	"notes-service/internal/middleware"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CurrentTenant returns the caller's tenant with its live note count and
// whether another note may be created right now.
func (h *Handler) CurrentTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("current")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.store.FindTenantByID(p.TenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	canCreate, noteCount, err := h.gate.CanCreate(tenant.ID)
	if err != nil {
		log.Error("Failed to evaluate note limit", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant information"})
	}

	body := tenantJSON(tenant)
	body["noteCount"] = noteCount
	body["noteLimit"] = h.gate.Limit(tenant.SubscriptionPlan)
	body["canCreateNote"] = canCreate

	return c.JSON(http.StatusOK, echo.Map{"tenant": body})
}

// UpgradeTenant moves the caller's tenant from FREE to PRO. Admin only, and
// only for the admin's own tenant.
func (h *Handler) UpgradeTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("upgrade")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if c.Param("slug") != p.TenantSlug {
		prometheus.RecordAuthError("cross_tenant_upgrade")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied - can only upgrade your own tenant"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	tenant, err := h.store.FindTenantByID(p.TenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if tenant.IsPro() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tenant is already on Pro plan"})
	}

	upgraded, err := h.store.UpgradeTenant(tenant.ID)
	if err != nil {
		log.Error("Failed to upgrade tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upgrade tenant"})
	}

	noteCount, _ := h.store.CountNotes(upgraded.ID)

	log.Info("Tenant upgraded to Pro",
		zap.Uint("tenant_id", upgraded.ID),
		zap.String("slug", upgraded.Slug))

	body := tenantJSON(upgraded)
	body["noteCount"] = noteCount
	body["noteLimit"] = h.gate.Limit(upgraded.SubscriptionPlan)
	body["canCreateNote"] = true

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Successfully upgraded to Pro plan",
		"tenant":  body,
	})
}

// TenantStats returns note and user counts for the admin's own tenant
func (h *Handler) TenantStats(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("stats")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if c.Param("slug") != p.TenantSlug {
		prometheus.RecordAuthError("cross_tenant_stats")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied - can only view your own tenant stats"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.store.FindTenantByID(p.TenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	noteCount, err := h.store.CountNotes(tenant.ID)
	if err != nil {
		log.Error("Failed to count notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant stats"})
	}
	userCount, err := h.store.CountUsers(tenant.ID)
	if err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant stats"})
	}
	recentNotes, err := h.store.CountNotesSince(tenant.ID, time.Now().AddDate(0, 0, -30))
	if err != nil {
		log.Error("Failed to count recent notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get tenant stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant": tenantJSON(tenant),
		"stats": echo.Map{
			"noteCount":        noteCount,
			"userCount":        userCount,
			"recentNotesCount": recentNotes,
		},
	})
}
