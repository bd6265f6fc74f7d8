package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Invited users get this password until a real invite flow replaces the stub
const inviteDefaultPassword = "password"

// ListUsers returns all users in the admin's tenant
func (h *Handler) ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("list")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.store.ListUsers(p.TenantID)
	if err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get users"})
	}

	formatted := make([]echo.Map, 0, len(users))
	for i := range users {
		u := userJSON(&users[i])
		u["createdAt"] = users[i].CreatedAt
		u["updatedAt"] = users[i].UpdatedAt
		formatted = append(formatted, u)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":      formatted,
		"totalUsers": len(users),
	})
}

// InviteUser creates a member account in the admin's tenant. This is a stub
// of a real invite flow: the account gets a default password and no email
// is sent.
func (h *Handler) InviteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("invite")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be either ADMIN or MEMBER"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(inviteDefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to invite user"})
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		TenantID:     p.TenantID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateUser(&user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to invite user"})
	}

	log.Info("User invited",
		zap.String("email", user.Email),
		zap.String("role", user.Role),
		zap.Uint("tenant_id", p.TenantID))

	u := userJSON(&user)
	u["createdAt"] = user.CreatedAt

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User invited successfully",
		"user":    u,
	})
}

// GetUser returns one user in the admin's tenant with their note count
func (h *Handler) GetUser(c echo.Context) error {
	prometheus.RecordUserOperation("get")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.store.FindUserInTenant(p.TenantID, uint(userID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	noteCount, _ := h.store.CountNotesByAuthor(p.TenantID, user.ID)

	u := userJSON(user)
	u["createdAt"] = user.CreatedAt
	u["updatedAt"] = user.UpdatedAt
	u["noteCount"] = noteCount

	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// UpdateUserRole changes a user's role. Demoting the tenant's last admin is
// refused so the tenant can never be left without one.
func (h *Handler) UpdateUserRole(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("role_update")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be either ADMIN or MEMBER"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	user, err := h.store.FindUserInTenant(p.TenantID, uint(userID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Role == model.RoleAdmin && req.Role != model.RoleAdmin {
		adminCount, err := h.store.CountAdmins(p.TenantID)
		if err != nil {
			log.Error("Failed to count admins", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user role"})
		}
		if adminCount <= 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove admin role - at least one admin is required"})
		}
	}

	user.Role = req.Role
	if err := h.store.SaveUser(user); err != nil {
		log.Error("Failed to update user role", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user role"})
	}

	log.Info("User role updated",
		zap.Uint("user_id", user.ID),
		zap.String("role", user.Role))

	u := userJSON(user)
	u["updatedAt"] = user.UpdatedAt

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User role updated successfully",
		"user":    u,
	})
}

// DeleteUser removes a user from the admin's tenant along with all of their
// notes. Deleting the last admin is refused.
func (h *Handler) DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("delete")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	user, err := h.store.FindUserInTenant(p.TenantID, uint(userID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Role == model.RoleAdmin {
		adminCount, err := h.store.CountAdmins(p.TenantID)
		if err != nil {
			log.Error("Failed to count admins", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove user"})
		}
		if adminCount <= 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete user - at least one admin is required"})
		}
	}

	if err := h.store.DeleteUser(p.TenantID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to delete user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove user"})
	}

	log.Info("User removed",
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", p.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User removed successfully",
		"userId":  user.ID,
	})
}
