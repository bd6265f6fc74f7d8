package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/labstack/echo/v4"

	"notes-service/internal/handler"
	"notes-service/internal/middleware"
	"notes-service/internal/store"
	"notes-service/internal/subscription"
	"notes-service/pkg/config"
	"notes-service/pkg/jwtutil"
)

// newTestServer wires the full route table against an in-memory store,
// mirroring cmd/server.
func newTestServer() (*echo.Echo, *store.MemoryStore) {
	st := store.NewMemoryStore()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	gate := subscription.NewGate(st, 3)
	h := handler.New(st, jwt, gate)
	auth := middleware.NewAuthenticator(jwt, st)

	e := echo.New()

	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.Me, auth.Authenticate)

	notes := e.Group("/notes")
	notes.Use(auth.Authenticate, middleware.RequireMember)
	notes.GET("", h.ListNotes)
	notes.POST("", h.CreateNote)
	notes.GET("/recommendations", h.Recommendations)
	notes.GET("/:id", h.GetNote)
	notes.PUT("/:id", h.UpdateNote)
	notes.DELETE("/:id", h.DeleteNote)
	notes.POST("/:id/toggle-sticky", h.ToggleSticky)

	tenants := e.Group("/tenants")
	tenants.Use(auth.Authenticate)
	tenants.GET("/current", h.CurrentTenant)
	tenants.POST("/:slug/upgrade", h.UpgradeTenant, middleware.RequireAdmin)
	tenants.GET("/:slug/stats", h.TenantStats, middleware.RequireAdmin)

	users := e.Group("/users")
	users.Use(auth.Authenticate, middleware.RequireAdmin)
	users.GET("", h.ListUsers)
	users.POST("/invite", h.InviteUser)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id/role", h.UpdateUserRole)
	users.DELETE("/:id", h.DeleteUser)

	return e, st
}

func do(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(c *qt.C, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &body), qt.IsNil)
	return body
}

// registerTenant registers a tenant and returns the admin's token
func registerTenant(c *qt.C, e *echo.Echo, email, tenantName, tenantSlug string) string {
	rec := do(e, "POST", "/auth/register", "", map[string]any{
		"email":      email,
		"password":   "pw1",
		"tenantName": tenantName,
		"tenantSlug": tenantSlug,
	})
	c.Assert(rec.Code, qt.Equals, 201, qt.Commentf("register failed: %s", rec.Body.String()))
	return decode(c, rec)["token"].(string)
}

// inviteAndLogin invites a member into the admin's tenant and logs them in
func inviteAndLogin(c *qt.C, e *echo.Echo, adminToken, email string) string {
	rec := do(e, "POST", "/users/invite", adminToken, map[string]any{"email": email})
	c.Assert(rec.Code, qt.Equals, 201, qt.Commentf("invite failed: %s", rec.Body.String()))

	rec = do(e, "POST", "/auth/login", "", map[string]any{
		"email":    email,
		"password": "password",
	})
	c.Assert(rec.Code, qt.Equals, 200, qt.Commentf("login failed: %s", rec.Body.String()))
	return decode(c, rec)["token"].(string)
}

// createNote creates a note and returns its id
func createNote(c *qt.C, e *echo.Echo, token, title string) uint {
	rec := do(e, "POST", "/notes", token, map[string]any{
		"title":   title,
		"content": "content of " + title,
	})
	c.Assert(rec.Code, qt.Equals, 201, qt.Commentf("create note failed: %s", rec.Body.String()))
	note := decode(c, rec)["note"].(map[string]any)
	return uint(note["id"].(float64))
}

func notePath(id uint) string {
	return fmt.Sprintf("/notes/%d", id)
}

func TestHealth(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()

	rec := do(e, "GET", "/health", "", nil)
	c.Assert(rec.Code, qt.Equals, 200)
	c.Assert(decode(c, rec)["status"], qt.Equals, "ok")
}
