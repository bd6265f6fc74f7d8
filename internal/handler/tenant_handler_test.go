package handler_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCurrentTenant(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	createNote(c, e, token, "one")

	rec := do(e, "GET", "/tenants/current", token, nil)
	c.Assert(rec.Code, qt.Equals, 200)

	tenant := decode(c, rec)["tenant"].(map[string]any)
	c.Assert(tenant["slug"], qt.Equals, "acme")
	c.Assert(tenant["subscription"], qt.Equals, "FREE")
	c.Assert(tenant["noteCount"], qt.Equals, float64(1))
	c.Assert(tenant["noteLimit"], qt.Equals, float64(3))
	c.Assert(tenant["canCreateNote"], qt.Equals, true)
}

func TestCurrentTenantAtLimit(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	for _, title := range []string{"one", "two", "three"} {
		createNote(c, e, token, title)
	}

	rec := do(e, "GET", "/tenants/current", token, nil)
	tenant := decode(c, rec)["tenant"].(map[string]any)
	c.Assert(tenant["noteCount"], qt.Equals, float64(3))
	c.Assert(tenant["canCreateNote"], qt.Equals, false)
}

func TestUpgradeTenant(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	rec := do(e, "POST", "/tenants/acme/upgrade", token, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	tenant := decode(c, rec)["tenant"].(map[string]any)
	c.Assert(tenant["subscription"], qt.Equals, "PRO")
	c.Assert(tenant["canCreateNote"], qt.Equals, true)

	// Upgrading twice is a client error, not a no-op
	rec = do(e, "POST", "/tenants/acme/upgrade", token, nil)
	c.Assert(rec.Code, qt.Equals, 400)
}

func TestUpgradeDeniedForForeignTenant(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	acmeToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	registerTenant(c, e, "b@globex.test", "Globex", "globex")

	rec := do(e, "POST", "/tenants/globex/upgrade", acmeToken, nil)
	c.Assert(rec.Code, qt.Equals, 403)
}

func TestUpgradeRequiresAdmin(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	adminToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	memberToken := inviteAndLogin(c, e, adminToken, "user@acme.test")

	rec := do(e, "POST", "/tenants/acme/upgrade", memberToken, nil)
	c.Assert(rec.Code, qt.Equals, 403)
}

func TestTenantStats(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	adminToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	memberToken := inviteAndLogin(c, e, adminToken, "user@acme.test")

	createNote(c, e, adminToken, "one")
	createNote(c, e, memberToken, "two")

	rec := do(e, "GET", "/tenants/acme/stats", adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	stats := decode(c, rec)["stats"].(map[string]any)
	c.Assert(stats["noteCount"], qt.Equals, float64(2))
	c.Assert(stats["userCount"], qt.Equals, float64(2))
	c.Assert(stats["recentNotesCount"], qt.Equals, float64(2))

	// Members cannot read stats
	rec = do(e, "GET", "/tenants/acme/stats", memberToken, nil)
	c.Assert(rec.Code, qt.Equals, 403)

	// Admins cannot read another tenant's stats
	rec = do(e, "GET", "/tenants/globex/stats", adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 403)
}
