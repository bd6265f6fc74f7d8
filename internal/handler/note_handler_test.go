package handler_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCreateAndGetNote(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	rec := do(e, "POST", "/notes", token, map[string]any{
		"title":   "First note",
		"content": "hello",
	})
	c.Assert(rec.Code, qt.Equals, 201)
	note := decode(c, rec)["note"].(map[string]any)
	c.Assert(note["title"], qt.Equals, "First note")
	author := note["author"].(map[string]any)
	c.Assert(author["email"], qt.Equals, "a@acme.test")

	id := uint(note["id"].(float64))
	rec = do(e, "GET", notePath(id), token, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	got := decode(c, rec)["note"].(map[string]any)
	c.Assert(got["title"], qt.Equals, "First note")
	c.Assert(got["content"], qt.Equals, "hello")
}

func TestCreateNoteValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"content": "x"}},
		{"blank title", map[string]any{"title": "   ", "content": "x"}},
		{"missing content", map[string]any{"title": "x"}},
		{"title too long", map[string]any{"title": strings.Repeat("a", 201), "content": "x"}},
		{"content too long", map[string]any{"title": "x", "content": strings.Repeat("a", 10001)}},
	}

	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			rec := do(e, "POST", "/notes", token, tt.body)
			c.Assert(rec.Code, qt.Equals, 400)
		})
	}
}

func TestFreePlanNoteLimit(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	for _, title := range []string{"one", "two", "three"} {
		createNote(c, e, token, title)
	}

	// Fourth create hits the gate and must not insert
	rec := do(e, "POST", "/notes", token, map[string]any{
		"title":   "four",
		"content": "x",
	})
	c.Assert(rec.Code, qt.Equals, 403)
	body := decode(c, rec)
	c.Assert(body["limitReached"], qt.Equals, true)
	c.Assert(body["noteCount"], qt.Equals, float64(3))
	c.Assert(body["noteLimit"], qt.Equals, float64(3))

	rec = do(e, "GET", "/notes", token, nil)
	pagination := decode(c, rec)["pagination"].(map[string]any)
	c.Assert(pagination["totalNotes"], qt.Equals, float64(3))
}

func TestUpgradeLiftsNoteLimit(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	for _, title := range []string{"one", "two", "three"} {
		createNote(c, e, token, title)
	}

	rec := do(e, "POST", "/notes", token, map[string]any{"title": "four", "content": "x"})
	c.Assert(rec.Code, qt.Equals, 403)

	rec = do(e, "POST", "/tenants/acme/upgrade", token, nil)
	c.Assert(rec.Code, qt.Equals, 200)

	// The very next create succeeds without a new login
	rec = do(e, "POST", "/notes", token, map[string]any{"title": "four", "content": "x"})
	c.Assert(rec.Code, qt.Equals, 201)
}

func TestListNotesPaginationEnvelope(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	for _, title := range []string{"one", "two", "three"} {
		createNote(c, e, token, title)
	}

	rec := do(e, "GET", "/notes?page=1&limit=2", token, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	body := decode(c, rec)
	c.Assert(len(body["notes"].([]any)), qt.Equals, 2)

	pagination := body["pagination"].(map[string]any)
	c.Assert(pagination["currentPage"], qt.Equals, float64(1))
	c.Assert(pagination["totalPages"], qt.Equals, float64(2))
	c.Assert(pagination["totalNotes"], qt.Equals, float64(3))
	c.Assert(pagination["hasNextPage"], qt.Equals, true)
	c.Assert(pagination["hasPrevPage"], qt.Equals, false)

	rec = do(e, "GET", "/notes?page=2&limit=2", token, nil)
	body = decode(c, rec)
	c.Assert(len(body["notes"].([]any)), qt.Equals, 1)
	pagination = body["pagination"].(map[string]any)
	c.Assert(pagination["hasNextPage"], qt.Equals, false)
	c.Assert(pagination["hasPrevPage"], qt.Equals, true)
}

func TestTenantIsolation(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	acmeToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	globexToken := registerTenant(c, e, "b@globex.test", "Globex", "globex")

	secretID := createNote(c, e, globexToken, "globex secret")

	// Cross-tenant read must be indistinguishable from a missing note
	rec := do(e, "GET", notePath(secretID), acmeToken, nil)
	c.Assert(rec.Code, qt.Equals, 404)

	// Same for mutations, before any ownership consideration
	rec = do(e, "PUT", notePath(secretID), acmeToken, map[string]any{"title": "stolen", "content": "x"})
	c.Assert(rec.Code, qt.Equals, 404)
	rec = do(e, "DELETE", notePath(secretID), acmeToken, nil)
	c.Assert(rec.Code, qt.Equals, 404)

	// Listing never leaks across tenants
	rec = do(e, "GET", "/notes", acmeToken, nil)
	c.Assert(len(decode(c, rec)["notes"].([]any)), qt.Equals, 0)
}

func TestNoteOwnership(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	adminToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	memberToken := inviteAndLogin(c, e, adminToken, "user@acme.test")

	noteID := createNote(c, e, memberToken, "members note")

	// Another member of the same tenant can read but not mutate
	rec := do(e, "GET", notePath(noteID), adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 200)

	// Even the tenant admin is not the author, so mutation is forbidden
	rec = do(e, "PUT", notePath(noteID), adminToken, map[string]any{"title": "edited", "content": "x"})
	c.Assert(rec.Code, qt.Equals, 403)
	rec = do(e, "DELETE", notePath(noteID), adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 403)

	// The author can do both
	rec = do(e, "PUT", notePath(noteID), memberToken, map[string]any{"title": "edited", "content": "x"})
	c.Assert(rec.Code, qt.Equals, 200)
	rec = do(e, "DELETE", notePath(noteID), memberToken, nil)
	c.Assert(rec.Code, qt.Equals, 200)
}

func TestToggleStickyIsSharedTenantAction(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	adminToken := registerTenant(c, e, "a@acme.test", "Acme", "acme")
	memberToken := inviteAndLogin(c, e, adminToken, "user@acme.test")

	noteID := createNote(c, e, memberToken, "to pin")

	// Toggling has no ownership gate: the admin may pin a member's note
	rec := do(e, "POST", notePath(noteID)+"/toggle-sticky", adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	c.Assert(decode(c, rec)["isSticky"], qt.Equals, true)

	rec = do(e, "POST", notePath(noteID)+"/toggle-sticky", adminToken, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	c.Assert(decode(c, rec)["isSticky"], qt.Equals, false)
}

func TestStickyNotesListFirst(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	createNote(c, e, token, "plain")
	pinnedID := createNote(c, e, token, "pinned")
	createNoteResp := do(e, "POST", notePath(pinnedID)+"/toggle-sticky", token, nil)
	c.Assert(createNoteResp.Code, qt.Equals, 200)

	rec := do(e, "GET", "/notes", token, nil)
	notes := decode(c, rec)["notes"].([]any)
	c.Assert(len(notes), qt.Equals, 2)
	first := notes[0].(map[string]any)
	c.Assert(first["title"], qt.Equals, "pinned")
	c.Assert(first["isSticky"], qt.Equals, true)
}

func TestRecommendations(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()
	token := registerTenant(c, e, "a@acme.test", "Acme", "acme")

	createNote(c, e, token, "alpha")
	pinnedID := createNote(c, e, token, "beta")
	do(e, "POST", notePath(pinnedID)+"/toggle-sticky", token, nil)

	rec := do(e, "GET", "/notes/recommendations", token, nil)
	c.Assert(rec.Code, qt.Equals, 200)
	recs := decode(c, rec)["recommendations"].([]any)
	c.Assert(len(recs), qt.Equals, 2)

	top := recs[0].(map[string]any)
	c.Assert(top["title"], qt.Equals, "beta")
	c.Assert(top["reason"], qt.Equals, "You marked this as important")
}

func TestNotesRequireAuth(t *testing.T) {
	c := qt.New(t)
	e, _ := newTestServer()

	rec := do(e, "GET", "/notes", "", nil)
	c.Assert(rec.Code, qt.Equals, 401)
	rec = do(e, "POST", "/notes", "", map[string]any{"title": "x", "content": "y"})
	c.Assert(rec.Code, qt.Equals, 401)
}
