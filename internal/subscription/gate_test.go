package subscription_test

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/internal/subscription"
)

func seedTenant(c *qt.C, st *store.MemoryStore, plan string, noteCount int) uint {
	tenant := &model.Tenant{Slug: "acme", Name: "Acme", SubscriptionPlan: plan}
	admin := &model.User{Email: "admin@acme.test", PasswordHash: "x", Role: model.RoleAdmin}
	c.Assert(st.CreateTenantWithAdmin(tenant, admin), qt.IsNil)

	for i := 0; i < noteCount; i++ {
		note := &model.Note{
			Title:    fmt.Sprintf("note %d", i),
			Content:  "content",
			AuthorID: admin.ID,
			TenantID: tenant.ID,
		}
		c.Assert(st.CreateNote(note), qt.IsNil)
	}
	return tenant.ID
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name      string
		plan      string
		noteCount int
		want      bool
	}{
		{"free tenant below limit", model.PlanFree, 0, true},
		{"free tenant one below limit", model.PlanFree, 2, true},
		{"free tenant at limit", model.PlanFree, 3, false},
		{"free tenant over limit", model.PlanFree, 5, false},
		{"pro tenant at limit", model.PlanPro, 3, true},
		{"pro tenant far over limit", model.PlanPro, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			st := store.NewMemoryStore()
			tenantID := seedTenant(c, st, tt.plan, tt.noteCount)

			gate := subscription.NewGate(st, 3)
			can, count, err := gate.CanCreate(tenantID)
			c.Assert(err, qt.IsNil)
			c.Assert(can, qt.Equals, tt.want)
			c.Assert(count, qt.Equals, int64(tt.noteCount))
		})
	}
}

func TestCanCreateReadsLiveplan(t *testing.T) {
	c := qt.New(t)
	st := store.NewMemoryStore()
	tenantID := seedTenant(c, st, model.PlanFree, 3)
	gate := subscription.NewGate(st, 3)

	can, _, err := gate.CanCreate(tenantID)
	c.Assert(err, qt.IsNil)
	c.Assert(can, qt.IsFalse)

	// An upgrade must take effect on the very next check
	_, err = st.UpgradeTenant(tenantID)
	c.Assert(err, qt.IsNil)

	can, _, err = gate.CanCreate(tenantID)
	c.Assert(err, qt.IsNil)
	c.Assert(can, qt.IsTrue)
}

func TestCanCreateUnknownTenant(t *testing.T) {
	c := qt.New(t)
	gate := subscription.NewGate(store.NewMemoryStore(), 3)

	_, _, err := gate.CanCreate(99)
	c.Assert(err, qt.Equals, store.ErrNotFound)
}

func TestLimit(t *testing.T) {
	c := qt.New(t)
	gate := subscription.NewGate(store.NewMemoryStore(), 3)

	c.Assert(gate.Limit(model.PlanFree), qt.Equals, 3)
	c.Assert(gate.Limit(model.PlanPro), qt.Equals, subscription.UnlimitedNotes)
}
