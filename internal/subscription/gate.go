// Package subscription decides whether a tenant may create more notes.
package subscription

import (
	"notes-service/internal/model"
	"notes-service/internal/store"
)

// UnlimitedNotes marks a plan without a note cap in API responses
const UnlimitedNotes = -1

// Gate evaluates the free-plan note cap against live store state. The plan
// and the count are read fresh on every call; token claims are never
// consulted here.
type Gate struct {
	store     store.Store
	freeLimit int
}

// NewGate creates a gate with the given free-plan limit
func NewGate(s store.Store, freeLimit int) *Gate {
	return &Gate{store: s, freeLimit: freeLimit}
}

// Limit returns the note cap for a plan, UnlimitedNotes for PRO
func (g *Gate) Limit(plan string) int {
	if plan == model.PlanPro {
		return UnlimitedNotes
	}
	return g.freeLimit
}

// CanCreate reports whether the tenant may create another note. The check
// and the subsequent insert are separate store calls, so two concurrent
// creates at the exact limit boundary can both pass; the transient overrun
// is accepted.
func (g *Gate) CanCreate(tenantID uint) (bool, int64, error) {
	tenant, err := g.store.FindTenantByID(tenantID)
	if err != nil {
		return false, 0, err
	}

	count, err := g.store.CountNotes(tenantID)
	if err != nil {
		return false, 0, err
	}

	if tenant.IsPro() {
		return true, count, nil
	}
	return count < int64(g.freeLimit), count, nil
}
