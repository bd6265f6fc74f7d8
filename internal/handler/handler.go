// Package handler implements the HTTP surface of the notes service. Every
// handler resolves its authorization state from the request principal and the
// store; nothing is trusted from the client beyond the token's user identity.
package handler

import (
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/internal/subscription"
	"notes-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// Handler carries the dependencies shared by all HTTP handlers. One instance
// is constructed at startup with the process-wide store and token service.
type Handler struct {
	store store.Store
	jwt   *jwtutil.JWTUtil
	gate  *subscription.Gate
}

// New creates the handler set
func New(s store.Store, jwt *jwtutil.JWTUtil, gate *subscription.Gate) *Handler {
	return &Handler{store: s, jwt: jwt, gate: gate}
}

func userJSON(u *model.User) echo.Map {
	return echo.Map{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
	}
}

func tenantJSON(t *model.Tenant) echo.Map {
	return echo.Map{
		"id":           t.ID,
		"slug":         t.Slug,
		"name":         t.Name,
		"subscription": t.SubscriptionPlan,
	}
}

// noteJSON renders a note with its author attached. A nil author is rendered
// as null rather than dropped so clients see a stable shape.
func noteJSON(n *model.Note, author *model.User) echo.Map {
	out := echo.Map{
		"id":        n.ID,
		"title":     n.Title,
		"content":   n.Content,
		"isSticky":  n.IsSticky,
		"bgColor":   n.BgColor,
		"textColor": n.TextColor,
		"createdAt": n.CreatedAt,
		"updatedAt": n.UpdatedAt,
	}
	if author != nil {
		out["author"] = userJSON(author)
	} else {
		out["author"] = nil
	}
	return out
}
