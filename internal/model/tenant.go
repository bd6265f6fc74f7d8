package model

import (
	"time"
)

// Subscription plans
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

// Tenant represents an isolated organization/workspace. Every user and note
// belongs to exactly one tenant; the tenant is the unit of data partitioning.
type Tenant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Slug             string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name             string    `json:"name" gorm:"type:varchar(100);not null"`
	SubscriptionPlan string    `json:"subscription" gorm:"type:varchar(20);not null;default:'FREE'"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsPro reports whether the tenant is on the paid plan
func (t *Tenant) IsPro() bool {
	return t.SubscriptionPlan == PlanPro
}
