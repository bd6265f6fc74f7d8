// Package store defines the tenant-scoped persistence contract. Every note
// and user read is filtered by tenant ID so a row belonging to another tenant
// is indistinguishable from a missing row.
package store

import (
	"errors"
	"time"

	"notes-service/internal/model"
)

var (
	// ErrNotFound is returned when a record is absent or belongs to a
	// foreign tenant.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations (email, slug).
	ErrConflict = errors.New("record already exists")
)

// Store is the single shared handle over users, tenants and notes. One
// instance is constructed at startup and passed by interface to all handlers.
type Store interface {
	// Tenants
	CreateTenantWithAdmin(tenant *model.Tenant, admin *model.User) error
	FindTenantByID(id uint) (*model.Tenant, error)
	FindTenantBySlug(slug string) (*model.Tenant, error)
	UpgradeTenant(id uint) (*model.Tenant, error)

	// Users
	CreateUser(user *model.User) error
	FindUserByEmail(email string) (*model.User, error)
	FindUserByID(id uint) (*model.User, error)
	FindUserInTenant(tenantID, id uint) (*model.User, error)
	ListUsers(tenantID uint) ([]model.User, error)
	SaveUser(user *model.User) error
	DeleteUser(tenantID, id uint) error
	CountUsers(tenantID uint) (int64, error)
	CountAdmins(tenantID uint) (int64, error)

	// Notes
	CreateNote(note *model.Note) error
	FindNote(tenantID, id uint) (*model.Note, error)
	ListNotes(tenantID uint, offset, limit int) ([]model.Note, error)
	SaveNote(note *model.Note) error
	DeleteNote(tenantID, id uint) error
	CountNotes(tenantID uint) (int64, error)
	CountNotesByAuthor(tenantID, authorID uint) (int64, error)
	CountNotesSince(tenantID uint, since time.Time) (int64, error)
	RecentNotes(tenantID uint, limit int) ([]model.Note, error)
}
