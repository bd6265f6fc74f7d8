package store

import (
	"sort"
	"sync"
	"time"

	"notes-service/internal/model"
)

// MemoryStore is an in-memory Store implementation. It backs the test suite
// and demo runs that don't have a database available. Writes to the same row
// are serialized by a single mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[uint]*model.Tenant
	users   map[uint]*model.User
	notes   map[uint]*model.Note
	nextID  map[string]uint
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[uint]*model.Tenant),
		users:   make(map[uint]*model.User),
		notes:   make(map[uint]*model.Note),
		nextID:  map[string]uint{"tenant": 0, "user": 0, "note": 0},
	}
}

func (s *MemoryStore) allocID(kind string) uint {
	s.nextID[kind]++
	return s.nextID[kind]
}

func copyTenant(t *model.Tenant) *model.Tenant { c := *t; return &c }
func copyUser(u *model.User) *model.User       { c := *u; return &c }
func copyNote(n *model.Note) *model.Note       { c := *n; return &c }

func (s *MemoryStore) CreateTenantWithAdmin(tenant *model.Tenant, admin *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Slug == tenant.Slug {
			return ErrConflict
		}
	}
	for _, u := range s.users {
		if u.Email == admin.Email {
			return ErrConflict
		}
	}

	now := time.Now()
	tenant.ID = s.allocID("tenant")
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	s.tenants[tenant.ID] = copyTenant(tenant)

	admin.ID = s.allocID("user")
	admin.TenantID = tenant.ID
	admin.CreatedAt = now
	admin.UpdatedAt = now
	s.users[admin.ID] = copyUser(admin)
	return nil
}

func (s *MemoryStore) FindTenantByID(id uint) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[id]; ok {
		return copyTenant(t), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTenantBySlug(slug string) (*model.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return copyTenant(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpgradeTenant(id uint) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.SubscriptionPlan = model.PlanPro
	t.UpdatedAt = time.Now()
	return copyTenant(t), nil
}

func (s *MemoryStore) CreateUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrConflict
		}
	}
	now := time.Now()
	user.ID = s.allocID("user")
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) FindUserByEmail(email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUserByID(id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUserInTenant(tenantID, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok && u.TenantID == tenantID {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(tenantID uint) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []model.User
	for _, u := range s.users {
		if u.TenantID == tenantID {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) SaveUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) DeleteUser(tenantID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.TenantID != tenantID {
		return ErrNotFound
	}
	for noteID, n := range s.notes {
		if n.AuthorID == id && n.TenantID == tenantID {
			delete(s.notes, noteID)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) CountUsers(tenantID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, u := range s.users {
		if u.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountAdmins(tenantID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Role == model.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateNote(note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	note.ID = s.allocID("note")
	note.CreatedAt = now
	note.UpdatedAt = now
	s.notes[note.ID] = copyNote(note)
	return nil
}

func (s *MemoryStore) FindNote(tenantID, id uint) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.notes[id]; ok && n.TenantID == tenantID {
		return copyNote(n), nil
	}
	return nil, ErrNotFound
}

// tenantNotes returns the tenant's notes ordered sticky-first then newest.
// Caller must hold the lock.
func (s *MemoryStore) tenantNotes(tenantID uint) []model.Note {
	var notes []model.Note
	for _, n := range s.notes {
		if n.TenantID == tenantID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].IsSticky != notes[j].IsSticky {
			return notes[i].IsSticky
		}
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
	return notes
}

func (s *MemoryStore) ListNotes(tenantID uint, offset, limit int) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := s.tenantNotes(tenantID)
	if offset >= len(notes) {
		return nil, nil
	}
	end := offset + limit
	if end > len(notes) {
		end = len(notes)
	}
	return notes[offset:end], nil
}

func (s *MemoryStore) SaveNote(note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; !ok {
		return ErrNotFound
	}
	note.UpdatedAt = time.Now()
	s.notes[note.ID] = copyNote(note)
	return nil
}

func (s *MemoryStore) DeleteNote(tenantID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.TenantID != tenantID {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) CountNotes(tenantID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.notes {
		if n.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountNotesByAuthor(tenantID, authorID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.notes {
		if n.TenantID == tenantID && n.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountNotesSince(tenantID uint, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.notes {
		if n.TenantID == tenantID && !n.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RecentNotes(tenantID uint, limit int) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := s.tenantNotes(tenantID)
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsSticky != notes[j].IsSticky {
			return notes[i].IsSticky
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}
