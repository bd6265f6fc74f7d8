package store

import (
	"errors"
	"time"

	"notes-service/internal/model"

	"gorm.io/gorm"
)

// gormStore is the PostgreSQL-backed Store implementation
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle in the Store contract
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// CreateTenantWithAdmin creates a tenant and its first admin user in a single
// transaction so a slug or email conflict leaves nothing behind.
func (s *gormStore) CreateTenantWithAdmin(tenant *model.Tenant, admin *model.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return translate(err)
		}
		admin.TenantID = tenant.ID
		if err := tx.Create(admin).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

func (s *gormStore) FindTenantByID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tenant, nil
}

func (s *gormStore) FindTenantBySlug(slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, translate(err)
	}
	return &tenant, nil
}

func (s *gormStore) UpgradeTenant(id uint) (*model.Tenant, error) {
	if err := s.db.Model(&model.Tenant{}).Where("id = ?", id).
		Update("subscription_plan", model.PlanPro).Error; err != nil {
		return nil, translate(err)
	}
	return s.FindTenantByID(id)
}

func (s *gormStore) CreateUser(user *model.User) error {
	return translate(s.db.Create(user).Error)
}

func (s *gormStore) FindUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) FindUserByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) FindUserInTenant(tenantID, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) ListUsers(tenantID uint) ([]model.User, error) {
	var users []model.User
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *gormStore) SaveUser(user *model.User) error {
	return translate(s.db.Save(user).Error)
}

// DeleteUser removes a user and all of their notes in one transaction.
func (s *gormStore) DeleteUser(tenantID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ? AND tenant_id = ?", id, tenantID).
			Delete(&model.Note{}).Error; err != nil {
			return translate(err)
		}
		result := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.User{})
		if result.Error != nil {
			return translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *gormStore) CountUsers(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) CountAdmins(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.User{}).
		Where("tenant_id = ? AND role = ?", tenantID, model.RoleAdmin).
		Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) CreateNote(note *model.Note) error {
	return translate(s.db.Create(note).Error)
}

func (s *gormStore) FindNote(tenantID, id uint) (*model.Note, error) {
	var note model.Note
	if err := s.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&note).Error; err != nil {
		return nil, translate(err)
	}
	return &note, nil
}

func (s *gormStore) ListNotes(tenantID uint, offset, limit int) ([]model.Note, error) {
	var notes []model.Note
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("is_sticky DESC, created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, translate(err)
	}
	return notes, nil
}

func (s *gormStore) SaveNote(note *model.Note) error {
	return translate(s.db.Save(note).Error)
}

func (s *gormStore) DeleteNote(tenantID, id uint) error {
	result := s.db.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Note{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CountNotes(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.Note{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) CountNotesByAuthor(tenantID, authorID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.Note{}).
		Where("tenant_id = ? AND author_id = ?", tenantID, authorID).
		Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) CountNotesSince(tenantID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&model.Note{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Count(&count).Error
	return count, translate(err)
}

func (s *gormStore) RecentNotes(tenantID uint, limit int) ([]model.Note, error) {
	var notes []model.Note
	if err := s.db.Where("tenant_id = ?", tenantID).
		Order("is_sticky DESC, updated_at DESC").
		Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, translate(err)
	}
	return notes, nil
}
