// Seeds the database with two demo tenants ("acme" and "globex"), an admin
// and a member in each, and a few sample notes.
package main

import (
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/config"
	"notes-service/pkg/database"
	"notes-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	st := store.NewGormStore(db)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	tenants := []struct {
		name  string
		slug  string
		admin string
		user  string
	}{
		{"Acme Corporation", "acme", "admin@acme.test", "user@acme.test"},
		{"Globex Corporation", "globex", "admin@globex.test", "user@globex.test"},
	}

	for _, t := range tenants {
		if _, err := st.FindTenantBySlug(t.slug); err == nil {
			log.Info("Tenant already seeded, skipping", zap.String("slug", t.slug))
			continue
		}

		tenant := model.Tenant{
			Slug:             t.slug,
			Name:             t.name,
			SubscriptionPlan: model.PlanFree,
		}
		admin := model.User{
			Email:        t.admin,
			PasswordHash: string(hashedPassword),
			Role:         model.RoleAdmin,
		}
		if err := st.CreateTenantWithAdmin(&tenant, &admin); err != nil {
			log.Fatal("Failed to seed tenant", zap.String("slug", t.slug), zap.Error(err))
		}

		member := model.User{
			Email:        t.user,
			PasswordHash: string(hashedPassword),
			Role:         model.RoleMember,
			TenantID:     tenant.ID,
		}
		if err := st.CreateUser(&member); err != nil {
			log.Fatal("Failed to seed member", zap.String("email", t.user), zap.Error(err))
		}

		note := model.Note{
			Title:    "Welcome to " + t.name,
			Content:  "This is a sample note. Free plan tenants can create up to 3 notes.",
			AuthorID: admin.ID,
			TenantID: tenant.ID,
			IsSticky: true,
		}
		if err := st.CreateNote(&note); err != nil {
			log.Fatal("Failed to seed note", zap.Error(err))
		}

		log.Info("Seeded tenant",
			zap.String("slug", t.slug),
			zap.String("admin", t.admin),
			zap.String("member", t.user))
	}

	log.Info("Seeding complete")
}
