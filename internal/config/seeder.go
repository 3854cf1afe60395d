package config

import (
	"strings"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config, log *zap.Logger) *Seeder {
	return &Seeder{db: db, cfg: cfg, log: log}
}

// Run executes all seeders. Failures are logged and skipped.
func (s *Seeder) Run() {
	s.log.Info("running database seeders")

	if err := s.seedDefaultGroup(); err != nil {
		s.log.Warn("default group seeder skipped", zap.Error(err))
	}

	if s.cfg.IsDev() {
		if err := s.seedAdminUser(); err != nil {
			s.log.Warn("admin seeder skipped", zap.Error(err))
		}
	}

	s.log.Info("database seeding completed")
}

// seedDefaultGroup creates the chama group when none exists
func (s *Seeder) seedDefaultGroup() error {
	var count int64
	if err := s.db.Model(&models.ChamaGroup{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	group := &models.ChamaGroup{
		ID:                  uuid.NewString(),
		Name:                s.cfg.Seed.GroupName,
		MonthlyContribution: s.cfg.Seed.MonthlyContribution.Round(2),
	}
	if err := s.db.Create(group).Error; err != nil {
		return err
	}

	s.log.Info("default group created",
		zap.String("name", group.Name),
		zap.String("monthly_contribution", group.MonthlyContribution.StringFixed(2)),
	)
	return nil
}

// seedAdminUser creates a superuser from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD.
// Development only; production admins are created through a secure process.
func (s *Seeder) seedAdminUser() error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.Seed.AdminEmail))
	if email == "" || s.cfg.Seed.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		FirstName:   "Admin",
		Password:    hashedPassword,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	s.log.Info("admin user created", zap.String("email", admin.Email))
	return nil
}
