package config

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	cfg   SeedConfig
	log   *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(users repositories.UserRepository, cfg SeedConfig, log *zap.Logger) *Seeder {
	return &Seeder{users: users, cfg: cfg, log: log}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.seedAdminUser(ctx)
}

// seedAdminUser creates the bootstrap admin when SEED_ADMIN_EMAIL is set
// and no user holds that email yet
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if s.cfg.AdminEmail == "" {
		return nil
	}
	if !password.ValidatePassword(s.cfg.AdminPassword) {
		return errors.New("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}

	exists, err := s.users.ExistsByEmail(ctx, s.cfg.AdminEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hashed, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "Administrator",
		Email:    s.cfg.AdminEmail,
		Password: hashed,
		Role:     string(domain.RoleAdmin),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.Info("admin user seeded", zap.String("email", admin.Email))
	return nil
}
