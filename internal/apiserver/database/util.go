package database

import (
	"context"
	"errors"

	"github.com/amoylab/ragtrack/internal/common/config"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin seeds the super admin account from configuration if no
// user with that email exists yet. Safe to run on every start.
func InitDefaultAdmin(ctx context.Context, db Database, cfg *config.SuperAdminConfig) error {
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, err := db.GetUserByEmail(ctx, cfg.Email)
	if err == nil {
		// Admin already exists
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}

	return db.CreateUser(ctx, &User{
		Name:     name,
		Email:    cfg.Email,
		Password: string(hash),
		Role:     RoleAdmin,
		IsActive: true,
	})
}
