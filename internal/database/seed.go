package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/DanielPPerez/API-Estancia2/data"
	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"gorm.io/gorm"
)

// SeedRoles creates any missing role from the embedded role list
func SeedRoles(ctx context.Context, db *gorm.DB) error {
	var names []string
	if err := json.Unmarshal(data.SeedRoles, &names); err != nil {
		return fmt.Errorf("failed to decode seed roles: %w", err)
	}

	for _, name := range names {
		role := models.Role{}
		result := db.WithContext(ctx).
			Where(models.Role{Name: models.NormalizeRoleName(name)}).
			FirstOrCreate(&role)
		if result.Error != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, result.Error)
		}
		if result.RowsAffected > 0 {
			log.Printf("Role '%s' created", role.Name)
		}
	}

	return nil
}

// SeedAdmin creates the bootstrap admin with every role, once
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if !cfg.AdminSeedEnabled() {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", cfg.AdminUsername, cfg.AdminEmail).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roles []models.Role
		if err := tx.Where("name IN ?", models.RoleVocabulary).Find(&roles).Error; err != nil {
			return err
		}

		admin := models.User{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: hash,
			Nombre:   cfg.AdminUsername,
			Roles:    roles,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Printf("Admin user '%s' created with %d roles", admin.Username, len(roles))
		return nil
	})
}
