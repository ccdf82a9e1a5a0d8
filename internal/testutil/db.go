// Package testutil holds shared helpers for package tests and local containers.
package testutil

import (
	"context"
	"testing"

	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a migrated in-memory SQLite database with the roles seeded
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// A single connection keeps every statement on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if err := database.SeedRoles(context.Background(), db); err != nil {
		t.Fatalf("Failed to seed roles: %v", err)
	}

	return db
}

// CreateTestUser inserts a user holding the named roles; the password is "password"
func CreateTestUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()

	hash, err := security.HashPassword("password")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var roleRows []models.Role
	if len(roles) > 0 {
		if err := db.Where("name IN ?", roles).Find(&roleRows).Error; err != nil {
			t.Fatalf("Failed to load roles: %v", err)
		}
	}

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Nombre:   username,
		Roles:    roleRows,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return &user
}

// CreateTestProject inserts a project without documents
func CreateTestProject(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Project {
	t.Helper()

	project := models.Project{IDUser: ownerID, Name: name, Description: name + " description"}
	project.DeriveEstatus()
	if err := db.Omit("User").Create(&project).Error; err != nil {
		t.Fatalf("Failed to create project %s: %v", name, err)
	}
	return &project
}
