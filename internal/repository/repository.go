// Package repository provides the data access layer over GORM.
package repository

import (
	"context"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"gorm.io/gorm"
)

// Repositories bundles the per-entity repositories sharing one connection
type Repositories struct {
	Users          UserRepository
	Roles          RoleRepository
	Projects       ProjectRepository
	Calificaciones CalificacionRepository
	RefreshTokens  RefreshTokenRepository
	ImportRuns     ImportRunRepository
	Tables         TableRepository
}

// New creates every repository with the same per-operation timeout
func New(db *gorm.DB, timeout time.Duration) *Repositories {
	b := base{db: db, timeout: timeout}
	return &Repositories{
		Users:          &userRepository{b},
		Roles:          &roleRepository{b},
		Projects:       &projectRepository{b},
		Calificaciones: &calificacionRepository{b},
		RefreshTokens:  &refreshTokenRepository{b},
		ImportRuns:     &importRunRepository{b},
		Tables:         &tableRepository{b},
	}
}

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

// conn bounds a single operation by the configured timeout
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if b.timeout <= 0 {
		return b.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

func translate(err error, op string) error {
	return database.TranslateError(err, op)
}
