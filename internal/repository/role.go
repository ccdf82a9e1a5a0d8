package repository

import (
	"context"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"gorm.io/gorm"
)

// RoleRepository defines the interface for role data operations.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, id uint) (*models.Role, error)
	FindByNames(ctx context.Context, names []string) ([]models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, id uint) error
}

type roleRepository struct {
	base
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Create(role).Error, "role.create")
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var role models.Role
	if err := db.First(&role, id).Error; err != nil {
		return nil, translate(err, "role.find")
	}
	return &role, nil
}

func (r *roleRepository) FindByNames(ctx context.Context, names []string) ([]models.Role, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var roles []models.Role
	if err := db.Where("name IN ?", names).Order("id").Find(&roles).Error; err != nil {
		return nil, translate(err, "role.find")
	}
	return roles, nil
}

func (r *roleRepository) List(ctx context.Context) ([]models.Role, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var roles []models.Role
	if err := db.Order("id").Find(&roles).Error; err != nil {
		return nil, translate(err, "role.list")
	}
	return roles, nil
}

func (r *roleRepository) Rename(ctx context.Context, id uint, name string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Role{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return translate(result.Error, "role.update")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "role.update")
	}
	return nil
}

// Delete removes the role and every assignment of it
func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Role{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "role.delete")
}
