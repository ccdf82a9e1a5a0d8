package repository

import (
	"context"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository defines the interface for project data operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint, withOwner bool) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	ListByOwner(ctx context.Context, userID uint) ([]models.Project, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type projectRepository struct {
	base
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Omit(clause.Associations).Create(project).Error, "project.create")
}

func (r *projectRepository) FindByID(ctx context.Context, id uint, withOwner bool) (*models.Project, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db
	if withOwner {
		q = q.Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "nombre", "email")
		})
	}

	var project models.Project
	if err := q.First(&project, id).Error; err != nil {
		return nil, translate(err, "project.find")
	}
	return &project, nil
}

// List returns every project newest first with a short owner summary
func (r *projectRepository) List(ctx context.Context) ([]models.Project, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var projects []models.Project
	err := db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "nombre", "categoria")
		}).
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, translate(err, "project.list")
	}
	return projects, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, userID uint) ([]models.Project, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var projects []models.Project
	err := db.Where("id_user = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, translate(err, "project.list")
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Project{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error, "project.update")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "project.update")
	}
	return nil
}

// Delete removes the project and its evaluations in one transaction
func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proyecto_id = ?", id).Delete(&models.Calificacion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "project.delete")
}
