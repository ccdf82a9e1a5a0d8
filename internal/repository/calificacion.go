package repository

import (
	"context"
	"errors"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MsgDuplicateCalificacion is returned when an evaluator grades a project twice
const MsgDuplicateCalificacion = "You have already submitted a grade for this project."

// CalificacionFilter narrows List; zero fields are ignored
type CalificacionFilter struct {
	ProyectoID  uint
	EvaluadorID uint
}

// CalificacionRepository defines the interface for evaluation data operations.
type CalificacionRepository interface {
	CreateUnique(ctx context.Context, c *models.Calificacion) error
	FindByID(ctx context.Context, id uint) (*models.Calificacion, error)
	List(ctx context.Context, filter CalificacionFilter) ([]models.Calificacion, error)
	Modify(ctx context.Context, id uint, apply func(current *models.Calificacion) error) (*models.Calificacion, error)
	Delete(ctx context.Context, id uint, guard func(current *models.Calificacion) error) error
}

type calificacionRepository struct {
	base
}

// CreateUnique inserts c unless the evaluator already graded the project.
// The check and the insert share a transaction and the composite unique
// index catches any concurrent insert that slips past the check.
func (r *calificacionRepository) CreateUnique(ctx context.Context, c *models.Calificacion) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Calificacion{}).
			Where("user_evaluador_id = ? AND proyecto_id = ?", c.UserEvaluadorID, c.ProyectoID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return types.Conflict(MsgDuplicateCalificacion, "calificacion.duplicate")
		}
		return tx.Omit(clause.Associations).Create(c).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.Conflict(MsgDuplicateCalificacion, "calificacion.duplicate").WithCause(err)
	}
	return translate(err, "calificacion.create")
}

func (r *calificacionRepository) FindByID(ctx context.Context, id uint) (*models.Calificacion, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var c models.Calificacion
	if err := db.First(&c, id).Error; err != nil {
		return nil, translate(err, "calificacion.find")
	}
	return &c, nil
}

// List returns matching evaluations newest first with project and user names
func (r *calificacionRepository) List(ctx context.Context, filter CalificacionFilter) ([]models.Calificacion, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.
		Preload("Proyecto", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "id_user")
		}).
		Preload("Evaluador", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "nombre")
		}).
		Preload("Alumno", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "nombre")
		})
	if filter.ProyectoID != 0 {
		q = q.Where("proyecto_id = ?", filter.ProyectoID)
	}
	if filter.EvaluadorID != 0 {
		q = q.Where("user_evaluador_id = ?", filter.EvaluadorID)
	}

	var list []models.Calificacion
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, translate(err, "calificacion.list")
	}
	return list, nil
}

// Modify locks the row, lets apply change it, then writes criteria, notes and total back
func (r *calificacionRepository) Modify(ctx context.Context, id uint, apply func(current *models.Calificacion) error) (*models.Calificacion, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var current models.Calificacion
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return err
		}
		if err := apply(&current); err != nil {
			return err
		}
		return tx.Model(&current).
			Select(append(models.CriterionColumns(), "observaciones", "total", "updated_at")).
			Updates(&current).Error
	})
	if err != nil {
		return nil, translate(err, "calificacion.update")
	}
	return &current, nil
}

// Delete locks the row, runs guard and removes it when guard allows
func (r *calificacionRepository) Delete(ctx context.Context, id uint, guard func(current *models.Calificacion) error) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Calificacion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return err
		}
		if guard != nil {
			if err := guard(&current); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Calificacion{}, id).Error
	})
	return translate(err, "calificacion.delete")
}
