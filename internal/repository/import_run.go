package repository

import (
	"context"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
)

// ImportRunRepository records spreadsheet import outcomes.
type ImportRunRepository interface {
	Create(ctx context.Context, run *models.ImportRun) error
	ListRecent(ctx context.Context, limit int) ([]models.ImportRun, error)
}

type importRunRepository struct {
	base
}

func (r *importRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Create(run).Error, "importRun.create")
}

func (r *importRunRepository) ListRecent(ctx context.Context, limit int) ([]models.ImportRun, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var runs []models.ImportRun
	if err := db.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, translate(err, "importRun.list")
	}
	return runs, nil
}
