package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepos(t *testing.T) (*Repositories, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open gorm over sqlmock: %v", err)
	}
	return New(db, time.Second), mock
}

func TestCreateUniqueChecksInsideTransaction(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "calificaciones" WHERE user_evaluador_id = \$1 AND proyecto_id = \$2`).
		WithArgs(3, 9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "calificaciones"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	c := &models.Calificacion{UserEvaluadorID: 3, UserAlumnoID: 2, ProyectoID: 9, Total: 4}
	if err := repos.Calificaciones.CreateUnique(context.Background(), c); err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}
	if c.ID != 11 {
		t.Errorf("Expected id 11, got %d", c.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestCreateUniqueRollsBackOnExisting(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "calificaciones"`).
		WithArgs(3, 9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	c := &models.Calificacion{UserEvaluadorID: 3, UserAlumnoID: 2, ProyectoID: 9}
	err := repos.Calificaciones.CreateUnique(context.Background(), c)
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("Expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestQueryTimeoutIsUnavailable(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnError(context.DeadlineExceeded)

	_, err := repos.Roles.List(context.Background())
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("Expected unavailable, got %v", err)
	}
}
