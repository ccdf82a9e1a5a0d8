package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"gorm.io/gorm"
)

// TestUniqueIndexOnServerDatabases exercises the composite unique index on real
// MySQL and Postgres servers. Requires Docker.
func TestUniqueIndexOnServerDatabases(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	for _, dbType := range []string{"mysql", "postgres"} {
		t.Run(dbType, func(t *testing.T) {
			opts := testutil.ContainerOptionsFromEnv()
			opts.DBType = dbType
			opts.DBImage = ""

			tc, err := testutil.CreateTestContainers(t, opts)
			if err != nil {
				t.Skipf("Containers unavailable: %v", err)
			}
			defer tc.Terminate(t)

			db, err := database.Connect(tc.Config(testutil.TestSecret))
			if err != nil {
				t.Fatalf("Connect failed: %v", err)
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				t.Fatalf("AutoMigrate failed: %v", err)
			}
			if err := database.SeedRoles(context.Background(), db); err != nil {
				t.Fatalf("SeedRoles failed: %v", err)
			}

			owner := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
			evaluator := testutil.CreateTestUser(t, db, "evaluador", models.RoleEvaluador)
			project := testutil.CreateTestProject(t, db, owner.ID, "Huerto")

			// Bypass the pre-insert check so the index itself rejects the row
			row := func() *models.Calificacion {
				return &models.Calificacion{UserEvaluadorID: evaluator.ID, UserAlumnoID: owner.ID, ProyectoID: project.ID}
			}
			if err := db.Omit("Proyecto", "Evaluador", "Alumno").Create(row()).Error; err != nil {
				t.Fatalf("First insert failed: %v", err)
			}
			err = db.Omit("Proyecto", "Evaluador", "Alumno").Create(row()).Error
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				t.Fatalf("Expected duplicated key, got %v", err)
			}

			repos := New(db, 10*time.Second)
			if err := repos.Calificaciones.CreateUnique(context.Background(), row()); !errors.Is(err, types.ErrConflict) {
				t.Errorf("Expected conflict, got %v", err)
			}
		})
	}
}
