package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
)

func ptr(v float64) *float64 { return &v }

func TestCalificacionCreateUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
	evaluator := testutil.CreateTestUser(t, db, "evaluador", models.RoleEvaluador)
	project := testutil.CreateTestProject(t, db, owner.ID, "Huerto")

	first := &models.Calificacion{
		UserEvaluadorID: evaluator.ID,
		UserAlumnoID:    owner.ID,
		ProyectoID:      project.ID,
		Innovacion:      ptr(4),
		Total:           4,
	}
	if err := repos.Calificaciones.CreateUnique(ctx, first); err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("Expected id to be assigned")
	}

	second := &models.Calificacion{
		UserEvaluadorID: evaluator.ID,
		UserAlumnoID:    owner.ID,
		ProyectoID:      project.ID,
		Total:           1,
	}
	err := repos.Calificaciones.CreateUnique(ctx, second)
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("Expected conflict, got %v", err)
	}
	ce, _ := types.AsCustomError(err)
	if ce.Message != MsgDuplicateCalificacion {
		t.Errorf("Unexpected message %q", ce.Message)
	}

	var count int64
	db.Model(&models.Calificacion{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}

func TestCalificacionListAndModify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
	ev1 := testutil.CreateTestUser(t, db, "ev1", models.RoleEvaluador)
	ev2 := testutil.CreateTestUser(t, db, "ev2", models.RoleEvaluador)
	p1 := testutil.CreateTestProject(t, db, owner.ID, "Uno")
	p2 := testutil.CreateTestProject(t, db, owner.ID, "Dos")

	for _, c := range []*models.Calificacion{
		{UserEvaluadorID: ev1.ID, UserAlumnoID: owner.ID, ProyectoID: p1.ID, Total: 3},
		{UserEvaluadorID: ev2.ID, UserAlumnoID: owner.ID, ProyectoID: p1.ID, Total: 4},
		{UserEvaluadorID: ev1.ID, UserAlumnoID: owner.ID, ProyectoID: p2.ID, Total: 5},
	} {
		if err := repos.Calificaciones.CreateUnique(ctx, c); err != nil {
			t.Fatalf("CreateUnique failed: %v", err)
		}
	}

	byProject, err := repos.Calificaciones.List(ctx, CalificacionFilter{ProyectoID: p1.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byProject) != 2 {
		t.Fatalf("Expected 2 evaluations for project, got %d", len(byProject))
	}
	if byProject[0].Evaluador == nil || byProject[0].Evaluador.Username == "" {
		t.Error("Expected evaluator to be preloaded")
	}

	byEvaluator, err := repos.Calificaciones.List(ctx, CalificacionFilter{EvaluadorID: ev1.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byEvaluator) != 2 {
		t.Fatalf("Expected 2 evaluations for evaluator, got %d", len(byEvaluator))
	}
	if byEvaluator[0].Proyecto == nil || byEvaluator[0].Proyecto.Name == "" {
		t.Error("Expected project to be preloaded")
	}

	updated, err := repos.Calificaciones.Modify(ctx, byEvaluator[0].ID, func(c *models.Calificacion) error {
		c.SetCriteria(models.Criteria{models.CriterionPitch: 2})
		c.Total = c.Criteria().Mean()
		return nil
	})
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if updated.Total != 2 {
		t.Errorf("Expected total 2, got %v", updated.Total)
	}

	stored, err := repos.Calificaciones.FindByID(ctx, updated.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Pitch == nil || *stored.Pitch != 2 || stored.Total != 2 {
		t.Errorf("Unexpected stored evaluation: %+v", stored)
	}

	guardErr := types.Forbidden("no", "test")
	if err := repos.Calificaciones.Delete(ctx, stored.ID, func(*models.Calificacion) error { return guardErr }); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("Expected guard error, got %v", err)
	}
	if err := repos.Calificaciones.Delete(ctx, stored.ID, nil); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repos.Calificaciones.FindByID(ctx, stored.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestProjectDeleteCascadesEvaluations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
	evaluator := testutil.CreateTestUser(t, db, "evaluador", models.RoleEvaluador)
	project := testutil.CreateTestProject(t, db, owner.ID, "Huerto")

	c := &models.Calificacion{UserEvaluadorID: evaluator.ID, UserAlumnoID: owner.ID, ProyectoID: project.ID}
	if err := repos.Calificaciones.CreateUnique(ctx, c); err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}

	if err := repos.Projects.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int64
	db.Model(&models.Calificacion{}).Where("proyecto_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected evaluations to be removed, got %d", count)
	}
	if err := repos.Projects.Delete(ctx, project.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestProjectListIncludesOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
	testutil.CreateTestProject(t, db, owner.ID, "Uno")
	testutil.CreateTestProject(t, db, owner.ID, "Dos")

	projects, err := repos.Projects.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(projects))
	}
	for _, p := range projects {
		if p.User == nil || p.User.Username != "alumno" {
			t.Errorf("Expected owner summary on project %d", p.ID)
		}
		if p.User != nil && p.User.Email != "" {
			t.Error("Expected owner email to be left out of the list summary")
		}
	}

	mine, err := repos.Projects.ListByOwner(ctx, owner.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListByOwner returned %d projects, err %v", len(mine), err)
	}
}

func TestUserRolesAndDependents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	roles, err := repos.Roles.FindByNames(ctx, []string{models.RoleUser, models.RoleAdmin})
	if err != nil || len(roles) != 2 {
		t.Fatalf("FindByNames returned %d roles, err %v", len(roles), err)
	}

	user := &models.User{Username: "nuevo", Email: "nuevo@example.com", Password: "x", Nombre: "Nuevo", Roles: roles}
	if err := repos.Users.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	names, err := repos.Users.RoleNames(ctx, user.ID)
	if err != nil {
		t.Fatalf("RoleNames failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Expected 2 roles, got %v", names)
	}

	dup := &models.User{Username: "nuevo", Email: "otro@example.com", Password: "x", Nombre: "Otro"}
	if err := repos.Users.Create(ctx, dup); !errors.Is(err, types.ErrConflict) {
		t.Errorf("Expected conflict on duplicate username, got %v", err)
	}

	if err := repos.Users.AssignRole(ctx, user.ID, roles[0].ID); !errors.Is(err, types.ErrConflict) {
		t.Errorf("Expected conflict on duplicate assignment, got %v", err)
	}
	removed, err := repos.Users.RemoveRole(ctx, user.ID, roles[0].ID)
	if err != nil || !removed {
		t.Errorf("RemoveRole returned %v, %v", removed, err)
	}

	testutil.CreateTestProject(t, db, user.ID, "Mio")
	projects, evaluations, err := repos.Users.CountDependents(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountDependents failed: %v", err)
	}
	if projects != 1 || evaluations != 0 {
		t.Errorf("Expected 1 project and 0 evaluations, got %d and %d", projects, evaluations)
	}
}

func TestRefreshTokenReplace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := New(db, 5*time.Second)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db, "alumno", models.RoleUser)
	expiry := time.Now().Add(time.Hour)

	for _, tok := range []string{"first", "second"} {
		rt := &models.RefreshToken{Token: tok, UserID: user.ID, ExpiryDate: expiry}
		if err := repos.RefreshTokens.ReplaceForUser(ctx, rt); err != nil {
			t.Fatalf("ReplaceForUser failed: %v", err)
		}
	}

	if _, err := repos.RefreshTokens.FindByToken(ctx, "first"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected first token to be replaced, got %v", err)
	}
	rt, err := repos.RefreshTokens.FindByToken(ctx, "second")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if rt.UserID != user.ID {
		t.Errorf("Expected token for user %d, got %d", user.ID, rt.UserID)
	}
}
