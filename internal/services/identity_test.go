package services

import (
	"context"
	"testing"

	"github.com/DanielPPerez/API-Estancia2/internal/cache"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func roleID(t *testing.T, f *fixture, name string) uint {
	t.Helper()
	roles, err := f.repos.Roles.FindByNames(context.Background(), []string{name})
	if err != nil || len(roles) != 1 {
		t.Fatalf("Failed to load role %s: %v", name, err)
	}
	return roles[0].ID
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentityService(f.repos, f.resolver)
	ctx := context.Background()

	ana := testutil.CreateTestUser(t, f.db, "ana", models.RoleUser)
	testutil.CreateTestUser(t, f.db, "beto", models.RoleEvaluador)

	err := svc.UpdateUser(ctx, ana.ID, UserUpdate{Nombre: str("Ana Ruiz"), Password: str("nueva")})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	updated, err := svc.GetUser(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if updated.Nombre != "Ana Ruiz" {
		t.Errorf("Expected nombre to change, got %q", updated.Nombre)
	}
	if err := security.VerifyPassword(updated.Password, "nueva"); err != nil {
		t.Errorf("Expected the new password to be hashed and stored: %v", err)
	}

	expectKind(t, svc.UpdateUser(ctx, ana.ID, UserUpdate{}), types.ErrInvalidArgument, "No fields to update provided.")
	expectKind(t, svc.UpdateUser(ctx, ana.ID, UserUpdate{Username: str("beto")}), types.ErrConflict, "Error: username already exists.")
	expectKind(t, svc.UpdateUser(ctx, 999, UserUpdate{Nombre: str("x")}), types.ErrNotFound, "User with id 999 not found.")

	board, err := svc.AdminBoard(ctx)
	if err != nil {
		t.Fatalf("AdminBoard failed: %v", err)
	}
	if len(board.Usuarios) != 2 || len(board.Evaluadores) != 1 || board.Evaluadores[0].Username != "beto" {
		t.Errorf("Unexpected board %+v", board)
	}
}

func TestDeleteUserWithDependents(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentityService(f.repos, f.resolver)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, f.db, "alumno", models.RoleUser)
	loner := testutil.CreateTestUser(t, f.db, "solo", models.RoleUser)
	testutil.CreateTestProject(t, f.db, owner.ID, "Uno")

	err := svc.DeleteUser(ctx, owner.ID)
	expectKind(t, err, types.ErrConflict, "")

	if err := svc.DeleteUser(ctx, loner.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	_, err = svc.GetUser(ctx, loner.ID)
	expectKind(t, err, types.ErrNotFound, "")

	var links int64
	f.db.Model(&models.UserRole{}).Where("user_id = ?", loner.ID).Count(&links)
	if links != 0 {
		t.Errorf("Expected role links to be removed, got %d", links)
	}
}

func TestRoleAssignmentInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	f.resolver = NewRoleResolver(f.repos.Users, cache.NewRedisRoleCache(client, 0))
	svc := NewIdentityService(f.repos, f.resolver)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, f.db, "eva", models.RoleUser)
	admin := testutil.CreateTestUser(t, f.db, "jefa", models.RoleAdmin)
	evaluador := roleID(t, f, models.RoleEvaluador)

	if ok, _ := f.resolver.HasAnyRole(ctx, user.ID, models.RoleEvaluador); ok {
		t.Fatal("Expected eva not to be an evaluator yet")
	}

	if err := svc.AssignRole(ctx, user.ID, evaluador); err != nil {
		t.Fatalf("AssignRole failed: %v", err)
	}
	if ok, _ := f.resolver.HasAnyRole(ctx, user.ID, models.RoleEvaluador); !ok {
		t.Error("Expected the cached role set to be refreshed after assignment")
	}

	expectKind(t, svc.AssignRole(ctx, user.ID, evaluador), types.ErrConflict, "User already has this role.")
	expectKind(t, svc.AssignRole(ctx, 0, evaluador), types.ErrInvalidArgument, "User ID and Role ID are required.")
	expectKind(t, svc.AssignRole(ctx, user.ID, 999), types.ErrNotFound, "Role with id 999 not found.")

	_, err := svc.UserRoles(ctx, user.ID, admin.ID)
	expectKind(t, err, types.ErrForbidden, "You can only view your own roles.")
	roles, err := svc.UserRoles(ctx, admin.ID, user.ID)
	if err != nil || len(roles) != 2 {
		t.Fatalf("Expected admin to read 2 roles, got %v (%v)", roles, err)
	}

	if err := svc.RemoveRole(ctx, user.ID, evaluador); err != nil {
		t.Fatalf("RemoveRole failed: %v", err)
	}
	if ok, _ := f.resolver.HasAnyRole(ctx, user.ID, models.RoleEvaluador); ok {
		t.Error("Expected the cached role set to be refreshed after removal")
	}
}

func TestRoleCRUD(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentityService(f.repos, f.resolver)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "  Jurado ")
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	if role.Name != "jurado" {
		t.Errorf("Expected lower-cased name, got %q", role.Name)
	}

	_, err = svc.CreateRole(ctx, "JURADO")
	expectKind(t, err, types.ErrConflict, "Error: Role name already exists.")
	_, err = svc.CreateRole(ctx, " ")
	expectKind(t, err, types.ErrInvalidArgument, "Role name cannot be empty!")

	if err := svc.RenameRole(ctx, role.ID, "Juez"); err != nil {
		t.Fatalf("RenameRole failed: %v", err)
	}
	got, err := svc.GetRole(ctx, role.ID)
	if err != nil || got.Name != "juez" {
		t.Fatalf("Expected renamed role, got %+v (%v)", got, err)
	}
	expectKind(t, svc.RenameRole(ctx, role.ID, models.RoleAdmin), types.ErrConflict, "Error: Role name already exists.")

	if err := svc.DeleteRole(ctx, role.ID); err != nil {
		t.Fatalf("DeleteRole failed: %v", err)
	}
	expectKind(t, svc.DeleteRole(ctx, role.ID), types.ErrNotFound, "")

	roles, err := svc.ListRoles(ctx)
	if err != nil || len(roles) != len(models.RoleVocabulary) {
		t.Errorf("Expected only the seeded roles, got %v (%v)", roles, err)
	}
}
