package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
)

// UserUpdate carries a partial profile update; nil fields are left unchanged
type UserUpdate struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	Nombre       *string `json:"nombre"`
	Carrera      *string `json:"carrera"`
	Cuatrimestre *string `json:"cuatrimestre"`
	Categoria    *string `json:"categoria"`
}

// AdminBoard lists every user plus the evaluators
type AdminBoard struct {
	Usuarios    []models.User `json:"usuarios"`
	Evaluadores []models.User `json:"evaluadores"`
}

// IdentityService administers users, roles and role assignments
type IdentityService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	resolver *RoleResolver
}

// NewIdentityService creates an IdentityService
func NewIdentityService(repos *repository.Repositories, resolver *RoleResolver) *IdentityService {
	return &IdentityService{users: repos.Users, roles: repos.Roles, resolver: resolver}
}

func userNotFound(id uint) error {
	return types.NotFound(fmt.Sprintf("User with id %d not found.", id), "user.notFound")
}

func roleNotFound(id uint) error {
	return types.NotFound(fmt.Sprintf("Role with id %d not found.", id), "role.notFound")
}

func mapNotFound(err error, notFound func() error) error {
	if errors.Is(err, types.ErrNotFound) {
		return notFound()
	}
	return err
}

// ListUsers returns every user with roles
func (s *IdentityService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser returns one user with roles
func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, func() error { return userNotFound(id) })
	}
	return user, nil
}

// UpdateUser applies a partial update, hashing a new password
func (s *IdentityService) UpdateUser(ctx context.Context, id uint, in UserUpdate) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return mapNotFound(err, func() error { return userNotFound(id) })
	}

	fields := map[string]interface{}{}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return types.InvalidArgument("Username cannot be empty.", "user.validation")
		}
		taken, err := s.users.UsernameTaken(ctx, username, id)
		if err != nil {
			return err
		}
		if taken {
			return types.Conflict("Error: username already exists.", "user.update")
		}
		fields["username"] = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return types.InvalidArgument("Email cannot be empty.", "user.validation")
		}
		taken, err := s.users.EmailTaken(ctx, email, id)
		if err != nil {
			return err
		}
		if taken {
			return types.Conflict("Error: email already exists.", "user.update")
		}
		fields["email"] = email
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := security.HashPassword(*in.Password)
		if err != nil {
			return types.Internal("Error updating user.", "user.update").WithCause(err)
		}
		fields["password"] = hash
	}
	if in.Nombre != nil {
		fields["nombre"] = *in.Nombre
	}
	if in.Carrera != nil {
		fields["carrera"] = *in.Carrera
	}
	if in.Cuatrimestre != nil {
		fields["cuatrimestre"] = *in.Cuatrimestre
	}
	if in.Categoria != nil {
		fields["categoria"] = *in.Categoria
	}

	if len(fields) == 0 {
		return types.InvalidArgument("No fields to update provided.", "user.validation")
	}
	return s.users.Update(ctx, id, fields)
}

// DeleteUser removes a user that owns no projects and appears in no evaluation
func (s *IdentityService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return mapNotFound(err, func() error { return userNotFound(id) })
	}

	projects, evaluations, err := s.users.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if projects > 0 || evaluations > 0 {
		return types.Conflict(
			fmt.Sprintf("User with id %d still has %d project(s) and %d evaluation(s).", id, projects, evaluations),
			"user.delete")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return mapNotFound(err, func() error { return userNotFound(id) })
	}
	s.resolver.Invalidate(ctx, id)
	return nil
}

// AdminBoard returns every user together with the evaluators
func (s *IdentityService) AdminBoard(ctx context.Context) (*AdminBoard, error) {
	all, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	evaluadores, err := s.users.ListByRole(ctx, models.RoleEvaluador)
	if err != nil {
		return nil, err
	}
	if evaluadores == nil {
		evaluadores = []models.User{}
	}
	return &AdminBoard{Usuarios: all, Evaluadores: evaluadores}, nil
}

// AssignRole links a role to a user
func (s *IdentityService) AssignRole(ctx context.Context, userID, roleID uint) error {
	if userID == 0 || roleID == 0 {
		return types.InvalidArgument("User ID and Role ID are required.", "user.assignRole")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return mapNotFound(err, func() error { return userNotFound(userID) })
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return mapNotFound(err, func() error { return roleNotFound(roleID) })
	}

	has, err := s.users.HasRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if has {
		return types.Conflict("User already has this role.", "user.assignRole")
	}
	if err := s.users.AssignRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return types.Conflict("User already has this role.", "user.assignRole").WithCause(err)
		}
		return err
	}
	s.resolver.Invalidate(ctx, userID)
	return nil
}

// RemoveRole unlinks a role from a user
func (s *IdentityService) RemoveRole(ctx context.Context, userID, roleID uint) error {
	if userID == 0 || roleID == 0 {
		return types.InvalidArgument("User ID and Role ID are required.", "user.removeRole")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return mapNotFound(err, func() error { return userNotFound(userID) })
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return mapNotFound(err, func() error { return roleNotFound(roleID) })
	}
	if _, err := s.users.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, userID)
	return nil
}

// UserRoles lists a user's roles; callers may only read their own unless admin
func (s *IdentityService) UserRoles(ctx context.Context, callerID, userID uint) ([]models.Role, error) {
	if callerID != userID {
		isAdmin, err := s.resolver.IsAdmin(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, types.Forbidden("You can only view your own roles.", "user.roles")
		}
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, mapNotFound(err, func() error { return userNotFound(userID) })
	}
	roles, err := s.users.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

func normalizeNewRoleName(name string) (string, error) {
	name = models.NormalizeRoleName(name)
	if name == "" {
		return "", types.InvalidArgument("Role name cannot be empty!", "role.validation")
	}
	return name, nil
}

// CreateRole adds a role; names are stored lower case
func (s *IdentityService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	name, err := normalizeNewRoleName(name)
	if err != nil {
		return nil, err
	}
	role := &models.Role{Name: name}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, types.Conflict("Error: Role name already exists.", "role.create").WithCause(err)
		}
		return nil, err
	}
	return role, nil
}

// ListRoles returns every role
func (s *IdentityService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// GetRole returns one role
func (s *IdentityService) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, func() error { return roleNotFound(id) })
	}
	return role, nil
}

// RenameRole changes a role's name and drops every cached role set
func (s *IdentityService) RenameRole(ctx context.Context, id uint, name string) error {
	name, err := normalizeNewRoleName(name)
	if err != nil {
		return err
	}
	if err := s.roles.Rename(ctx, id, name); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return types.Conflict("Error: Role name already exists.", "role.update").WithCause(err)
		}
		return mapNotFound(err, func() error { return roleNotFound(id) })
	}
	s.resolver.InvalidateAll(ctx)
	return nil
}

// DeleteRole removes a role with its assignments
func (s *IdentityService) DeleteRole(ctx context.Context, id uint) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return mapNotFound(err, func() error { return roleNotFound(id) })
	}
	s.resolver.InvalidateAll(ctx)
	return nil
}
