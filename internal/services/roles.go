package services

import (
	"context"
	"slices"

	"github.com/DanielPPerez/API-Estancia2/internal/cache"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
)

// RoleResolver loads a user's normalized role names, through the cache when one is configured
type RoleResolver struct {
	users repository.UserRepository
	cache cache.RoleCache
}

// NewRoleResolver creates a resolver; roleCache may be nil
func NewRoleResolver(users repository.UserRepository, roleCache cache.RoleCache) *RoleResolver {
	return &RoleResolver{users: users, cache: roleCache}
}

// RoleNames returns the caller's role set
func (r *RoleResolver) RoleNames(ctx context.Context, userID uint) ([]string, error) {
	if r.cache != nil {
		if roles, ok := r.cache.Get(ctx, userID); ok {
			return roles, nil
		}
	}

	roles, err := r.users.RoleNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(ctx, userID, roles)
	}
	return roles, nil
}

// HasAnyRole reports whether the user holds at least one of want
func (r *RoleResolver) HasAnyRole(ctx context.Context, userID uint, want ...string) (bool, error) {
	roles, err := r.RoleNames(ctx, userID)
	if err != nil {
		return false, err
	}
	return HasAnyRole(roles, want...), nil
}

// IsAdmin reports whether the user holds the admin role
func (r *RoleResolver) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	return r.HasAnyRole(ctx, userID, models.RoleAdmin)
}

// Invalidate forgets one user's cached roles
func (r *RoleResolver) Invalidate(ctx context.Context, userID uint) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, userID)
	}
}

// InvalidateAll forgets every cached role set
func (r *RoleResolver) InvalidateAll(ctx context.Context) {
	if r.cache != nil {
		r.cache.Flush(ctx)
	}
}

// HasAnyRole reports whether roles intersects want, comparing normalized names
func HasAnyRole(roles []string, want ...string) bool {
	for _, role := range roles {
		if slices.Contains(want, models.NormalizeRoleName(role)) {
			return true
		}
	}
	return false
}
