// auth.go
//
// Credential lifecycle: signup, sessions, refresh tokens
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of API-Estancia2.
// API-Estancia2 is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// API-Estancia2 is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with API-Estancia2.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/metrics"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/google/uuid"
)

// SignupInput carries a registration request
type SignupInput struct {
	Username     string
	Email        string
	Password     string
	Nombre       string
	Carrera      string
	Cuatrimestre string
	Categoria    string
	Roles        []string
}

// Session is returned by a successful sign-in
type Session struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Nombre       string   `json:"nombre"`
	Carrera      string   `json:"carrera"`
	Cuatrimestre string   `json:"cuatrimestre"`
	Categoria    string   `json:"categoria"`
	Roles        []string `json:"roles"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// TokenPair is returned by Renew
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService handles registration and the credential lifecycle
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokens     repository.RefreshTokenRepository
	issuer     security.TokenIssuer
	resolver   *RoleResolver
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates an AuthService
func NewAuthService(repos *repository.Repositories, issuer security.TokenIssuer, resolver *RoleResolver, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      repos.Users,
		roles:      repos.Roles,
		tokens:     repos.RefreshTokens,
		issuer:     issuer,
		resolver:   resolver,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Signup registers a user with the requested roles, or "user" when none are given
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.InvalidArgument("Username, email, and password are required.", "auth.signup")
	}

	if taken, err := s.users.UsernameTaken(ctx, in.Username, 0); err != nil {
		return err
	} else if taken {
		return types.Conflict("Failed! Username is already in use!", "auth.signup")
	}
	if taken, err := s.users.EmailTaken(ctx, in.Email, 0); err != nil {
		return err
	} else if taken {
		return types.Conflict("Failed! Email is already in use!", "auth.signup")
	}

	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return types.Internal("User registration failed.", "auth.signup").WithCause(err)
	}

	nombre := strings.TrimSpace(in.Nombre)
	if nombre == "" {
		nombre = in.Username
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     hash,
		Nombre:       nombre,
		Carrera:      in.Carrera,
		Cuatrimestre: in.Cuatrimestre,
		Categoria:    in.Categoria,
		Roles:        roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return types.Conflict("Failed! Username or email is already in use!", "auth.signup").WithCause(err)
		}
		return err
	}
	return nil
}

func (s *AuthService) resolveRoles(ctx context.Context, requested []string) ([]models.Role, error) {
	names := make([]string, 0, len(requested))
	for _, r := range requested {
		if name := models.NormalizeRoleName(r); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		roles, err := s.roles.FindByNames(ctx, []string{models.RoleUser})
		if err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			return nil, types.Internal("Default role 'user' not found. Please configure roles.", "auth.signup")
		}
		return roles, nil
	}

	roles, err := s.roles.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(names) {
		return nil, types.InvalidArgument("One or more specified roles do not exist.", "auth.signup")
	}
	return roles, nil
}

// IssueSession verifies the credentials, mints an access token and replaces
// the user's refresh token so that exactly one stays live
func (s *AuthService) IssueSession(ctx context.Context, username, password string) (*Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, types.InvalidArgument("Username and password are required.", "auth.signin")
	}

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			metrics.SigninAttempts.WithLabelValues("unknown_user").Inc()
			return nil, types.NotFound("User not found.", "auth.signin")
		}
		return nil, err
	}

	if err := security.VerifyPassword(user.Password, password); err != nil {
		metrics.SigninAttempts.WithLabelValues("bad_password").Inc()
		return nil, types.Unauthorized("Invalid Password!", "auth.signin")
	}

	accessToken, _, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, types.Internal("Sign in failed.", "auth.signin").WithCause(err)
	}

	refresh := &models.RefreshToken{
		Token:      uuid.NewString(),
		UserID:     user.ID,
		ExpiryDate: s.now().Add(s.refreshTTL),
	}
	if err := s.tokens.ReplaceForUser(ctx, refresh); err != nil {
		return nil, err
	}

	metrics.SigninAttempts.WithLabelValues("ok").Inc()
	return &Session{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Nombre:       user.Nombre,
		Carrera:      user.Carrera,
		Cuatrimestre: user.Cuatrimestre,
		Categoria:    user.Categoria,
		Roles:        user.RoleNames(),
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
	}, nil
}

// Renew mints a new access token for a live refresh token. The refresh token
// itself is returned unchanged.
func (s *AuthService) Renew(ctx context.Context, token string) (*TokenPair, error) {
	if token == "" {
		return nil, types.Forbidden("Refresh token is required!", "auth.refresh")
	}

	rt, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.Forbidden("Refresh token is not in database!", "auth.refresh")
		}
		return nil, err
	}

	if rt.IsExpired(s.now()) {
		if err := s.tokens.Delete(ctx, rt.ID); err != nil {
			return nil, err
		}
		return nil, types.Forbidden("Refresh token was expired. Please make a new signin request.", "auth.refresh")
	}

	accessToken, _, err := s.issuer.Issue(rt.UserID)
	if err != nil {
		return nil, types.Internal("Failed to refresh token.", "auth.refresh").WithCause(err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: rt.Token}, nil
}

// Signout drops every refresh token of the user and its cached roles
func (s *AuthService) Signout(ctx context.Context, userID uint) error {
	if err := s.tokens.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, userID)
	return nil
}
