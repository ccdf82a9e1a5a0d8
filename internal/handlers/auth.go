// auth.go
//
// Registration, sign-in, token renewal and sign-out handlers
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

package handlers

import (
	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration and session routes
type AuthHandler struct {
	Auth *services.AuthService
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Username     string                 `json:"username"`
	Email        string                 `json:"email"`
	Password     string                 `json:"password"`
	Nombre       string                 `json:"nombre"`
	Carrera      string                 `json:"carrera"`
	Cuatrimestre string                 `json:"cuatrimestre"`
	Categoria    string                 `json:"categoria"`
	Roles        types.FlexList[string] `json:"roles" swaggertype:"array,string"`
}

// SigninRequest is the body of POST /auth/signin
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refreshtoken
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Signup handles POST /api/auth/signup
// @Summary Register a user
// @Description Roles may be a string or a list; the default is "user"
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignupRequest true "New user"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	err := h.Auth.Signup(c.UserContext(), services.SignupInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Nombre:       req.Nombre,
		Carrera:      req.Carrera,
		Cuatrimestre: req.Cuatrimestre,
		Categoria:    req.Categoria,
		Roles:        req.Roles,
	})
	if err != nil {
		return err
	}
	return utils.MessageResponse(c, "User registered successfully!", fiber.StatusOK)
}

// Signin handles POST /api/auth/signin
// @Summary Sign in
// @Description Returns an access token, a refresh token and the user's profile and roles
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SigninRequest true "Credentials"
// @Success 200 {object} services.Session
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /auth/signin [post]
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.Auth.IssueSession(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, session, fiber.StatusOK)
}

// RefreshToken handles POST /api/auth/refreshtoken
// @Summary Renew an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} services.TokenPair
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /auth/refreshtoken [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.Auth.Renew(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, pair, fiber.StatusOK)
}

// Signout handles POST /api/auth/signout
// @Summary Sign out
// @Description Revokes the caller's refresh tokens
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /auth/signout [post]
func (h *AuthHandler) Signout(c *fiber.Ctx) error {
	if err := h.Auth.Signout(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	return utils.MessageResponse(c, "You've been signed out!", fiber.StatusOK)
}
