// users.go
//
// User administration, role assignment and board handlers
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
	"fmt"

	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user administration and role assignment routes
type UserHandler struct {
	Identity *services.IdentityService
}

// AssignRoleRequest is the body of POST /users/assign-role
type AssignRoleRequest struct {
	UserID types.FlexFloat `json:"userId" swaggertype:"integer"`
	RoleID types.FlexFloat `json:"roleId" swaggertype:"integer"`
}

// ListUsers handles GET /api/users
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Identity.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, users, fiber.StatusOK)
}

// GetUser handles GET /api/users/:id
// @Summary Get a user with roles
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.Identity.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// UpdateUser handles PUT /api/users/:id
// @Summary Update a user
// @Description Partial update; a new password is hashed
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body services.UserUpdate true "Fields to change"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.UserUpdate
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := h.Identity.UpdateUser(c.UserContext(), id, in); err != nil {
		return err
	}
	return utils.MessageResponse(c, "User updated successfully.", fiber.StatusOK)
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete a user
// @Description Refused while the user owns projects or appears in evaluations
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Identity.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MessageResponse(c, "User deleted successfully.", fiber.StatusOK)
}

// UserBoard handles GET /api/users/userboard
// @Summary User board
// @Tags Users
// @Produce json
// @Success 200 {object} utils.MessageResponseStruct
// @Security BearerAuth
// @Router /users/userboard [get]
func (h *UserHandler) UserBoard(c *fiber.Ctx) error {
	return utils.MessageResponse(c, fmt.Sprintf("User Content. Welcome user ID: %d", middleware.UserID(c)), fiber.StatusOK)
}

// ModeratorBoard handles GET /api/users/modboard
// @Summary Moderator board
// @Tags Users
// @Produce json
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/modboard [get]
func (h *UserHandler) ModeratorBoard(c *fiber.Ctx) error {
	return utils.MessageResponse(c, fmt.Sprintf("Moderator Content. Welcome moderator ID: %d", middleware.UserID(c)), fiber.StatusOK)
}

// AdminBoard handles GET /api/users/adminboard
// @Summary Admin board
// @Description Every user plus the evaluators
// @Tags Users
// @Produce json
// @Success 200 {object} services.AdminBoard
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/adminboard [get]
func (h *UserHandler) AdminBoard(c *fiber.Ctx) error {
	board, err := h.Identity.AdminBoard(c.UserContext())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, board, fiber.StatusOK)
}

// AssignRole handles POST /api/users/assign-role
// @Summary Assign a role to a user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body AssignRoleRequest true "User and role"
// @Success 201 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/assign-role [post]
func (h *UserHandler) AssignRole(c *fiber.Ctx) error {
	var req AssignRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, _ := flexID(req.UserID)
	roleID, _ := flexID(req.RoleID)
	if err := h.Identity.AssignRole(c.UserContext(), userID, roleID); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Role assigned to user successfully.", fiber.StatusCreated)
}

// RemoveRole handles DELETE /api/users/:userId/roles/:roleId
// @Summary Remove a role from a user
// @Tags Users
// @Produce json
// @Param userId path int true "User ID"
// @Param roleId path int true "Role ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{userId}/roles/{roleId} [delete]
func (h *UserHandler) RemoveRole(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	roleID, err := paramID(c, "roleId")
	if err != nil {
		return err
	}
	if err := h.Identity.RemoveRole(c.UserContext(), userID, roleID); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Role removed from user successfully.", fiber.StatusOK)
}

// UserRoles handles GET /api/users/:userId/roles
// @Summary List a user's roles
// @Description Callers may read their own roles; admins may read anyone's
// @Tags Users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.Role
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /users/{userId}/roles [get]
func (h *UserHandler) UserRoles(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	roles, err := h.Identity.UserRoles(c.UserContext(), middleware.UserID(c), userID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, roles, fiber.StatusOK)
}

// flexID accepts ids sent as numbers or numeric strings
func flexID(v types.FlexFloat) (uint, bool) {
	if !v.Present || !v.Valid || v.Value < 1 || v.Value != float64(uint32(v.Value)) {
		return 0, false
	}
	return uint(v.Value), true
}
