// roles.go
//
// Role administration handlers
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
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// RoleHandler handles role administration routes
type RoleHandler struct {
	Identity *services.IdentityService
}

// RoleRequest is the body of role create and rename
type RoleRequest struct {
	Name string `json:"name"`
}

// CreateRole handles POST /api/roles
// @Summary Create a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param body body RoleRequest true "Role"
// @Success 201 {object} models.Role
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	var req RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.Identity.CreateRole(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, role, fiber.StatusCreated)
}

// ListRoles handles GET /api/roles
// @Summary List roles
// @Tags Roles
// @Produce json
// @Success 200 {array} models.Role
// @Security BearerAuth
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.Identity.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, roles, fiber.StatusOK)
}

// GetRole handles GET /api/roles/:id
// @Summary Get a role
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} models.Role
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /roles/{id} [get]
func (h *RoleHandler) GetRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.Identity.GetRole(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, role, fiber.StatusOK)
}

// UpdateRole handles PUT /api/roles/:id
// @Summary Rename a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param body body RoleRequest true "Role"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Identity.RenameRole(c.UserContext(), id, req.Name); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Role updated successfully.", fiber.StatusOK)
}

// DeleteRole handles DELETE /api/roles/:id
// @Summary Delete a role
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Identity.DeleteRole(c.UserContext(), id); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Role deleted successfully.", fiber.StatusOK)
}
