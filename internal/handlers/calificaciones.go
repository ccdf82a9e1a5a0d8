// calificaciones.go
//
// Evaluation submit, list, update and delete handlers
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
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// CalificacionHandler handles evaluation routes
type CalificacionHandler struct {
	Evaluations *services.EvaluationService
}

// Submit handles POST /api/calificaciones
// @Summary Submit an evaluation
// @Description Criteria are 0 to 5; without an explicit total the mean is stored
// @Tags Calificaciones
// @Accept json
// @Produce json
// @Param body body services.EvaluationInput true "Scores"
// @Success 201 {object} utils.CreatedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /calificaciones [post]
func (h *CalificacionHandler) Submit(c *fiber.Ctx) error {
	var in services.EvaluationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	created, err := h.Evaluations.Submit(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, created.ID, "Calificación submitted successfully!")
}

// List handles GET /api/calificaciones
// @Summary List all evaluations
// @Tags Calificaciones
// @Produce json
// @Success 200 {array} models.Calificacion
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /calificaciones [get]
func (h *CalificacionHandler) List(c *fiber.Ctx) error {
	return h.list(c, repository.CalificacionFilter{})
}

// ListByProject handles GET /api/calificaciones/proyecto/:proyectoId
// @Summary List evaluations of a project
// @Tags Calificaciones
// @Produce json
// @Param proyectoId path int true "Project ID"
// @Success 200 {array} models.Calificacion
// @Security BearerAuth
// @Router /calificaciones/proyecto/{proyectoId} [get]
func (h *CalificacionHandler) ListByProject(c *fiber.Ctx) error {
	id, err := paramID(c, "proyectoId")
	if err != nil {
		return err
	}
	return h.list(c, repository.CalificacionFilter{ProyectoID: id})
}

// ListMine handles GET /api/calificaciones/evaluador/my
// @Summary List the caller's evaluations
// @Tags Calificaciones
// @Produce json
// @Success 200 {array} models.Calificacion
// @Security BearerAuth
// @Router /calificaciones/evaluador/my [get]
func (h *CalificacionHandler) ListMine(c *fiber.Ctx) error {
	return h.list(c, repository.CalificacionFilter{EvaluadorID: middleware.UserID(c)})
}

// ListByEvaluator handles GET /api/calificaciones/evaluador/:evaluadorId
// @Summary List evaluations by evaluator
// @Tags Calificaciones
// @Produce json
// @Param evaluadorId path int true "Evaluator user ID"
// @Success 200 {array} models.Calificacion
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /calificaciones/evaluador/{evaluadorId} [get]
func (h *CalificacionHandler) ListByEvaluator(c *fiber.Ctx) error {
	id, err := paramID(c, "evaluadorId")
	if err != nil {
		return err
	}
	return h.list(c, repository.CalificacionFilter{EvaluadorID: id})
}

func (h *CalificacionHandler) list(c *fiber.Ctx, filter repository.CalificacionFilter) error {
	list, err := h.Evaluations.List(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// Update handles PUT /api/calificaciones/:id
// @Summary Update an evaluation
// @Description Only the author or an admin may update
// @Tags Calificaciones
// @Accept json
// @Produce json
// @Param id path int true "Calificacion ID"
// @Param body body services.EvaluationInput true "Fields to change"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /calificaciones/{id} [put]
func (h *CalificacionHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.EvaluationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if _, err := h.Evaluations.Update(c.UserContext(), id, middleware.UserID(c), in); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Calificación updated successfully.", fiber.StatusOK)
}

// Delete handles DELETE /api/calificaciones/:id
// @Summary Delete an evaluation
// @Tags Calificaciones
// @Produce json
// @Param id path int true "Calificacion ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /calificaciones/{id} [delete]
func (h *CalificacionHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Evaluations.Delete(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Calificación deleted successfully.", fiber.StatusOK)
}
