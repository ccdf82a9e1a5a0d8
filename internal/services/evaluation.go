// evaluation.go
//
// Evaluation engine: rubric scoring, one grade per evaluator and project
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
	"fmt"
	"math"

	"github.com/DanielPPerez/API-Estancia2/internal/metrics"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
)

// EvaluationInput is the body of a submit or update request. Numbers may
// arrive as JSON numbers or numeric strings.
type EvaluationInput struct {
	ProyectoID    types.FlexFloat `json:"proyectoId" swaggertype:"number"`
	Innovacion    types.FlexFloat `json:"innovacion" swaggertype:"number"`
	Mercado       types.FlexFloat `json:"mercado" swaggertype:"number"`
	Tecnica       types.FlexFloat `json:"tecnica" swaggertype:"number"`
	Financiera    types.FlexFloat `json:"financiera" swaggertype:"number"`
	Pitch         types.FlexFloat `json:"pitch" swaggertype:"number"`
	Observaciones *string         `json:"observaciones"`
	Total         types.FlexFloat `json:"total" swaggertype:"number"`
}

func (in *EvaluationInput) criterion(name string) types.FlexFloat {
	switch name {
	case models.CriterionInnovacion:
		return in.Innovacion
	case models.CriterionMercado:
		return in.Mercado
	case models.CriterionTecnica:
		return in.Tecnica
	case models.CriterionFinanciera:
		return in.Financiera
	case models.CriterionPitch:
		return in.Pitch
	}
	return types.FlexFloat{}
}

// Criteria validates the supplied criteria, naming the first offending field
func (in *EvaluationInput) Criteria() (models.Criteria, error) {
	scores := models.Criteria{}
	for _, name := range models.CriterionNames {
		v := in.criterion(name)
		if !v.Present {
			continue
		}
		if !v.Valid || !models.InRange(v.Value) {
			return nil, invalidScore(name)
		}
		scores[name] = v.Value
	}
	return scores, nil
}

// ExplicitTotal returns the caller supplied total rounded to two decimals, or nil
func (in *EvaluationInput) ExplicitTotal() (*float64, error) {
	if !in.Total.Present {
		return nil, nil
	}
	if !in.Total.Valid || !models.InRange(in.Total.Value) {
		return nil, invalidScore("total")
	}
	total := models.Round2(in.Total.Value)
	return &total, nil
}

func invalidScore(field string) error {
	return types.InvalidArgument(
		fmt.Sprintf("Invalid value for %s. Must be a number between 0 and 5.", field),
		"calificacion.validation")
}

func calificacionNotFound(id uint) error {
	return types.NotFound(fmt.Sprintf("Calificación with ID %d not found.", id), "calificacion.notFound")
}

// EvaluationService owns the evaluation invariants: one evaluation per
// evaluator and project, scores in range, total derived from the criteria
// mean unless given, and changes limited to the author or an admin
type EvaluationService struct {
	calificaciones repository.CalificacionRepository
	projects       repository.ProjectRepository
	resolver       *RoleResolver
}

// NewEvaluationService creates an EvaluationService
func NewEvaluationService(repos *repository.Repositories, resolver *RoleResolver) *EvaluationService {
	return &EvaluationService{
		calificaciones: repos.Calificaciones,
		projects:       repos.Projects,
		resolver:       resolver,
	}
}

// Submit creates the evaluator's evaluation of a project
func (s *EvaluationService) Submit(ctx context.Context, evaluatorID uint, in EvaluationInput) (*models.Calificacion, error) {
	proyectoID, ok := positiveID(in.ProyectoID)
	if evaluatorID == 0 || !ok {
		return nil, types.InvalidArgument("Evaluator ID and Project ID are required.", "calificacion.validation")
	}

	scores, err := in.Criteria()
	if err != nil {
		return nil, err
	}
	explicit, err := in.ExplicitTotal()
	if err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, proyectoID, false)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.NotFound(fmt.Sprintf("Project with ID %d not found.", proyectoID), "calificacion.project")
		}
		return nil, err
	}

	c := &models.Calificacion{
		UserEvaluadorID: evaluatorID,
		UserAlumnoID:    project.IDUser,
		ProyectoID:      project.ID,
		Total:           scores.Mean(),
	}
	c.SetCriteria(scores)
	if in.Observaciones != nil {
		c.Observaciones = *in.Observaciones
	}
	if explicit != nil {
		c.Total = *explicit
	}

	if err := s.calificaciones.CreateUnique(ctx, c); err != nil {
		return nil, err
	}

	metrics.CalificacionesSubmitted.Inc()
	return c, nil
}

// List returns evaluations newest first. Filtering by evaluator requires the
// caller to be that evaluator or an admin; an unfiltered list requires admin
// or moderator. Filtering by project is open to any caller.
func (s *EvaluationService) List(ctx context.Context, callerID uint, filter repository.CalificacionFilter) ([]models.Calificacion, error) {
	switch {
	case filter.EvaluadorID != 0 && filter.EvaluadorID != callerID:
		if err := s.require(ctx, callerID, "Require Admin Role!", models.RoleAdmin); err != nil {
			return nil, err
		}
	case filter.EvaluadorID == 0 && filter.ProyectoID == 0:
		if err := s.require(ctx, callerID, "Require Moderator or Admin Role!", models.RoleModerator, models.RoleAdmin); err != nil {
			return nil, err
		}
	}

	list, err := s.calificaciones.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Calificacion{}
	}
	return list, nil
}

// Update changes criteria, notes or total of an evaluation. Without an
// explicit total, a change to any criterion recomputes the total as the mean
// of the stored and supplied criteria together.
func (s *EvaluationService) Update(ctx context.Context, id, callerID uint, in EvaluationInput) (*models.Calificacion, error) {
	scores, err := in.Criteria()
	if err != nil {
		return nil, err
	}
	explicit, err := in.ExplicitTotal()
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, id, callerID, "update"); err != nil {
		return nil, err
	}

	if len(scores) == 0 && in.Observaciones == nil && explicit == nil {
		return nil, types.InvalidArgument("No fields to update provided.", "calificacion.validation")
	}

	updated, err := s.calificaciones.Modify(ctx, id, func(c *models.Calificacion) error {
		c.SetCriteria(scores)
		if in.Observaciones != nil {
			c.Observaciones = *in.Observaciones
		}
		switch {
		case explicit != nil:
			c.Total = *explicit
		case len(scores) > 0:
			c.Total = c.Criteria().Mean()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, calificacionNotFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an evaluation; same authorization as Update
func (s *EvaluationService) Delete(ctx context.Context, id, callerID uint) error {
	if err := s.authorize(ctx, id, callerID, "delete"); err != nil {
		return err
	}
	if err := s.calificaciones.Delete(ctx, id, nil); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return calificacionNotFound(id)
		}
		return err
	}
	return nil
}

// authorize allows the evaluation's author and any admin
func (s *EvaluationService) authorize(ctx context.Context, id, callerID uint, action string) error {
	current, err := s.calificaciones.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return calificacionNotFound(id)
		}
		return err
	}
	if current.UserEvaluadorID == callerID {
		return nil
	}

	isAdmin, err := s.resolver.IsAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return types.Forbidden(
			fmt.Sprintf("Forbidden: You are not authorized to %s this calificación.", action),
			"calificacion.forbidden")
	}
	return nil
}

func (s *EvaluationService) require(ctx context.Context, callerID uint, message string, roles ...string) error {
	ok, err := s.resolver.HasAnyRole(ctx, callerID, roles...)
	if err != nil {
		return err
	}
	if !ok {
		return types.Forbidden(message, "calificacion.forbidden")
	}
	return nil
}

// positiveID accepts whole positive numbers only
func positiveID(v types.FlexFloat) (uint, bool) {
	if !v.Present || !v.Valid || v.Value < 1 || v.Value != math.Trunc(v.Value) || v.Value > math.MaxUint32 {
		return 0, false
	}
	return uint(v.Value), true
}
