// projects.go
//
// Project handlers with multipart document upload
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
	"io"
	"mime/multipart"

	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles project routes
type ProjectHandler struct {
	Projects *services.ProjectService
}

// CreateProjectResponse is returned by a successful create
type CreateProjectResponse struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
	Estatus string `json:"estatus"`
}

// projectJSON is the JSON form of a metadata-only update
type projectJSON struct {
	NombreProyecto *string `json:"nombreProyecto"`
	Name           *string `json:"name"`
	Descripcion    *string `json:"descripcion"`
	Description    *string `json:"description"`
	VideoPitch     *string `json:"videoPitch"`
	VideoLink      *string `json:"videoLink"`
}

// documentFields maps form file fields to document kinds
var documentFields = map[string]models.DocumentKind{
	"fichaTecnica": models.DocumentTechnicalSheet,
	"modeloCanva":  models.DocumentCanvaModel,
	"pdfProyecto":  models.DocumentProjectPdf,
}

// projectInput reads metadata and documents from a multipart or JSON request
func projectInput(c *fiber.Ctx) (services.ProjectInput, error) {
	var in services.ProjectInput

	if !isMultipart(c) {
		if c.Is("json") {
			var body projectJSON
			if err := parseBody(c, &body); err != nil {
				return in, err
			}
			in.Name = firstNonNil(body.NombreProyecto, body.Name)
			in.Description = firstNonNil(body.Descripcion, body.Description)
			in.VideoLink = firstNonNil(body.VideoPitch, body.VideoLink)
			return in, nil
		}
		in.Name = formField(c, "nombreProyecto", "name")
		in.Description = formField(c, "descripcion", "description")
		in.VideoLink = formField(c, "videoPitch", "videoLink")
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, types.InvalidArgument("Malformed multipart form.", "project.form").WithCause(err)
	}
	in.Name = formField(c, "nombreProyecto", "name")
	in.Description = formField(c, "descripcion", "description")
	in.VideoLink = formField(c, "videoPitch", "videoLink")

	for field, kind := range documentFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		in.Files = append(in.Files, upload(kind, headers[0]))
	}
	return in, nil
}

func upload(kind models.DocumentKind, fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Kind:        kind,
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Create handles POST /api/projects
// @Summary Create a project
// @Description Multipart form; documents must be PDF files of at most 25MB
// @Tags Projects
// @Accept mpfd
// @Produce json
// @Param nombreProyecto formData string true "Project name"
// @Param descripcion formData string false "Description"
// @Param videoPitch formData string false "Pitch video URL"
// @Param fichaTecnica formData file false "Technical sheet"
// @Param modeloCanva formData file false "Canvas model"
// @Param pdfProyecto formData file false "Project document"
// @Success 201 {object} CreateProjectResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	in, err := projectInput(c)
	if err != nil {
		return err
	}
	project, err := h.Projects.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, CreateProjectResponse{
		ID:      project.ID,
		Message: "Project created successfully!",
		Estatus: project.Estatus,
	}, fiber.StatusCreated)
}

// List handles GET /api/projects
// @Summary List projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Router /projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.Projects.List(c.UserContext())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, projects, fiber.StatusOK)
}

// Get handles GET /api/projects/:id
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.Projects.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, project, fiber.StatusOK)
}

// ListByUser handles GET /api/projects/user/:userId
// @Summary List a user's projects
// @Tags Projects
// @Produce json
// @Param userId path int true "Owner user ID"
// @Success 200 {array} models.Project
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/user/{userId} [get]
func (h *ProjectHandler) ListByUser(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	return h.listByOwner(c, id)
}

// ListMine handles GET /api/projects/my
// @Summary List the caller's projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Security BearerAuth
// @Router /projects/my [get]
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	return h.listByOwner(c, middleware.UserID(c))
}

func (h *ProjectHandler) listByOwner(c *fiber.Ctx, userID uint) error {
	projects, err := h.Projects.ListByOwner(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, projects, fiber.StatusOK)
}

// Update handles PUT /api/projects/:id
// @Summary Update a project
// @Description Owner or admin; metadata and/or replacement documents
// @Tags Projects
// @Accept mpfd,json
// @Produce json
// @Param id path int true "Project ID"
// @Param nombreProyecto formData string false "Project name"
// @Param descripcion formData string false "Description"
// @Param videoPitch formData string false "Pitch video URL"
// @Param fichaTecnica formData file false "Technical sheet"
// @Param modeloCanva formData file false "Canvas model"
// @Param pdfProyecto formData file false "Project document"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	in, err := projectInput(c)
	if err != nil {
		return err
	}
	if _, err := h.Projects.Update(c.UserContext(), id, middleware.UserID(c), in); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Project updated successfully.", fiber.StatusOK)
}

// Delete handles DELETE /api/projects/:id
// @Summary Delete a project
// @Description Removes the project, its evaluations and its stored documents
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Projects.Delete(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return err
	}
	return utils.MessageResponse(c, "Project deleted successfully.", fiber.StatusOK)
}

// Download handles GET /api/projects/:projectId/download/:fileType
// @Summary Download a project document
// @Description Redirects to the stored document
// @Tags Projects
// @Param projectId path int true "Project ID"
// @Param fileType path string true "technicalSheet, canvaModel or projectPdf"
// @Success 302
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /projects/{projectId}/download/{fileType} [get]
func (h *ProjectHandler) Download(c *fiber.Ctx) error {
	id, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	url, err := h.Projects.DocumentURL(c.UserContext(), id, c.Params("fileType"))
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusFound)
}
