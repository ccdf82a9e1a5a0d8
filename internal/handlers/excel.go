// excel.go
//
// Spreadsheet export and import handlers
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

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelHandler handles spreadsheet export and import routes
type ExcelHandler struct {
	Transfer *services.TransferService
}

// ExportDatabase handles GET /api/excel/export/database
// @Summary Export every table
// @Tags Excel
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /excel/export/database [get]
func (h *ExcelHandler) ExportDatabase(c *fiber.Ctx) error {
	export, err := h.Transfer.ExportDatabase(c.UserContext())
	if err != nil {
		return err
	}
	return sendWorkbook(c, export)
}

// ExportCalificaciones handles GET /api/excel/export/calificaciones
// @Summary Export evaluations with names
// @Tags Excel
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /excel/export/calificaciones [get]
func (h *ExcelHandler) ExportCalificaciones(c *fiber.Ctx) error {
	export, err := h.Transfer.ExportCalificaciones(c.UserContext())
	if err != nil {
		return err
	}
	return sendWorkbook(c, export)
}

func sendWorkbook(c *fiber.Ctx, export *services.Export) error {
	c.Set(fiber.HeaderContentType, XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Status(fiber.StatusOK).Send(export.Content.Bytes())
}

// ImportDatabase handles POST /api/excel/import/database
// @Summary Import a workbook
// @Description Updates rows by id and inserts rows without one; invalid rows are reported and skipped
// @Tags Excel
// @Accept mpfd
// @Produce json
// @Param excelFile formData file true "Workbook (.xlsx, at most 10MB)"
// @Success 200 {object} services.ImportReport
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /excel/import/database [post]
func (h *ExcelHandler) ImportDatabase(c *fiber.Ctx) error {
	fh, err := c.FormFile("excelFile")
	if err != nil {
		return services.ValidateImportFile("", 0)
	}
	if err := services.ValidateImportFile(fh.Filename, fh.Size); err != nil {
		return err
	}

	file, err := fh.Open()
	if err != nil {
		return types.InvalidArgument("The uploaded file could not be read.", "excel.import").WithCause(err)
	}
	defer file.Close()

	report, err := h.Transfer.Import(c.UserContext(), middleware.UserID(c), fh.Filename, file)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, report, fiber.StatusOK)
}

// ImportRuns handles GET /api/excel/imports
// @Summary List recent imports
// @Tags Excel
// @Produce json
// @Param limit query int false "Maximum runs returned (default 20, at most 100)"
// @Success 200 {array} models.ImportRun
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /excel/imports [get]
func (h *ExcelHandler) ImportRuns(c *fiber.Ctx) error {
	runs, err := h.Transfer.ImportRuns(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, runs, fiber.StatusOK)
}
