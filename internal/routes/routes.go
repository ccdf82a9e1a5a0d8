// routes.go
//
// HTTP route table
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

// Package routes binds handlers and middleware to the HTTP surface.
package routes

import (
	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/handlers"
	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// Dependencies are the collaborators the route table needs
type Dependencies struct {
	Config      *config.Config
	Issuer      security.TokenIssuer
	Resolver    *services.RoleResolver
	Auth        *services.AuthService
	Identity    *services.IdentityService
	Evaluations *services.EvaluationService
	Projects    *services.ProjectService
	Transfer    *services.TransferService
	Health      services.HealthDeps

	// AuthLimiter throttles /api/auth; nil disables it
	AuthLimiter *middleware.RateLimiter

	// UploadDir is served at /uploads when documents are stored locally
	UploadDir string
}

// Setup registers every route on app, ending with the JSON 404 fallback
func Setup(app *fiber.App, deps Dependencies) {
	verify := middleware.VerifyToken(deps.Issuer)
	admin := middleware.AuthAdmin(deps.Resolver)
	evaluadorOrAdmin := middleware.AuthEvaluadorOrAdmin(deps.Resolver)

	healthHandler := &handlers.HealthHandler{Config: deps.Config, Deps: deps.Health}
	authHandler := &handlers.AuthHandler{Auth: deps.Auth}
	userHandler := &handlers.UserHandler{Identity: deps.Identity}
	roleHandler := &handlers.RoleHandler{Identity: deps.Identity}
	calificacionHandler := &handlers.CalificacionHandler{Evaluations: deps.Evaluations}
	projectHandler := &handlers.ProjectHandler{Projects: deps.Projects}
	excelHandler := &handlers.ExcelHandler{Transfer: deps.Transfer}

	app.Get("/health", healthHandler.Health)

	if deps.UploadDir != "" {
		app.Static("/uploads", deps.UploadDir)
	}

	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	api.Get("/", healthHandler.Welcome)

	// Credentials
	auth := api.Group("/auth")
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.Handler())
	}
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/signin", authHandler.Signin)
	auth.Post("/refreshtoken", authHandler.RefreshToken)
	auth.Post("/signout", verify, authHandler.Signout)

	// Users; the static paths precede /:id
	users := api.Group("/users", verify)
	users.Get("/userboard", userHandler.UserBoard)
	users.Get("/modboard", middleware.AuthModerator(deps.Resolver), userHandler.ModeratorBoard)
	users.Get("/adminboard", admin, userHandler.AdminBoard)
	users.Post("/assign-role", admin, userHandler.AssignRole)
	users.Get("/:userId/roles", userHandler.UserRoles)
	users.Delete("/:userId/roles/:roleId", admin, userHandler.RemoveRole)
	users.Get("/", admin, userHandler.ListUsers)
	users.Get("/:id", admin, userHandler.GetUser)
	users.Put("/:id", admin, userHandler.UpdateUser)
	users.Delete("/:id", admin, userHandler.DeleteUser)

	// Roles
	roles := api.Group("/roles", verify, admin)
	roles.Post("/", roleHandler.CreateRole)
	roles.Get("/", roleHandler.ListRoles)
	roles.Get("/:id", roleHandler.GetRole)
	roles.Put("/:id", roleHandler.UpdateRole)
	roles.Delete("/:id", roleHandler.DeleteRole)

	// Evaluations
	calificaciones := api.Group("/calificaciones", verify)
	calificaciones.Post("/", evaluadorOrAdmin, calificacionHandler.Submit)
	calificaciones.Get("/", middleware.AuthModeratorOrAdmin(deps.Resolver), calificacionHandler.List)
	calificaciones.Get("/proyecto/:proyectoId", calificacionHandler.ListByProject)
	calificaciones.Get("/evaluador/my", evaluadorOrAdmin, calificacionHandler.ListMine)
	calificaciones.Get("/evaluador/:evaluadorId", admin, calificacionHandler.ListByEvaluator)
	calificaciones.Put("/:id", evaluadorOrAdmin, calificacionHandler.Update)
	calificaciones.Delete("/:id", evaluadorOrAdmin, calificacionHandler.Delete)

	// Projects (public reads)
	projects := api.Group("/projects")
	projects.Get("/", projectHandler.List)
	projects.Get("/my", verify, projectHandler.ListMine)
	projects.Get("/user/:userId", verify, projectHandler.ListByUser)
	projects.Get("/:projectId/download/:fileType", verify, projectHandler.Download)
	projects.Get("/:id", projectHandler.Get)
	projects.Post("/", verify, projectHandler.Create)
	projects.Put("/:id", verify, projectHandler.Update)
	projects.Delete("/:id", verify, projectHandler.Delete)

	// Spreadsheet transfer
	excel := api.Group("/excel", verify, admin)
	excel.Get("/export/database", excelHandler.ExportDatabase)
	excel.Get("/export/calificaciones", excelHandler.ExportCalificaciones)
	excel.Post("/import/database", excelHandler.ImportDatabase)
	excel.Get("/imports", excelHandler.ImportRuns)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})
}
