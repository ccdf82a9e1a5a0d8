// routes_test.go
//
// End-to-end tests over the HTTP route table
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

package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/routes"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type testApp struct {
	app     *fiber.App
	db      *gorm.DB
	issuer  security.TokenIssuer
	uploads string
}

func setupApp(t *testing.T, limiter *middleware.RateLimiter) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repos := repository.New(db, 5*time.Second)
	issuer := testutil.NewIssuer(t)
	resolver := services.NewRoleResolver(repos.Users, nil)

	uploads := t.TempDir()
	store, err := storage.NewLocalStore(uploads, "")
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}

	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:"}

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	routes.Setup(app, routes.Dependencies{
		Config:      cfg,
		Issuer:      issuer,
		Resolver:    resolver,
		Auth:        services.NewAuthService(repos, issuer, resolver, time.Hour),
		Identity:    services.NewIdentityService(repos, resolver),
		Evaluations: services.NewEvaluationService(repos, resolver),
		Projects:    services.NewProjectService(repos, store, resolver),
		Transfer:    services.NewTransferService(repos),
		Health:      services.HealthDeps{DB: db, Store: store},
		AuthLimiter: limiter,
		UploadDir:   uploads,
	})

	return &testApp{app: app, db: db, issuer: issuer, uploads: uploads}
}

func (a *testApp) token(t *testing.T, user *models.User) string {
	return testutil.MintToken(t, a.issuer, user.ID)
}

func (a *testApp) do(t *testing.T, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(t, req)
}

func (a *testApp) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	return resp
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, method, target, token string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", "application/octet-stream")
		if strings.HasSuffix(f.filename, ".pdf") {
			h.Set("Content-Type", "application/pdf")
		}
		fw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSignupSigninFlow(t *testing.T) {
	a := setupApp(t, nil)

	resp := a.do(t, "POST", "/api/auth/signup", "", map[string]interface{}{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "secret1",
		"roles":    "ROLE_EVALUADOR",
	})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var msg utils.MessageResponseStruct
	testutil.ParseJSON(t, resp, &msg)
	if msg.Message != "User registered successfully!" {
		t.Errorf("Unexpected message %q", msg.Message)
	}

	resp = a.do(t, "POST", "/api/auth/signup", "", map[string]interface{}{
		"username": "ana",
		"email":    "other@example.com",
		"password": "secret1",
	})
	testutil.AssertStatus(t, resp, fiber.StatusConflict)

	resp = a.do(t, "POST", "/api/auth/signin", "", map[string]string{"username": "ana", "password": "nope"})
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	resp = a.do(t, "POST", "/api/auth/signin", "", map[string]string{"username": "ana", "password": "secret1"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var session services.Session
	testutil.ParseJSON(t, resp, &session)
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("Expected tokens, got %+v", session)
	}
	if len(session.Roles) != 1 || session.Roles[0] != models.RoleEvaluador {
		t.Errorf("Expected roles [evaluador], got %v", session.Roles)
	}

	resp = a.do(t, "POST", "/api/auth/refreshtoken", "", map[string]string{"refreshToken": session.RefreshToken})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var pair services.TokenPair
	testutil.ParseJSON(t, resp, &pair)
	if pair.RefreshToken != session.RefreshToken {
		t.Error("Expected the refresh token to be returned unchanged")
	}

	resp = a.do(t, "POST", "/api/auth/signout", session.AccessToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "POST", "/api/auth/refreshtoken", "", map[string]string{"refreshToken": session.RefreshToken})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)
}

func TestAuthRateLimit(t *testing.T) {
	a := setupApp(t, middleware.NewRateLimiter(1, 2))

	creds := map[string]string{"username": "ghost", "password": "x"}
	for i := 0; i < 2; i++ {
		resp := a.do(t, "POST", "/api/auth/signin", "", creds)
		testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	}
	resp := a.do(t, "POST", "/api/auth/signin", "", creds)
	testutil.AssertStatus(t, resp, fiber.StatusTooManyRequests)
}

func TestCalificacionRoutes(t *testing.T) {
	a := setupApp(t, nil)

	owner := testutil.CreateTestUser(t, a.db, "owner", models.RoleUser)
	ev := testutil.CreateTestUser(t, a.db, "ev1", models.RoleEvaluador)
	plain := testutil.CreateTestUser(t, a.db, "plain", models.RoleUser)
	mod := testutil.CreateTestUser(t, a.db, "mod", models.RoleModerator)
	project := testutil.CreateTestProject(t, a.db, owner.ID, "Solar")

	scores := map[string]interface{}{
		"proyectoId": project.ID,
		"innovacion": 4,
		"mercado":    "3.5",
		"tecnica":    4.5,
		"financiera": 4,
		"pitch":      5,
	}

	resp := a.do(t, "POST", "/api/calificaciones", "", scores)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "POST", "/api/calificaciones", a.token(t, plain), scores)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "POST", "/api/calificaciones", a.token(t, ev), scores)
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var created utils.CreatedResponseStruct
	testutil.ParseJSON(t, resp, &created)
	if created.ID == 0 || created.Message != "Calificación submitted successfully!" {
		t.Errorf("Unexpected response %+v", created)
	}

	resp = a.do(t, "POST", "/api/calificaciones", a.token(t, ev), scores)
	testutil.AssertStatus(t, resp, fiber.StatusConflict)

	resp = a.do(t, "GET", fmt.Sprintf("/api/calificaciones/proyecto/%d", project.ID), a.token(t, plain), nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var list []models.Calificacion
	testutil.ParseJSON(t, resp, &list)
	if len(list) != 1 || list[0].Total != 4.2 {
		t.Fatalf("Expected one evaluation with total 4.2, got %+v", list)
	}

	resp = a.do(t, "GET", "/api/calificaciones", a.token(t, ev), nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)
	resp = a.do(t, "GET", "/api/calificaciones", a.token(t, mod), nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "GET", "/api/calificaciones/evaluador/my", a.token(t, ev), nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	list = nil
	testutil.ParseJSON(t, resp, &list)
	if len(list) != 1 {
		t.Errorf("Expected 1 evaluation, got %d", len(list))
	}

	resp = a.do(t, "GET", fmt.Sprintf("/api/calificaciones/evaluador/%d", ev.ID), a.token(t, ev), nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	target := fmt.Sprintf("/api/calificaciones/%d", created.ID)
	resp = a.do(t, "PUT", target, a.token(t, ev), map[string]interface{}{"observaciones": "solid"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "PUT", target, a.token(t, ev), map[string]interface{}{"pitch": 9})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = a.do(t, "PUT", "/api/calificaciones/abc", a.token(t, ev), map[string]interface{}{"pitch": 1})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = a.do(t, "DELETE", target, a.token(t, ev), nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	resp = a.do(t, "DELETE", target, a.token(t, ev), nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestProjectRoutes(t *testing.T) {
	a := setupApp(t, nil)

	owner := testutil.CreateTestUser(t, a.db, "owner", models.RoleUser)
	other := testutil.CreateTestUser(t, a.db, "other", models.RoleUser)
	ownerToken := a.token(t, owner)

	req := multipartRequest(t, "POST", "/api/projects", ownerToken,
		map[string]string{"descripcion": "no name"})
	testutil.AssertStatus(t, a.send(t, req), fiber.StatusBadRequest)

	req = multipartRequest(t, "POST", "/api/projects", ownerToken,
		map[string]string{"nombreProyecto": "Solar", "videoPitch": "https://example.com/v"},
		part{"fichaTecnica", "ficha.txt", "not a pdf"})
	testutil.AssertStatus(t, a.send(t, req), fiber.StatusBadRequest)

	req = multipartRequest(t, "POST", "/api/projects", ownerToken,
		map[string]string{"nombreProyecto": "Solar", "descripcion": "panels"},
		part{"fichaTecnica", "ficha.pdf", "%PDF-1 ficha"},
		part{"modeloCanva", "canva.pdf", "%PDF-1 canva"},
		part{"pdfProyecto", "proyecto.pdf", "%PDF-1 proyecto"})
	resp := a.send(t, req)
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var created struct {
		ID      uint   `json:"id"`
		Message string `json:"message"`
		Estatus string `json:"estatus"`
	}
	testutil.ParseJSON(t, resp, &created)
	if created.Estatus != models.EstatusSubido {
		t.Errorf("Expected estatus %q, got %q", models.EstatusSubido, created.Estatus)
	}

	resp = a.do(t, "GET", "/api/projects", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var projects []models.Project
	testutil.ParseJSON(t, resp, &projects)
	if len(projects) != 1 || projects[0].User == nil || projects[0].User.Username != "owner" {
		t.Fatalf("Expected one project with its owner, got %+v", projects)
	}

	resp = a.do(t, "GET", "/api/projects/my", ownerToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	download := fmt.Sprintf("/api/projects/%d/download/technicalSheet", created.ID)
	resp = a.do(t, "GET", download, "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "GET", download, a.token(t, other), nil)
	testutil.AssertStatus(t, resp, fiber.StatusFound)
	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, storage.PublicPrefix+"/technicalSheet-") {
		t.Fatalf("Unexpected redirect %q", location)
	}

	resp = a.do(t, "GET", location, "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "%PDF-1 ficha" {
		t.Errorf("Unexpected document content %q", body)
	}

	resp = a.do(t, "GET", fmt.Sprintf("/api/projects/%d/download/poster", created.ID), ownerToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	target := fmt.Sprintf("/api/projects/%d", created.ID)
	resp = a.do(t, "PUT", target, a.token(t, other), map[string]string{"nombreProyecto": "Stolen"})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "PUT", target, ownerToken, map[string]string{"nombreProyecto": "Solar II"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "GET", target, "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var got models.Project
	testutil.ParseJSON(t, resp, &got)
	if got.Name != "Solar II" || got.TechnicalSheet == nil {
		t.Errorf("Unexpected project after update %+v", got)
	}

	resp = a.do(t, "DELETE", target, ownerToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	entries, err := os.ReadDir(a.uploads)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected documents to be removed, found %d", len(entries))
	}

	resp = a.do(t, "GET", target, "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestUserAndRoleRoutes(t *testing.T) {
	a := setupApp(t, nil)

	admin := testutil.CreateTestUser(t, a.db, "root", models.RoleAdmin)
	user := testutil.CreateTestUser(t, a.db, "lucia", models.RoleUser)
	adminToken := a.token(t, admin)
	userToken := a.token(t, user)

	resp := a.do(t, "GET", "/api/users", userToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "GET", "/api/users", adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "GET", "/api/users/userboard", userToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var msg utils.MessageResponseStruct
	testutil.ParseJSON(t, resp, &msg)
	if msg.Message != fmt.Sprintf("User Content. Welcome user ID: %d", user.ID) {
		t.Errorf("Unexpected board message %q", msg.Message)
	}

	resp = a.do(t, "GET", "/api/users/modboard", userToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "POST", "/api/roles", adminToken, map[string]string{"name": "ROLE_Juez"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var role models.Role
	testutil.ParseJSON(t, resp, &role)
	if role.Name != "juez" {
		t.Errorf("Expected normalized name juez, got %q", role.Name)
	}

	resp = a.do(t, "POST", "/api/users/assign-role", adminToken, map[string]interface{}{
		"userId": fmt.Sprint(user.ID),
		"roleId": role.ID,
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)

	resp = a.do(t, "POST", "/api/users/assign-role", adminToken, map[string]interface{}{
		"userId": user.ID,
		"roleId": role.ID,
	})
	testutil.AssertStatus(t, resp, fiber.StatusConflict)

	resp = a.do(t, "GET", fmt.Sprintf("/api/users/%d/roles", user.ID), userToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var roles []models.Role
	testutil.ParseJSON(t, resp, &roles)
	if len(roles) != 2 {
		t.Errorf("Expected 2 roles, got %d", len(roles))
	}

	resp = a.do(t, "GET", fmt.Sprintf("/api/users/%d/roles", admin.ID), userToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "DELETE", fmt.Sprintf("/api/users/%d/roles/%d", user.ID, role.ID), adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "PUT", fmt.Sprintf("/api/users/%d", user.ID), adminToken, map[string]string{})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = a.do(t, "PUT", fmt.Sprintf("/api/users/%d", user.ID), adminToken, map[string]string{"carrera": "ITI"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "DELETE", fmt.Sprintf("/api/roles/%d", role.ID), adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "DELETE", fmt.Sprintf("/api/users/%d", user.ID), adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = a.do(t, "GET", fmt.Sprintf("/api/users/%d", user.ID), adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestExcelRoundTrip(t *testing.T) {
	a := setupApp(t, nil)

	admin := testutil.CreateTestUser(t, a.db, "root", models.RoleAdmin)
	owner := testutil.CreateTestUser(t, a.db, "owner", models.RoleUser)
	testutil.CreateTestProject(t, a.db, owner.ID, "Solar")
	adminToken := a.token(t, admin)

	resp := a.do(t, "GET", "/api/excel/export/database", a.token(t, owner), nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = a.do(t, "GET", "/api/excel/export/database", adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Errorf("Unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "database_export_") {
		t.Errorf("Unexpected content disposition %q", cd)
	}
	workbook, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read workbook: %v", err)
	}

	req := multipartRequest(t, "POST", "/api/excel/import/database", adminToken, nil,
		part{"excelFile", "export.csv", "a,b"})
	testutil.AssertStatus(t, a.send(t, req), fiber.StatusBadRequest)

	req = multipartRequest(t, "POST", "/api/excel/import/database", adminToken, nil)
	testutil.AssertStatus(t, a.send(t, req), fiber.StatusBadRequest)

	req = multipartRequest(t, "POST", "/api/excel/import/database", adminToken, nil,
		part{"excelFile", "export.xlsx", string(workbook)})
	resp = a.send(t, req)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var report services.ImportReport
	testutil.ParseJSON(t, resp, &report)
	if report.Message != services.ImportMessage {
		t.Errorf("Unexpected message %q", report.Message)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Expected a clean re-import, got errors %v", report.Errors)
	}
	if s := report.Summary["projects"]; s == nil || s.UpdatedRows != 1 {
		t.Errorf("Expected one updated project, got %+v", s)
	}

	resp = a.do(t, "GET", "/api/excel/imports", adminToken, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var runs []models.ImportRun
	testutil.ParseJSON(t, resp, &runs)
	if len(runs) != 1 || runs[0].Filename != "export.xlsx" {
		t.Errorf("Expected one recorded run, got %+v", runs)
	}
}

func TestOperationalRoutes(t *testing.T) {
	a := setupApp(t, nil)

	resp := a.do(t, "GET", "/api", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	if v := resp.Header.Get("X-Api-Version"); v != middleware.CurrentAPIVersion {
		t.Errorf("Expected version header %q, got %q", middleware.CurrentAPIVersion, v)
	}

	resp = a.do(t, "GET", "/health", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var health services.HealthCheckResult
	testutil.ParseJSON(t, resp, &health)
	if health.Database != "ok" || health.Storage != "ok" || health.Cache != "disabled" {
		t.Errorf("Unexpected health %+v", health)
	}

	resp = a.do(t, "GET", "/nowhere", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	var errResp utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &errResp)
	if errResp.Ok || errResp.URL != "/nowhere" {
		t.Errorf("Unexpected 404 body %+v", errResp)
	}
}
