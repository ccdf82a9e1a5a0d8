package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/xuri/excelize/v2"
)

// workbook builds an xlsx with one sheet per entry; the default sheet is dropped
func workbook(t *testing.T, sheets map[string][][]interface{}, keepDefault bool) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet failed: %v", err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}
	if !keepDefault {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("DeleteSheet failed: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf
}

func TestImportWorkbook(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.repos)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, f.db, "admin", models.RoleAdmin)
	owner := testutil.CreateTestUser(t, f.db, "alumno", models.RoleUser)
	ev := testutil.CreateTestUser(t, f.db, "ev", models.RoleEvaluador)
	project := testutil.CreateTestProject(t, f.db, owner.ID, "Uno")

	buf := workbook(t, map[string][][]interface{}{
		"users": {
			{"id", "username", "email", "password", "nombre", "apodo"},
			{"", "nuevo", "nuevo@example.com", "plano", "", "x"},
			{owner.ID, "alumno", "alumno@example.com", "", "Alumno Renombrado", ""},
			{"", "malo", "no-es-email", "p", "", ""},
			{"", "con espacio", "ok@example.com", "p", "", ""},
		},
		"calificaciones": {
			{"id", "user_evaluador_id", "userAlumnoId", "proyectoId", "innovacion", "mercado", "total", "proyecto"},
			{"", ev.ID, owner.ID, project.ID, 4, 3, "", "Uno"},
			{"", admin.ID, owner.ID, project.ID, 4, 4, 2.5, "Uno"},
			{"", owner.ID, owner.ID, project.ID, 7, "", "", "Uno"},
		},
	}, false)

	report, err := svc.Import(ctx, admin.ID, "datos.xlsx", buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Message != ImportMessage {
		t.Errorf("Unexpected message %q", report.Message)
	}

	users := report.Summary["users"]
	if users == nil || users.InsertedRows != 1 || users.UpdatedRows != 1 || len(users.Errors) != 2 {
		t.Fatalf("Unexpected users summary %+v", users)
	}
	if len(users.Warnings) == 0 {
		t.Error("Expected warnings for missing and extra columns")
	}

	nuevo := mustUser(t, f, "nuevo")
	if nuevo.Nombre != "nuevo" {
		t.Errorf("Expected nombre to default to username, got %q", nuevo.Nombre)
	}
	if err := security.VerifyPassword(nuevo.Password, "plano"); err != nil {
		t.Errorf("Expected the imported password to be hashed: %v", err)
	}
	if got := mustUser(t, f, "alumno"); got.Nombre != "Alumno Renombrado" {
		t.Errorf("Expected the existing user to be updated, got %q", got.Nombre)
	}

	califs := report.Summary["calificaciones"]
	if califs == nil || califs.InsertedRows != 1 || len(califs.Errors) != 2 {
		t.Fatalf("Unexpected calificaciones summary %+v", califs)
	}
	var stored models.Calificacion
	if err := f.db.Where("user_evaluador_id = ?", ev.ID).First(&stored).Error; err != nil {
		t.Fatalf("Expected the imported evaluation: %v", err)
	}
	if stored.Total != 3.5 {
		t.Errorf("Expected derived total 3.50, got %v", stored.Total)
	}

	if len(report.Errors) != 4 || !strings.HasPrefix(report.Errors[0], "Table users: Row ") {
		t.Errorf("Unexpected overall errors %v", report.Errors)
	}

	runs, err := svc.ImportRuns(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Expected one recorded import run, got %v (%v)", runs, err)
	}
	if runs[0].UserID != admin.ID || runs[0].ErrorCount != 4 {
		t.Errorf("Unexpected import run %+v", runs[0])
	}
}

func TestImportPartialCalificacionUpdate(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.repos)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, f.db, "admin", models.RoleAdmin)
	owner := testutil.CreateTestUser(t, f.db, "alumno", models.RoleUser)
	ev := testutil.CreateTestUser(t, f.db, "ev", models.RoleEvaluador)
	project := testutil.CreateTestProject(t, f.db, owner.ID, "Uno")

	graded := &models.Calificacion{UserEvaluadorID: ev.ID, UserAlumnoID: owner.ID, ProyectoID: project.ID, Total: 5}
	graded.SetCriteria(models.Criteria{
		models.CriterionInnovacion: 5, models.CriterionMercado: 5, models.CriterionTecnica: 5,
		models.CriterionFinanciera: 5, models.CriterionPitch: 5,
	})
	if err := f.db.Create(graded).Error; err != nil {
		t.Fatalf("Failed to create evaluation: %v", err)
	}

	buf := workbook(t, map[string][][]interface{}{
		"calificaciones": {
			{"id", "innovacion"},
			{graded.ID, 1},
		},
	}, false)
	report, err := svc.Import(ctx, admin.ID, "parcial.xlsx", buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if califs := report.Summary["calificaciones"]; califs == nil || califs.UpdatedRows != 1 || len(califs.Errors) != 0 {
		t.Fatalf("Unexpected calificaciones summary %+v", califs)
	}

	var stored models.Calificacion
	if err := f.db.First(&stored, graded.ID).Error; err != nil {
		t.Fatalf("Failed to reload evaluation: %v", err)
	}
	if got := stored.Criteria(); len(got) != 5 || got[models.CriterionInnovacion] != 1 {
		t.Errorf("Expected the stored criteria to be kept, got %v", got)
	}
	if stored.Total != 4.2 || stored.Total != stored.Criteria().Mean() {
		t.Errorf("Expected total 4.2 from all criteria, got %v", stored.Total)
	}

	// an explicit total is checked against the merged criteria
	buf = workbook(t, map[string][][]interface{}{
		"calificaciones": {
			{"id", "mercado", "total"},
			{graded.ID, 5, 5},
		},
	}, false)
	report, err = svc.Import(ctx, admin.ID, "parcial.xlsx", buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	califs := report.Summary["calificaciones"]
	if califs == nil || califs.UpdatedRows != 0 || len(califs.Errors) != 1 || !strings.Contains(califs.Errors[0], "does not match the mean") {
		t.Fatalf("Expected a total mismatch error, got %+v", califs)
	}
	if err := f.db.First(&stored, graded.ID).Error; err != nil || stored.Total != 4.2 {
		t.Errorf("Expected the rejected row to leave total 4.2, got %v (%v)", stored.Total, err)
	}
}

func TestImportRejectsStructure(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.repos)
	ctx := context.Background()

	buf := workbook(t, map[string][][]interface{}{
		"roles":          {{"name"}, {"admin"}},
		"user_roles":     {{"userId", "roleId"}},
		"refreshToken":   {{"id", "token"}},
		"notas_privadas": {{"id"}},
	}, true)

	_, err := svc.Import(ctx, 1, "malo.xlsx", buf)
	expectKind(t, err, types.ErrInvalidArgument, "")
	ce, _ := types.AsCustomError(err)
	joined := strings.Join(ce.Errors, "\n")
	for _, want := range []string{"Sheet1", "notas_privadas", "Table roles: required columns missing: id"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected errors to mention %q, got %v", want, ce.Errors)
		}
	}
	if strings.Contains(joined, "refreshToken") {
		t.Errorf("Expected the legacy sheet name to be accepted, got %v", ce.Errors)
	}

	var runs int64
	f.db.Model(&models.ImportRun{}).Count(&runs)
	if runs != 0 {
		t.Errorf("Expected no import run for a rejected file, got %d", runs)
	}
}

func TestImportUserRoleLinks(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.repos)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, f.db, "eva", models.RoleUser)
	userRole := roleID(t, f, models.RoleUser)
	modRole := roleID(t, f, models.RoleModerator)

	buf := workbook(t, map[string][][]interface{}{
		"user_roles": {
			{"userId", "roleId"},
			{user.ID, userRole},
			{user.ID, modRole},
			{user.ID, ""},
		},
	}, false)

	report, err := svc.Import(ctx, 1, "roles.xlsx", buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	links := report.Summary["user_roles"]
	if links.UpdatedRows != 1 || links.InsertedRows != 1 || len(links.Errors) != 1 {
		t.Errorf("Unexpected summary %+v", links)
	}

	names, err := f.repos.Users.RoleNames(ctx, user.ID)
	if err != nil || len(names) != 2 {
		t.Errorf("Expected two roles after import, got %v (%v)", names, err)
	}
}

func TestExportDatabase(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.repos)
	evals := NewEvaluationService(f.repos, f.resolver)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, f.db, "alumno", models.RoleUser)
	ev := testutil.CreateTestUser(t, f.db, "ev", models.RoleEvaluador)
	project := testutil.CreateTestProject(t, f.db, owner.ID, "Compostera")
	if _, err := evals.Submit(ctx, ev.ID, EvaluationInput{ProyectoID: num(float64(project.ID)), Pitch: num(4)}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	export, err := svc.ExportDatabase(ctx)
	if err != nil {
		t.Fatalf("ExportDatabase failed: %v", err)
	}
	if !strings.HasPrefix(export.Filename, "database_export_") || !strings.HasSuffix(export.Filename, ".xlsx") {
		t.Errorf("Unexpected filename %q", export.Filename)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(export.Content.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if strings.Join(sheets, ",") != strings.Join(TransferTableNames(), ",") {
		t.Errorf("Expected sheets %v, got %v", TransferTableNames(), sheets)
	}

	rows, err := wb.GetRows("calificaciones")
	if err != nil || len(rows) != 2 {
		t.Fatalf("Expected header plus one row, got %d (%v)", len(rows), err)
	}
	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("Missing column %s in %v", name, header)
		return -1
	}
	if col("proyecto") != col("proyectoId")+1 || col("evaluador") != col("userEvaluadorId")+1 || col("alumno") != col("userAlumnoId")+1 {
		t.Errorf("Expected name columns right after their ids, got %v", header)
	}
	if rows[1][col("proyecto")] != "Compostera" || rows[1][col("evaluador")] != "ev" || rows[1][col("alumno")] != "alumno" {
		t.Errorf("Unexpected joined names %v", rows[1])
	}

	only, err := svc.ExportCalificaciones(ctx)
	if err != nil {
		t.Fatalf("ExportCalificaciones failed: %v", err)
	}
	if !strings.HasPrefix(only.Filename, "calificaciones_export_") {
		t.Errorf("Unexpected filename %q", only.Filename)
	}
}

func TestValidateImportFile(t *testing.T) {
	expectKind(t, ValidateImportFile("", 10), types.ErrInvalidArgument, "No Excel file uploaded.")
	expectKind(t, ValidateImportFile("datos.csv", 10), types.ErrInvalidArgument, "Only .xlsx files are allowed.")
	expectKind(t, ValidateImportFile("datos.xlsx", MaxImportSize+1), types.ErrInvalidArgument, "")
	if err := ValidateImportFile("DATOS.XLSX", 10); err != nil {
		t.Errorf("Expected upper-case extension to pass, got %v", err)
	}
}
