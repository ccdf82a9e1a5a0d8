// transfer.go
//
// Spreadsheet export and validated import of the relational tables
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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DanielPPerez/API-Estancia2/internal/metrics"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// MaxImportSize bounds an uploaded workbook
const MaxImportSize = 10 << 20

// ImportMessage is returned once every sheet has been processed
const ImportMessage = "Excel import and update process finished."

type columnKind int

const (
	kindInt columnKind = iota
	kindDecimal
	kindDate
	kindString
	kindText
)

type column struct {
	name string
	kind columnKind
	size int
}

// header is the camelCase name used in spreadsheets
func (c column) header() string {
	parts := strings.Split(c.name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

type rowRule func(values repository.Row, present map[string]bool, insert bool) []string

// rowMerge completes an update row against the stored columns listed in reads
type rowMerge func(current, values repository.Row) []string

type tableSpec struct {
	name    string
	columns []column
	keys    []string
	rule    rowRule
	reads   []string
	merge   rowMerge
}

func (t *tableSpec) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func timestampColumns() []column {
	return []column{{name: "created_at", kind: kindDate}, {name: "updated_at", kind: kindDate}}
}

// transferTables lists the tables in export and import order; parents precede children
var transferTables = []*tableSpec{
	{
		name: "users",
		columns: append([]column{
			{name: "id", kind: kindInt},
			{name: "username", kind: kindString, size: 50},
			{name: "email", kind: kindString, size: 255},
			{name: "password", kind: kindString, size: 255},
			{name: "nombre", kind: kindString, size: 255},
			{name: "carrera", kind: kindString, size: 255},
			{name: "cuatrimestre", kind: kindString, size: 255},
			{name: "categoria", kind: kindString, size: 255},
		}, timestampColumns()...),
		keys: []string{"id"},
		rule: userRowRule,
	},
	{
		name: "roles",
		columns: append([]column{
			{name: "id", kind: kindInt},
			{name: "name", kind: kindString, size: 50},
		}, timestampColumns()...),
		keys: []string{"id"},
		rule: roleRowRule,
	},
	{
		name: "user_roles",
		columns: append([]column{
			{name: "user_id", kind: kindInt},
			{name: "role_id", kind: kindInt},
		}, timestampColumns()...),
		keys: []string{"user_id", "role_id"},
	},
	{
		name: "projects",
		columns: append([]column{
			{name: "id", kind: kindInt},
			{name: "id_user", kind: kindInt},
			{name: "name", kind: kindString, size: 255},
			{name: "description", kind: kindText},
			{name: "video_link", kind: kindString, size: 255},
			{name: "technical_sheet", kind: kindString, size: 512},
			{name: "canva_model", kind: kindString, size: 512},
			{name: "project_pdf", kind: kindString, size: 512},
			{name: "estatus", kind: kindString, size: 20},
		}, timestampColumns()...),
		keys: []string{"id"},
		rule: projectRowRule,
	},
	{
		name: "calificaciones",
		columns: append([]column{
			{name: "id", kind: kindInt},
			{name: "user_evaluador_id", kind: kindInt},
			{name: "user_alumno_id", kind: kindInt},
			{name: "proyecto_id", kind: kindInt},
			{name: "innovacion", kind: kindDecimal},
			{name: "mercado", kind: kindDecimal},
			{name: "tecnica", kind: kindDecimal},
			{name: "financiera", kind: kindDecimal},
			{name: "pitch", kind: kindDecimal},
			{name: "observaciones", kind: kindText},
			{name: "total", kind: kindDecimal},
		}, timestampColumns()...),
		keys:  []string{"id"},
		rule:  calificacionRowRule,
		reads: append(models.CriterionColumns(), "total"),
		merge: calificacionMerge,
	},
	{
		name: "refresh_tokens",
		columns: append([]column{
			{name: "id", kind: kindInt},
			{name: "token", kind: kindString, size: 255},
			{name: "user_id", kind: kindInt},
			{name: "expiry_date", kind: kindDate},
		}, timestampColumns()...),
		keys: []string{"id"},
	},
}

// sheetAliases maps legacy sheet names to table names
var sheetAliases = map[string]string{
	"proyecto":     "projects",
	"refreshtoken": "refresh_tokens",
}

// TransferTableNames lists the sheets accepted on import
func TransferTableNames() []string {
	names := make([]string, 0, len(transferTables))
	for _, t := range transferTables {
		names = append(names, t.name)
	}
	return names
}

func lookupTable(sheet string) *tableSpec {
	name := strings.ToLower(strings.TrimSpace(sheet))
	if alias, ok := sheetAliases[name]; ok {
		name = alias
	}
	for _, t := range transferTables {
		if t.name == name {
			return t
		}
	}
	return nil
}

// TableSummary is the per-sheet import outcome
type TableSummary struct {
	UpdatedRows  int      `json:"updatedRows"`
	InsertedRows int      `json:"insertedRows"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

// ImportReport is the body returned by an import
type ImportReport struct {
	Message  string                   `json:"message"`
	Summary  map[string]*TableSummary `json:"summary"`
	Errors   []string                 `json:"errors"`
	Warnings []string                 `json:"warnings"`
}

// Export is a generated workbook
type Export struct {
	Filename string
	Content  *bytes.Buffer
}

// TransferService exports tables to spreadsheets and imports them back
type TransferService struct {
	tables     repository.TableRepository
	importRuns repository.ImportRunRepository
	now        func() time.Time
}

// NewTransferService creates a TransferService
func NewTransferService(repos *repository.Repositories) *TransferService {
	return &TransferService{tables: repos.Tables, importRuns: repos.ImportRuns, now: time.Now}
}

// ValidateImportFile checks an upload before it is read
func ValidateImportFile(filename string, size int64) error {
	if filename == "" {
		return types.InvalidArgument("No Excel file uploaded.", "excel.import")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return types.InvalidArgument("Only .xlsx files are allowed.", "excel.import")
	}
	if size > MaxImportSize {
		return types.InvalidArgument("The Excel file exceeds the 10MB limit.", "excel.import")
	}
	return nil
}

// ExportDatabase writes every transfer table to its own sheet
func (s *TransferService) ExportDatabase(ctx context.Context) (*Export, error) {
	return s.export(ctx, fmt.Sprintf("database_export_%d.xlsx", s.now().UnixMilli()), TransferTableNames())
}

// ExportCalificaciones writes only the joined evaluations sheet
func (s *TransferService) ExportCalificaciones(ctx context.Context) (*Export, error) {
	return s.export(ctx, fmt.Sprintf("calificaciones_export_%d.xlsx", s.now().UnixMilli()), []string{"calificaciones"})
}

func (s *TransferService) export(ctx context.Context, filename string, tables []string) (*Export, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "API-Estancia2",
		LastModifiedBy: "API-Estancia2",
		Created:        s.now().UTC().Format(time.RFC3339),
		Modified:       s.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, exportError(err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, exportError(err)
	}

	for _, name := range tables {
		spec := lookupTable(name)
		headers, rows, err := s.sheetData(ctx, spec)
		if err != nil {
			return nil, err
		}
		if err := writeSheet(f, spec.name, headers, rows, bold); err != nil {
			return nil, exportError(err)
		}
		log.Printf("Data from table %s added to Excel sheet (%d rows)", spec.name, len(rows))
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, exportError(err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportError(err)
	}
	return &Export{Filename: filename, Content: buf}, nil
}

func exportError(err error) error {
	log.Printf("Error exporting database to Excel: %v", err)
	return types.Internal("Failed to export database to Excel.", "excel.export").WithCause(err)
}

// sheetData loads a table; evaluations gain the related project and user names
func (s *TransferService) sheetData(ctx context.Context, spec *tableSpec) ([]string, [][]interface{}, error) {
	names := make([]string, 0, len(spec.columns))
	for _, c := range spec.columns {
		names = append(names, c.name)
	}
	rows, err := s.tables.Rows(ctx, spec.name, names, strings.Join(spec.keys, ", "))
	if err != nil {
		return nil, nil, err
	}

	type extra struct {
		after  string
		header string
		lookup map[string]string
	}
	var extras []extra
	if spec.name == "calificaciones" {
		projects, err := s.names(ctx, "projects", "name")
		if err != nil {
			return nil, nil, err
		}
		users, err := s.names(ctx, "users", "username")
		if err != nil {
			return nil, nil, err
		}
		extras = []extra{
			{after: "proyecto_id", header: "proyecto", lookup: projects},
			{after: "user_evaluador_id", header: "evaluador", lookup: users},
			{after: "user_alumno_id", header: "alumno", lookup: users},
		}
	}

	var headers []string
	for _, c := range spec.columns {
		headers = append(headers, c.header())
		for _, e := range extras {
			if e.after == c.name {
				headers = append(headers, e.header)
			}
		}
	}

	out := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values := make([]interface{}, 0, len(headers))
		for _, c := range spec.columns {
			values = append(values, row[c.name])
			for _, e := range extras {
				if e.after == c.name {
					values = append(values, e.lookup[fmt.Sprint(row[c.name])])
				}
			}
		}
		out = append(out, values)
	}
	return headers, out, nil
}

func (s *TransferService) names(ctx context.Context, table, column string) (map[string]string, error) {
	rows, err := s.tables.Rows(ctx, table, []string{"id", column}, "id")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[fmt.Sprint(row["id"])] = fmt.Sprint(row[column])
	}
	return out, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
		return err
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// Import reads a workbook and updates or inserts its rows. Structural problems
// reject the whole file; row problems are reported and the row is skipped.
func (s *TransferService) Import(ctx context.Context, userID uint, filename string, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, types.InvalidArgument("The uploaded file is not a valid Excel workbook.", "excel.import").WithCause(err)
	}
	defer f.Close()

	sheets, structural := s.readWorkbook(f)
	if len(structural) > 0 {
		return nil, types.InvalidArgument(
			"The Excel file does not have the expected format. Check that the sheets match the allowed tables.",
			"excel.import").WithErrors(structural)
	}

	report := &ImportReport{
		Message:  ImportMessage,
		Summary:  map[string]*TableSummary{},
		Errors:   []string{},
		Warnings: []string{},
	}
	for _, spec := range transferTables {
		rows, ok := sheets[spec.name]
		if !ok {
			continue
		}
		log.Printf("Processing sheet: %s", spec.name)
		summary := s.importSheet(ctx, spec, rows)
		report.Summary[spec.name] = summary
		for _, e := range summary.Errors {
			report.Errors = append(report.Errors, fmt.Sprintf("Table %s: %s", spec.name, e))
		}
		for _, w := range summary.Warnings {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Table %s: %s", spec.name, w))
		}
		log.Printf("Table %s: %d rows updated, %d rows inserted", spec.name, summary.UpdatedRows, summary.InsertedRows)
	}

	s.recordRun(ctx, userID, filename, report)
	return report, nil
}

// readWorkbook returns the rows of each allowed sheet keyed by table name, or the structural errors
func (s *TransferService) readWorkbook(f *excelize.File) (map[string][][]string, []string) {
	var errs []string
	list := f.GetSheetList()
	if len(list) == 0 {
		return nil, []string{"The Excel file contains no sheets."}
	}

	sheets := map[string][][]string{}
	var invalid []string
	for _, name := range list {
		spec := lookupTable(name)
		if spec == nil {
			invalid = append(invalid, name)
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			errs = append(errs, fmt.Sprintf("Sheet '%s' could not be read: %v", name, err))
			continue
		}
		if len(rows) == 0 || isBlank(rows[0]) {
			errs = append(errs, fmt.Sprintf("Sheet '%s' has no valid header row.", name))
			continue
		}
		if _, dup := sheets[spec.name]; dup {
			errs = append(errs, fmt.Sprintf("Sheet '%s' duplicates table %s.", name, spec.name))
			continue
		}
		index := headerIndex(spec, rows[0])
		var missing []string
		for _, key := range spec.keys {
			if _, ok := index[key]; !ok {
				c, _ := spec.column(key)
				missing = append(missing, c.header())
			}
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("Table %s: required columns missing: %s", spec.name, strings.Join(missing, ", ")))
			continue
		}
		sheets[spec.name] = rows
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Sprintf("Sheets not allowed: %s. Only these are allowed: %s",
			strings.Join(invalid, ", "), strings.Join(TransferTableNames(), ", ")))
	}
	return sheets, errs
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// foldHeader compares headers ignoring case and underscores
func foldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", " ", "").Replace(s)
}

// headerIndex maps column names to their position in the header row
func headerIndex(spec *tableSpec, header []string) map[string]int {
	index := map[string]int{}
	for i, h := range header {
		for _, c := range spec.columns {
			if foldHeader(h) == foldHeader(c.name) {
				if _, seen := index[c.name]; !seen {
					index[c.name] = i
				}
			}
		}
	}
	return index
}

func (s *TransferService) importSheet(ctx context.Context, spec *tableSpec, rows [][]string) *TableSummary {
	summary := &TableSummary{Errors: []string{}, Warnings: []string{}}
	header := rows[0]
	index := headerIndex(spec, header)

	var missing, extra []string
	for _, c := range spec.columns {
		if _, ok := index[c.name]; !ok {
			missing = append(missing, c.header())
		}
	}
	for _, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if _, known := spec.column(lookupColumn(spec, h)); !known {
			extra = append(extra, h)
		}
	}
	if len(missing) > 0 {
		summary.Warnings = append(summary.Warnings, "Columns missing from the sheet: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		summary.Warnings = append(summary.Warnings, "Extra columns will be ignored: "+strings.Join(extra, ", "))
	}

	for i := 1; i < len(rows); i++ {
		line := i + 1
		if isBlank(rows[i]) {
			continue
		}
		outcome, err := s.importRow(ctx, spec, index, rows[i])
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Row %d: %s", line, err.Error()))
			metrics.ImportRows.WithLabelValues(spec.name, "error").Inc()
			continue
		}
		switch outcome {
		case "updated":
			summary.UpdatedRows++
		case "inserted":
			summary.InsertedRows++
		}
		metrics.ImportRows.WithLabelValues(spec.name, outcome).Inc()
	}
	return summary
}

func lookupColumn(spec *tableSpec, header string) string {
	for _, c := range spec.columns {
		if foldHeader(header) == foldHeader(c.name) {
			return c.name
		}
	}
	return ""
}

type rowError []string

func (e rowError) Error() string {
	return strings.Join(e, "; ")
}

// importRow converts and validates one row, then updates it by key or inserts it
func (s *TransferService) importRow(ctx context.Context, spec *tableSpec, index map[string]int, cells []string) (string, error) {
	values := repository.Row{}
	present := map[string]bool{}
	var errs rowError
	for _, c := range spec.columns {
		i, ok := index[c.name]
		if !ok {
			continue
		}
		present[c.name] = true
		raw := ""
		if i < len(cells) {
			raw = strings.TrimSpace(cells[i])
		}
		if raw == "" {
			continue
		}
		v, err := convertCell(c, raw)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		values[c.name] = v
	}
	if len(errs) > 0 {
		return "", errs
	}

	key := repository.Row{}
	for _, k := range spec.keys {
		if v, ok := values[k]; ok {
			key[k] = v
			delete(values, k)
		}
	}
	insert := len(key) < len(spec.keys)
	if insert && len(spec.keys) > 1 {
		return "", rowError{fmt.Sprintf("Key columns %s are required.", strings.Join(spec.keys, ", "))}
	}

	if spec.rule != nil {
		if errs := spec.rule(values, present, insert); len(errs) > 0 {
			return "", rowError(errs)
		}
	}

	now := s.now()
	values["updated_at"] = now

	if insert {
		if _, ok := values["created_at"]; !ok {
			values["created_at"] = now
		}
		if err := s.tables.Insert(ctx, spec.name, values); err != nil {
			return "", rowError{userMessage(err)}
		}
		return "inserted", nil
	}

	delete(values, "created_at")
	found, err := s.tables.Modify(ctx, spec.name, key, spec.reads, func(current repository.Row) (repository.Row, error) {
		if spec.merge != nil {
			if errs := spec.merge(current, values); len(errs) > 0 {
				return nil, rowError(errs)
			}
		}
		return values, nil
	})
	if err != nil {
		var re rowError
		if errors.As(err, &re) {
			return "", re
		}
		return "", rowError{userMessage(err)}
	}
	if found {
		return "updated", nil
	}
	if len(spec.keys) == 1 {
		return "", rowError{fmt.Sprintf("No %s row with id %v.", spec.name, key["id"])}
	}

	// composite keys are link rows, created when absent
	for k, v := range key {
		values[k] = v
	}
	values["created_at"] = now
	if err := s.tables.Insert(ctx, spec.name, values); err != nil {
		return "", rowError{userMessage(err)}
	}
	return "inserted", nil
}

func userMessage(err error) string {
	if ce, ok := types.AsCustomError(err); ok {
		return ce.Message
	}
	return err.Error()
}

func convertCell(c column, raw string) (interface{}, error) {
	switch c.kind {
	case kindInt:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) {
			return int64(f), nil
		}
		return nil, fmt.Errorf("Column '%s' must be an integer, got: %s", c.header(), raw)
	case kindDecimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Column '%s' must be a number, got: %s", c.header(), raw)
		}
		return f, nil
	case kindDate:
		t, err := parseCellTime(raw)
		if err != nil {
			return nil, fmt.Errorf("Column '%s' must be a valid date, got: %s", c.header(), raw)
		}
		return t, nil
	case kindString:
		if utf8.RuneCountInString(raw) > c.size {
			return nil, fmt.Errorf("Column '%s' exceeds the maximum length (%d)", c.header(), c.size)
		}
	}
	return raw, nil
}

var cellTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// parseCellTime accepts spreadsheet serial dates and common text layouts
func parseCellTime(raw string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	for _, layout := range cellTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

func stringValue(values repository.Row, name string) (string, bool) {
	v, ok := values[name].(string)
	return v, ok
}

func userRowRule(values repository.Row, present map[string]bool, insert bool) []string {
	var errs []string
	if email, ok := stringValue(values, "email"); ok && !emailPattern.MatchString(email) {
		errs = append(errs, fmt.Sprintf("Email '%s' is not valid", email))
	}
	username, ok := stringValue(values, "username")
	switch {
	case !ok && (insert || present["username"]):
		errs = append(errs, "Username cannot be empty")
	case ok && !usernamePattern.MatchString(username):
		errs = append(errs, "Username may only contain letters, numbers and underscores")
	}
	if password, ok := stringValue(values, "password"); ok {
		if !security.IsPasswordHash(password) {
			hash, err := security.HashPassword(password)
			if err != nil {
				errs = append(errs, "Password could not be hashed")
			} else {
				values["password"] = hash
			}
		}
	} else if insert {
		errs = append(errs, "Password is required for new users")
	}
	if _, ok := values["nombre"]; !ok && insert && username != "" {
		values["nombre"] = username
	}
	return errs
}

func roleRowRule(values repository.Row, present map[string]bool, insert bool) []string {
	name, ok := stringValue(values, "name")
	if !ok {
		if insert || present["name"] {
			return []string{"Role name cannot be empty"}
		}
		return nil
	}
	if !models.IsKnownRole(name) {
		return []string{fmt.Sprintf("Role '%s' is not valid. Allowed roles: %s", name, strings.Join(models.RoleVocabulary, ", "))}
	}
	values["name"] = models.NormalizeRoleName(name)
	return nil
}

func projectRowRule(values repository.Row, present map[string]bool, insert bool) []string {
	var errs []string
	if _, ok := stringValue(values, "name"); !ok && (insert || present["name"]) {
		errs = append(errs, "Project name cannot be empty")
	}
	if d, ok := stringValue(values, "description"); ok && utf8.RuneCountInString(d) > 1000 {
		errs = append(errs, "Project description cannot exceed 1000 characters")
	}
	if link, ok := stringValue(values, "video_link"); ok {
		if u, err := url.ParseRequestURI(link); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("Video link '%s' is not a valid URL", link))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if insert || (present["technical_sheet"] && present["canva_model"] && present["project_pdf"]) {
		p := models.Project{}
		for _, kind := range models.DocumentKinds {
			if ref, ok := stringValue(values, kind.Column()); ok {
				p.SetDocument(kind, &ref)
			}
		}
		values["estatus"] = p.DeriveEstatus()
	} else {
		delete(values, "estatus")
	}
	return nil
}

func calificacionRowRule(values repository.Row, present map[string]bool, insert bool) []string {
	var errs []string
	scores := models.Criteria{}
	for _, name := range models.CriterionNames {
		v, ok := values[name].(float64)
		if !ok {
			continue
		}
		if !models.InRange(v) {
			errs = append(errs, fmt.Sprintf("Criterion '%s' must be between 0 and 5, got: %v", name, v))
			continue
		}
		scores[name] = v
	}
	if len(errs) > 0 {
		return errs
	}

	total, hasTotal := values["total"].(float64)
	if hasTotal && !models.InRange(total) {
		return []string{fmt.Sprintf("Total must be between 0 and 5, got: %v", total)}
	}
	if !insert {
		// checked against the stored criteria by calificacionMerge
		return nil
	}
	return settleTotal(values, scores, len(scores) > 0)
}

// calificacionMerge overlays the row's criteria on the stored ones so the
// total stays the mean of every criterion the evaluation holds
func calificacionMerge(current, values repository.Row) []string {
	scores := models.Criteria{}
	supplied := false
	for _, name := range models.CriterionNames {
		if v, ok := values[name].(float64); ok {
			scores[name] = v
			supplied = true
			continue
		}
		if v, ok := numeric(current[name]); ok {
			scores[name] = v
		}
	}
	return settleTotal(values, scores, supplied)
}

// settleTotal checks a supplied total against the criteria mean, or derives
// the total when criteria changed
func settleTotal(values repository.Row, scores models.Criteria, criteriaChanged bool) []string {
	total, hasTotal := values["total"].(float64)
	switch {
	case hasTotal && len(scores) > 0 && math.Abs(total-scores.Mean()) > 0.01:
		return []string{fmt.Sprintf("Total (%v) does not match the mean of the criteria (%v)", total, scores.Mean())}
	case hasTotal:
		values["total"] = models.Round2(total)
	case criteriaChanged:
		values["total"] = scores.Mean()
	}
	return nil
}

// numeric reads a stored decimal whatever type the driver scanned it into
func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (s *TransferService) recordRun(ctx context.Context, userID uint, filename string, report *ImportReport) {
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		log.Printf("Error encoding import summary: %v", err)
		return
	}
	run := &models.ImportRun{
		UserID:       userID,
		Filename:     filename,
		Summary:      models.JSON{JSON: datatypes.JSON(summary)},
		ErrorCount:   len(report.Errors),
		WarningCount: len(report.Warnings),
	}
	if err := s.importRuns.Create(ctx, run); err != nil {
		log.Printf("Error recording import run: %v", err)
	}
}

// ImportRuns returns the latest recorded imports
func (s *TransferService) ImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.importRuns.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	return runs, nil
}
