package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON is a wrapper around gorm.io/datatypes.JSON to allow for custom data type mapping
type JSON struct {
	datatypes.JSON
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	if len(j.JSON) == 0 {
		return nil, nil
	}
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType picks a JSON capable column type per dialect; sqlserver has no json type
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// ImportRun records the outcome of one spreadsheet import
type ImportRun struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	Filename     string    `gorm:"size:255" json:"filename"`
	Summary      JSON      `json:"summary"`
	ErrorCount   int       `gorm:"not null;default:0" json:"errorCount"`
	WarningCount int       `gorm:"not null;default:0" json:"warningCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName overrides the table name for ImportRun
func (ImportRun) TableName() string {
	return "import_runs"
}
