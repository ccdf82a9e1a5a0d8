package models

import "time"

// Project status values
const (
	EstatusSubido   = "subido"
	EstatusNoSubido = "no subido"
)

// DocumentKind names one of the three documents a project carries
type DocumentKind string

const (
	DocumentTechnicalSheet DocumentKind = "technicalSheet"
	DocumentCanvaModel     DocumentKind = "canvaModel"
	DocumentProjectPdf     DocumentKind = "projectPdf"
)

// DocumentKinds lists the kinds in display order
var DocumentKinds = []DocumentKind{DocumentTechnicalSheet, DocumentCanvaModel, DocumentProjectPdf}

// Project is a fair entry owned by a single user
type Project struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	IDUser         uint      `gorm:"column:id_user;not null;index" json:"idUser"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	VideoLink      string    `gorm:"size:255" json:"videoLink"`
	TechnicalSheet *string   `gorm:"size:512" json:"technicalSheet"`
	CanvaModel     *string   `gorm:"size:512" json:"canvaModel"`
	ProjectPdf     *string   `gorm:"size:512" json:"projectPdf"`
	Estatus        string    `gorm:"size:20;not null;default:'no subido'" json:"estatus"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	User           *User     `gorm:"foreignKey:IDUser" json:"user,omitempty"`
}

// Document returns the stored reference for kind, or nil
func (p *Project) Document(kind DocumentKind) *string {
	switch kind {
	case DocumentTechnicalSheet:
		return p.TechnicalSheet
	case DocumentCanvaModel:
		return p.CanvaModel
	case DocumentProjectPdf:
		return p.ProjectPdf
	}
	return nil
}

// SetDocument replaces the reference for kind
func (p *Project) SetDocument(kind DocumentKind, ref *string) {
	switch kind {
	case DocumentTechnicalSheet:
		p.TechnicalSheet = ref
	case DocumentCanvaModel:
		p.CanvaModel = ref
	case DocumentProjectPdf:
		p.ProjectPdf = ref
	}
}

// DeriveEstatus sets Estatus to "subido" once all three documents are present
func (p *Project) DeriveEstatus() string {
	p.Estatus = EstatusNoSubido
	if nonEmpty(p.TechnicalSheet) && nonEmpty(p.CanvaModel) && nonEmpty(p.ProjectPdf) {
		p.Estatus = EstatusSubido
	}
	return p.Estatus
}

// Column maps a document kind to its column name
func (k DocumentKind) Column() string {
	switch k {
	case DocumentTechnicalSheet:
		return "technical_sheet"
	case DocumentCanvaModel:
		return "canva_model"
	case DocumentProjectPdf:
		return "project_pdf"
	}
	return ""
}

// Valid reports whether k is one of the known kinds
func (k DocumentKind) Valid() bool {
	return k.Column() != ""
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}
