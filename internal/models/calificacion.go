package models

import (
	"math"
	"time"
)

// Criterion bounds, inclusive
const (
	CriterionMin = 0.0
	CriterionMax = 5.0
)

// Criterion names in rubric order
const (
	CriterionInnovacion = "innovacion"
	CriterionMercado    = "mercado"
	CriterionTecnica    = "tecnica"
	CriterionFinanciera = "financiera"
	CriterionPitch      = "pitch"
)

// CriterionNames lists the five rubric dimensions
var CriterionNames = []string{CriterionInnovacion, CriterionMercado, CriterionTecnica, CriterionFinanciera, CriterionPitch}

// Calificacion is one evaluator's scored review of one project
type Calificacion struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserEvaluadorID uint      `gorm:"not null;uniqueIndex:idx_calificaciones_evaluador_proyecto,priority:1" json:"userEvaluadorId"`
	UserAlumnoID    uint      `gorm:"not null;index" json:"userAlumnoId"`
	ProyectoID      uint      `gorm:"not null;uniqueIndex:idx_calificaciones_evaluador_proyecto,priority:2;index" json:"proyectoId"`
	Innovacion      *float64  `gorm:"type:decimal(3,2)" json:"innovacion"`
	Mercado         *float64  `gorm:"type:decimal(3,2)" json:"mercado"`
	Tecnica         *float64  `gorm:"type:decimal(3,2)" json:"tecnica"`
	Financiera      *float64  `gorm:"type:decimal(3,2)" json:"financiera"`
	Pitch           *float64  `gorm:"type:decimal(3,2)" json:"pitch"`
	Observaciones   string    `gorm:"type:text" json:"observaciones"`
	Total           float64   `gorm:"type:decimal(3,2);not null;default:0" json:"total"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Proyecto        *Project  `gorm:"foreignKey:ProyectoID" json:"proyecto,omitempty"`
	Evaluador       *User     `gorm:"foreignKey:UserEvaluadorID" json:"evaluador,omitempty"`
	Alumno          *User     `gorm:"foreignKey:UserAlumnoID" json:"alumno,omitempty"`
}

// CriterionColumns returns the column names of the criteria, which match their names
func CriterionColumns() []string {
	return append([]string(nil), CriterionNames...)
}

// Criteria holds optional scores keyed by rubric dimension
type Criteria map[string]float64

// Criteria returns the scores currently set on the record
func (c *Calificacion) Criteria() Criteria {
	out := Criteria{}
	for _, name := range CriterionNames {
		if v := c.criterion(name); v != nil && *v != nil {
			out[name] = **v
		}
	}
	return out
}

// SetCriteria overwrites the supplied scores and leaves the others untouched
func (c *Calificacion) SetCriteria(scores Criteria) {
	for name, value := range scores {
		if field := c.criterion(name); field != nil {
			v := value
			*field = &v
		}
	}
}

func (c *Calificacion) criterion(name string) **float64 {
	switch name {
	case CriterionInnovacion:
		return &c.Innovacion
	case CriterionMercado:
		return &c.Mercado
	case CriterionTecnica:
		return &c.Tecnica
	case CriterionFinanciera:
		return &c.Financiera
	case CriterionPitch:
		return &c.Pitch
	}
	return nil
}

// InRange reports whether v is an acceptable criterion score
func InRange(v float64) bool {
	return !math.IsNaN(v) && v >= CriterionMin && v <= CriterionMax
}

// Mean returns the arithmetic mean of the scores rounded to two decimals, 0 when empty
func (s Criteria) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return Round2(sum / float64(len(s)))
}

// roundingSlack absorbs the binary error of decimal halves like 1.005
const roundingSlack = 1e-9

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100+math.Copysign(roundingSlack, v)) / 100
}

// TableName overrides the table name for Calificacion
func (Calificacion) TableName() string {
	return "calificaciones"
}
