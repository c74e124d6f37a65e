package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordDateLayout is the calendar-date format of Emission.RecordDate.
const RecordDateLayout = "2006-01-02"

// Emission is one saved calculator result (emissions table). Inputs and outputs are kept
// verbatim as JSON so a result can be reproduced; only Notes changes after creation.
type Emission struct {
	EmissionID    string         `gorm:"column:emission_id;type:text;primaryKey" json:"emission_id"`
	ProjectID     *string        `gorm:"column:project_id;type:text;index" json:"project_id"`
	Methodology   string         `gorm:"column:methodology;type:text;index" json:"methodology"`
	RecordDate    string         `gorm:"column:record_date;type:text" json:"record_date"`
	QuantityTCO2e float64        `gorm:"column:quantity_tco2e" json:"quantity_tco2e"`
	Notes         string         `gorm:"column:notes;type:text" json:"notes"`
	Inputs        datatypes.JSON `gorm:"column:inputs_json" json:"inputs"`
	Outputs       datatypes.JSON `gorm:"column:outputs_json" json:"outputs"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

func (Emission) TableName() string {
	return "emissions"
}

// BeforeCreate sets emission_id and created_at when the caller did not.
func (e *Emission) BeforeCreate(tx *gorm.DB) error {
	if e.EmissionID == "" {
		e.EmissionID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

// MethodologyTotal is one row of the per-methodology reporting aggregate.
type MethodologyTotal struct {
	Methodology   string  `gorm:"column:methodology" json:"methodology"`
	Records       int64   `gorm:"column:records" json:"records"`
	QuantityTCO2e float64 `gorm:"column:quantity_tco2e" json:"quantity_tco2e"`
}
