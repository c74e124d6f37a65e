package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project statuses. Archived is the only lifecycle end-state; rows are never deleted.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// Project is the reporting subject emission records are attached to (projects table).
type Project struct {
	ProjectID   string    `gorm:"column:project_id;type:text;primaryKey" json:"project_id"`
	ProjectCode string    `gorm:"column:project_code;type:text" json:"project_code"`
	ProjectName string    `gorm:"column:project_name;type:text" json:"project_name"`
	Status      string    `gorm:"column:status;type:text" json:"status"`
	UpdatedAt   time.Time `gorm:"column:updated_at;index" json:"updated_at"`

	// Emissions owns the emissions.project_id foreign key (ON DELETE SET NULL).
	Emissions []Emission `gorm:"foreignKey:ProjectID;references:ProjectID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// BeforeCreate never inserts an empty primary key; ids are opaque and never reused.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == "" {
		p.ProjectID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return nil
}

// Label is the human-readable selection label: "code — name", whichever of the two is
// set, or the raw id when both are blank.
func (p Project) Label() string {
	code := strings.TrimSpace(p.ProjectCode)
	name := strings.TrimSpace(p.ProjectName)
	switch {
	case code != "" && name != "":
		return code + " — " + name
	case code != "":
		return code
	case name != "":
		return name
	default:
		return p.ProjectID
	}
}

// Archived reports whether the project is soft-deleted. A blank status counts as active.
func (p Project) Archived() bool {
	return p.Status == ProjectStatusArchived
}
