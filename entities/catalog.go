package entities

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidTagColor = errors.New("tag color must be a #RRGGBB hex code")

// Ingredient and Tag are admin-managed reference data. Recipe operations
// never create or delete them.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"size:200;not null;index" json:"name"`
	MeasurementUnit string    `gorm:"size:200;not null" json:"measurement_unit"`
}

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name  string    `gorm:"size:200;unique;not null" json:"name"`
	Color *string   `gorm:"size:7" json:"color"`
	Slug  string    `gorm:"size:200;unique;not null" json:"slug"`
}

var tagColorPattern = regexp.MustCompile(`^#[a-fA-F0-9]{6}$`)

func (t *Tag) BeforeSave(_ *gorm.DB) error {
	if t.Color != nil && !tagColorPattern.MatchString(*t.Color) {
		return ErrInvalidTagColor
	}
	return nil
}
