package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
)

var validate = validator.New()

// Category names are unique per owner, enforced by the store; color is a
// 6-digit hex string without the leading '#'.
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;uniqueIndex:idx_categories_owner_name"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_categories_owner_name" validate:"required,max=50"`
	Color     string    `json:"color" gorm:"not null" validate:"required,hexadecimal,len=6"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) Validate() error {
	if err := validate.StructPartial(c, "Name"); err != nil {
		return apperrors.Validation("name", "name is required and at most 50 characters")
	}
	if err := validate.StructPartial(c, "Color"); err != nil {
		return apperrors.Validation("color", "color must be a 6-digit hex string")
	}
	return nil
}
