package models

import (
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
)

type BlockType string

const (
	BlockScheduled BlockType = "scheduled"
	BlockActual    BlockType = "actual"
	BlockBreak     BlockType = "break"
)

func (b BlockType) Valid() bool {
	switch b {
	case BlockScheduled, BlockActual, BlockBreak:
		return true
	}
	return false
}

type TimeBlock struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title"`
	Type        BlockType  `json:"type" gorm:"not null;default:'scheduled'"`
	StartTime   time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime     time.Time  `json:"end_time" gorm:"not null"`
	Description string     `json:"description"`
	TaskID      *uuid.UUID `json:"task_id" gorm:"type:uuid;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate is checked before every persistence attempt, not only at the
// transport edge.
func (b *TimeBlock) Validate() error {
	if !b.Type.Valid() {
		return apperrors.Validation("type", "unknown time block type")
	}
	if !b.EndTime.After(b.StartTime) {
		return apperrors.Invariant("end_time", "end time must be after start time")
	}
	return nil
}
