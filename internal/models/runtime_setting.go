package models

import (
	"time"

	"gorm.io/datatypes"
)

// RuntimeSetting stores hot-reloadable monitor parameters in DB so operator
// changes survive restarts. One row per setting key.
type RuntimeSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key string `gorm:"type:varchar(120);not null;uniqueIndex"`

	// JSON value: a number for thresholds, a bool for switches.
	Value datatypes.JSON `gorm:"type:jsonb;not null"`

	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (RuntimeSetting) TableName() string {
	return "runtime_settings"
}
