package models

import (
	"time"

	"gorm.io/datatypes"
)

// AlertEvent records every notification pushed to the operator channel.
// The latest row per (asset, symbol, kind) drives the cooldown check, so
// alert throttling survives restarts.
type AlertEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Asset  string `gorm:"type:varchar(16);not null;index:idx_alert_events_key"`
	Symbol string `gorm:"type:varchar(32);not null;index:idx_alert_events_key"`
	Kind   string `gorm:"type:varchar(32);not null;index:idx_alert_events_key"`

	Value     float64 `gorm:"not null"`
	Threshold float64 `gorm:"not null"`

	Message string         `gorm:"type:text"`
	Payload datatypes.JSON `gorm:"type:jsonb"`

	SentAt    time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (AlertEvent) TableName() string {
	return "alert_events"
}
