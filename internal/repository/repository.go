package repository

import (
	"context"
	"time"

	"basismon/internal/models"
)

type ListAlertEventsParams struct {
	Asset  *string
	Kind   *string
	Since  *time.Time
	Limit  int
	Offset int
}

// Repository is the persistence boundary for the monitor: runtime settings
// and the alert audit trail. Market snapshots and funding windows stay
// in-memory and never touch the DB.
type Repository interface {
	// Runtime settings.
	GetRuntimeSettingByKey(ctx context.Context, key string) (*models.RuntimeSetting, error)
	ListRuntimeSettings(ctx context.Context) ([]models.RuntimeSetting, error)
	UpsertRuntimeSetting(ctx context.Context, item *models.RuntimeSetting) error

	// Alert events.
	InsertAlertEvent(ctx context.Context, item *models.AlertEvent) error
	GetLastAlertEvent(ctx context.Context, asset, symbol, kind string) (*models.AlertEvent, error)
	ListAlertEvents(ctx context.Context, params ListAlertEventsParams) ([]models.AlertEvent, error)
	CountAlertEvents(ctx context.Context, params ListAlertEventsParams) (int64, error)
	DeleteAlertEventsBefore(ctx context.Context, before time.Time) (int64, error)
}
