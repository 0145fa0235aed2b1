package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"basismon/internal/models"
	"basismon/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- runtime settings --------------------------------------------------------

func (s *Store) GetRuntimeSettingByKey(ctx context.Context, key string) (*models.RuntimeSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.RuntimeSetting
	err := s.db.WithContext(ctx).Model(&models.RuntimeSetting{}).Where("key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRuntimeSettings(ctx context.Context) ([]models.RuntimeSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RuntimeSetting
	err := s.db.WithContext(ctx).Model(&models.RuntimeSetting{}).Order("key asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertRuntimeSetting(ctx context.Context, item *models.RuntimeSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

// --- alert events ------------------------------------------------------------

func (s *Store) InsertAlertEvent(ctx context.Context, item *models.AlertEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLastAlertEvent(ctx context.Context, asset, symbol, kind string) (*models.AlertEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AlertEvent
	err := s.db.WithContext(ctx).Model(&models.AlertEvent{}).
		Where("asset = ? AND symbol = ? AND kind = ?", asset, symbol, kind).
		Order("sent_at desc").
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func alertEventsQuery(db *gorm.DB, params repository.ListAlertEventsParams) *gorm.DB {
	query := db.Model(&models.AlertEvent{})
	if params.Asset != nil && strings.TrimSpace(*params.Asset) != "" {
		query = query.Where("asset = ?", strings.TrimSpace(*params.Asset))
	}
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Since != nil {
		query = query.Where("sent_at >= ?", *params.Since)
	}
	return query
}

func (s *Store) ListAlertEvents(ctx context.Context, params repository.ListAlertEventsParams) ([]models.AlertEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	var items []models.AlertEvent
	err := alertEventsQuery(s.db.WithContext(ctx), params).
		Order("sent_at desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAlertEvents(ctx context.Context, params repository.ListAlertEventsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := alertEventsQuery(s.db.WithContext(ctx), params).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) DeleteAlertEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("sent_at < ?", before).Delete(&models.AlertEvent{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
