package settings

import (
	"context"
	"sync"
	"time"

	"basismon/internal/models"
	"basismon/internal/repository"
)

// stubRepo keeps settings rows in a map and records every upsert, enough
// to drive the service without a database.
type stubRepo struct {
	mu       sync.Mutex
	rows     map[string]models.RuntimeSetting
	upserts  []string
	upsertFn func(item *models.RuntimeSetting) error
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[string]models.RuntimeSetting{}}
}

func (s *stubRepo) GetRuntimeSettingByKey(_ context.Context, key string) (*models.RuntimeSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	out := row
	return &out, nil
}

func (s *stubRepo) ListRuntimeSettings(_ context.Context) ([]models.RuntimeSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RuntimeSetting, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *stubRepo) UpsertRuntimeSetting(_ context.Context, item *models.RuntimeSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertFn != nil {
		if err := s.upsertFn(item); err != nil {
			return err
		}
	}
	s.rows[item.Key] = *item
	s.upserts = append(s.upserts, item.Key)
	return nil
}

func (s *stubRepo) InsertAlertEvent(context.Context, *models.AlertEvent) error { return nil }

func (s *stubRepo) GetLastAlertEvent(context.Context, string, string, string) (*models.AlertEvent, error) {
	return nil, nil
}

func (s *stubRepo) ListAlertEvents(context.Context, repository.ListAlertEventsParams) ([]models.AlertEvent, error) {
	return nil, nil
}

func (s *stubRepo) CountAlertEvents(context.Context, repository.ListAlertEventsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) DeleteAlertEventsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}
