package monitor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"basismon/internal/analytics"
	"basismon/internal/models"
	"basismon/internal/repository"
	"basismon/internal/settings"
)

type stubAlertRepo struct {
	mu      sync.Mutex
	last    map[string]*models.AlertEvent
	inserts []models.AlertEvent
	lastErr error
}

var _ repository.Repository = (*stubAlertRepo)(nil)

func newStubAlertRepo() *stubAlertRepo {
	return &stubAlertRepo{last: map[string]*models.AlertEvent{}}
}

func (r *stubAlertRepo) GetRuntimeSettingByKey(context.Context, string) (*models.RuntimeSetting, error) {
	return nil, nil
}

func (r *stubAlertRepo) ListRuntimeSettings(context.Context) ([]models.RuntimeSetting, error) {
	return nil, nil
}

func (r *stubAlertRepo) UpsertRuntimeSetting(context.Context, *models.RuntimeSetting) error {
	return nil
}

func (r *stubAlertRepo) InsertAlertEvent(_ context.Context, item *models.AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts = append(r.inserts, *item)
	r.last[item.Asset+"/"+item.Symbol+"/"+item.Kind] = item
	return nil
}

func (r *stubAlertRepo) GetLastAlertEvent(_ context.Context, asset, symbol, kind string) (*models.AlertEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr != nil {
		return nil, r.lastErr
	}
	return r.last[asset+"/"+symbol+"/"+kind], nil
}

func (r *stubAlertRepo) ListAlertEvents(context.Context, repository.ListAlertEventsParams) ([]models.AlertEvent, error) {
	return nil, nil
}

func (r *stubAlertRepo) CountAlertEvents(context.Context, repository.ListAlertEventsParams) (int64, error) {
	return 0, nil
}

func (r *stubAlertRepo) DeleteAlertEventsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *stubAlertRepo) inserted() []models.AlertEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AlertEvent, len(r.inserts))
	copy(out, r.inserts)
	return out
}

type stubSender struct {
	mu      sync.Mutex
	enabled bool
	err     error
	sent    []string
}

func (s *stubSender) Enabled() bool {
	return s.enabled
}

func (s *stubSender) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, message)
	return nil
}

func (s *stubSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func newAlertService(rt settings.Runtime) (*ROCAlertService, *stubAlertRepo, *stubSender) {
	repo := newStubAlertRepo()
	sender := &stubSender{enabled: true}
	svc := &ROCAlertService{
		Repo:     repo,
		Sender:   sender,
		Settings: &settings.Service{Defaults: rt, Logger: zap.NewNop()},
		Hub:      NewHub(4),
		Cooldown: 5 * time.Minute,
		Logger:   zap.NewNop(),
	}
	return svc, repo, sender
}

func alertFrame(roc float64, generatedAt time.Time) Frame {
	net := 0.58
	netUSDT := 58.4
	return Frame{
		Type:        FrameTypeInstruments,
		GeneratedAt: generatedAt,
		Instruments: []analytics.InstrumentRow{{
			Asset:     "ETH",
			Available: true,
			Perpetual: &analytics.PerpetualView{Symbol: "ETHUSDT", MarkPrice: 3000},
			Future: &analytics.FutureMetrics{
				Symbol:              "ETHUSDT-26SEP26",
				MarkPrice:           3015,
				DaysUntilExpiration: 30,
				SpreadPercent:       0.5,
				NetProfitCurrentFR:  &net,
				NetProfitUSDT:       &netUSDT,
				ReturnOnCapital:     &roc,
			},
			ComputedAt: generatedAt,
		}},
	}
}

func TestAlertTriggersAndPersists(t *testing.T) {
	svc, repo, sender := newAlertService(testRuntime())

	svc.evaluate(context.Background(), alertFrame(25.4, testNow))

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(msgs))
	}
	for _, want := range []string{"ETH", "ETHUSDT-26SEP26", "25.40%", "20.00%", "58.40 USDT", "1.6667 contracts per side"} {
		if !strings.Contains(msgs[0], want) {
			t.Fatalf("message %q missing %q", msgs[0], want)
		}
	}

	events := repo.inserted()
	if len(events) != 1 {
		t.Fatalf("persisted = %d events, want 1", len(events))
	}
	evt := events[0]
	if evt.Asset != "ETH" || evt.Symbol != "ETHUSDT-26SEP26" || evt.Kind != AlertKindROC {
		t.Fatalf("event key = %s/%s/%s", evt.Asset, evt.Symbol, evt.Kind)
	}
	if evt.Value != 25.4 || evt.Threshold != 20 {
		t.Fatalf("event value=%v threshold=%v", evt.Value, evt.Threshold)
	}
	if !evt.SentAt.Equal(testNow) {
		t.Fatalf("sent_at = %v, want %v", evt.SentAt, testNow)
	}
	if len(evt.Payload) == 0 {
		t.Fatal("event payload empty")
	}
}

func TestAlertThresholdBoundary(t *testing.T) {
	svc, _, sender := newAlertService(testRuntime())

	svc.evaluate(context.Background(), alertFrame(19.99, testNow))
	if len(sender.messages()) != 0 {
		t.Fatal("alert fired below threshold")
	}

	// Reaching the threshold exactly fires.
	svc.evaluate(context.Background(), alertFrame(20, testNow))
	if len(sender.messages()) != 1 {
		t.Fatalf("sent = %d, want 1 at exact threshold", len(sender.messages()))
	}
}

func TestAlertCooldown(t *testing.T) {
	svc, repo, sender := newAlertService(testRuntime())

	svc.evaluate(context.Background(), alertFrame(25, testNow))
	if len(sender.messages()) != 1 {
		t.Fatalf("first alert not sent")
	}

	// Two minutes later the same contract is still inside the cooldown.
	svc.evaluate(context.Background(), alertFrame(26, testNow.Add(2*time.Minute)))
	if len(sender.messages()) != 1 {
		t.Fatalf("sent = %d inside cooldown, want 1", len(sender.messages()))
	}

	// Past the cooldown it fires again.
	svc.evaluate(context.Background(), alertFrame(26, testNow.Add(6*time.Minute)))
	if len(sender.messages()) != 2 {
		t.Fatalf("sent = %d after cooldown, want 2", len(sender.messages()))
	}
	if len(repo.inserted()) != 2 {
		t.Fatalf("persisted = %d events, want 2", len(repo.inserted()))
	}
}

func TestAlertDisabled(t *testing.T) {
	rt := testRuntime()
	rt.AlertsEnabled = false
	svc, repo, sender := newAlertService(rt)

	svc.evaluate(context.Background(), alertFrame(25, testNow))
	if len(sender.messages()) != 0 || len(repo.inserted()) != 0 {
		t.Fatal("alert fired while disabled in settings")
	}

	// Sender without credentials also suppresses alerts.
	svc2, repo2, sender2 := newAlertService(testRuntime())
	sender2.enabled = false
	svc2.evaluate(context.Background(), alertFrame(25, testNow))
	if len(sender2.messages()) != 0 || len(repo2.inserted()) != 0 {
		t.Fatal("alert fired with disabled sender")
	}
}

func TestAlertSendFailureNotPersisted(t *testing.T) {
	svc, repo, sender := newAlertService(testRuntime())
	sender.err = context.DeadlineExceeded

	svc.evaluate(context.Background(), alertFrame(25, testNow))
	if len(repo.inserted()) != 0 {
		t.Fatal("failed send must not persist an event")
	}

	// Delivery recovers on the next frame with no cooldown in the way.
	sender.err = nil
	svc.evaluate(context.Background(), alertFrame(25, testNow.Add(time.Minute)))
	if len(sender.messages()) != 1 || len(repo.inserted()) != 1 {
		t.Fatalf("sent=%d persisted=%d after recovery, want 1/1",
			len(sender.messages()), len(repo.inserted()))
	}
}

func TestAlertSkipsRowsWithoutROC(t *testing.T) {
	svc, _, sender := newAlertService(testRuntime())

	frame := alertFrame(25, testNow)
	frame.Instruments[0].Future.ReturnOnCapital = nil
	svc.evaluate(context.Background(), frame)

	unavailable := alertFrame(25, testNow)
	unavailable.Instruments[0].Available = false
	unavailable.Instruments[0].Reason = "stale"
	svc.evaluate(context.Background(), unavailable)

	noFuture := alertFrame(25, testNow)
	noFuture.Instruments[0].Future = nil
	svc.evaluate(context.Background(), noFuture)

	if len(sender.messages()) != 0 {
		t.Fatalf("sent = %d for unalertable rows, want 0", len(sender.messages()))
	}
}

func TestAlertRunConsumesHub(t *testing.T) {
	svc, repo, _ := newAlertService(testRuntime())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	payload, err := json.Marshal(alertFrame(25, testNow))
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(repo.inserted()) == 0 {
		svc.Hub.Publish(payload)
		select {
		case <-deadline:
			t.Fatal("alert not processed from hub")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}
