package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"VendorRadar/pkg/model"
)

type stubSource struct {
	lines []model.POLine
	logs  []model.POLog
	rules []model.VendorRule
	err   error
}

func (s *stubSource) ListPOLines(ctx context.Context) ([]model.POLine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.lines, nil
}

func (s *stubSource) ListPOLogs(ctx context.Context) ([]model.POLog, error) {
	return s.logs, nil
}

func (s *stubSource) ListVendorRules(ctx context.Context) ([]model.VendorRule, error) {
	return s.rules, nil
}

type stubPublisher struct {
	subjects []string
	events   []interface{}
}

func (p *stubPublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, data)
	return nil
}

func TestMonitorEngine_Recompute(t *testing.T) {
	source := &stubSource{lines: makeLines("Stellar Supplies", 1, 12, 5)}
	publisher := &stubPublisher{}
	notifier := &recordingNotifier{}

	engine := NewMonitorEngine(source, model.DefaultThresholds(),
		model.NotificationSettings{Enabled: true, Channel: model.ChannelLog},
		WithPublisher(publisher),
		WithNotifier(notifier),
		WithClock(func() time.Time { return testNow }),
	)

	if got := engine.Snapshot(); len(got.Stats) != 0 || got.Alerts == nil {
		t.Fatalf("expected empty initial snapshot, got %+v", got)
	}

	snapshot, err := engine.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if len(snapshot.Stats) != 1 || len(snapshot.Alerts) != 1 {
		t.Fatalf("expected 1 vendor / 1 alert, got %d / %d", len(snapshot.Stats), len(snapshot.Alerts))
	}
	if notifier.calls != 0 {
		t.Fatalf("warning-only pass should not notify")
	}
	if len(publisher.subjects) != 1 || publisher.subjects[0] != SubjectAlertsSnapshot {
		t.Fatalf("expected a snapshot publish, got %v", publisher.subjects)
	}
	event, ok := publisher.events[0].(AlertSnapshotEvent)
	if !ok || event.VendorCount != 1 || !event.GeneratedAt.Equal(testNow) {
		t.Fatalf("unexpected event %+v", publisher.events[0])
	}

	// 阈值变更在下一次重算生效
	th := engine.Thresholds()
	th.Count = 4
	engine.SetThresholds(th)

	snapshot, err = engine.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if !snapshot.Alerts[0].IsCritical() {
		t.Fatalf("expected breach after lowering count threshold, got %+v", snapshot.Alerts[0])
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls)
	}
	if engine.Check(context.Background()) != nil {
		t.Fatalf("expected healthy engine")
	}
}

func TestMonitorEngine_FailedRecomputeKeepsSnapshot(t *testing.T) {
	source := &stubSource{lines: makeLines("Acme", 1, 4, 1)}
	engine := NewMonitorEngine(source, model.DefaultThresholds(), model.NotificationSettings{},
		WithClock(func() time.Time { return testNow }))

	if _, err := engine.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	source.err = errors.New("db offline")
	if _, err := engine.Recompute(context.Background()); err == nil {
		t.Fatalf("expected error from failing source")
	}

	if got := engine.Snapshot(); len(got.Stats) != 1 {
		t.Fatalf("previous snapshot should be kept, got %+v", got.Stats)
	}
	if err := engine.Check(context.Background()); !errors.Is(err, source.err) {
		t.Fatalf("expected health check to surface source error, got %v", err)
	}
}
