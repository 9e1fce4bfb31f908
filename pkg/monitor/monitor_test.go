package monitor

import (
	"context"
	"errors"
	"testing"
)

func TestMonitor_CheckAll(t *testing.T) {
	var alerts []string
	m := NewMonitor(func(component, status, message string) {
		alerts = append(alerts, component+":"+status)
	})

	dbErr := errors.New("connection refused")
	m.RegisterComponent("engine", CheckerFunc(func(ctx context.Context) error { return nil }))
	m.RegisterComponent("database", CheckerFunc(func(ctx context.Context) error { return dbErr }))

	if m.Ready() {
		t.Fatalf("unchecked components should not be ready")
	}

	m.CheckAll(context.Background())

	db, ok := m.GetStatus("database")
	if !ok || db.Status != StatusUnhealthy || db.Message != dbErr.Error() {
		t.Fatalf("unexpected database status %+v", db)
	}
	if m.Ready() {
		t.Fatalf("monitor should not be ready with an unhealthy component")
	}
	if len(alerts) != 1 || alerts[0] != "database:unhealthy" {
		t.Fatalf("unexpected alerts %v", alerts)
	}

	// 状态未变化时不重复告警
	m.CheckAll(context.Background())
	if len(alerts) != 1 {
		t.Fatalf("alert should fire only on change, got %v", alerts)
	}

	statuses := m.GetAllStatus()
	if len(statuses) != 2 || statuses[0].Component != "database" || statuses[1].Component != "engine" {
		t.Fatalf("statuses should be sorted by component, got %+v", statuses)
	}
}

func TestMonitor_Ready(t *testing.T) {
	m := NewMonitor(nil)
	m.RegisterComponent("engine", CheckerFunc(func(ctx context.Context) error { return nil }))
	m.CheckAll(context.Background())
	if !m.Ready() {
		t.Fatalf("expected ready monitor")
	}
}
