package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"VendorRadar/pkg/model"
)

type recordingNotifier struct {
	calls  int
	alerts []model.Alert
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, settings model.NotificationSettings, alerts []model.Alert) error {
	n.calls++
	n.alerts = append(n.alerts, alerts...)
	return n.err
}

func statsFor(t *testing.T, lines []model.POLine, logs []model.POLog, th model.Thresholds) ([]model.VendorStats, map[string][]model.POLine) {
	t.Helper()
	stats, byVendor := ComputeVendorStats(lines, logs, th, testNow)
	if len(stats) == 0 {
		t.Fatalf("expected vendor stats, got none")
	}
	return stats, byVendor
}

func TestStellarSupplies_SingleWarning(t *testing.T) {
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, makeLines("Stellar Supplies", 1, 12, 5), nil, th)

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}

	alert := alerts[0]
	if alert.Severity != model.SeverityWarning {
		t.Fatalf("expected Warning, got %s", alert.Severity)
	}
	if alert.ID != "Stellar Supplies-warning" {
		t.Fatalf("unexpected id %s", alert.ID)
	}
	if alert.Message != "Has 5 past due lines (41.7%)." {
		t.Fatalf("unexpected message %q", alert.Message)
	}
}

func TestStellarSupplies_WorseningIsCritical(t *testing.T) {
	th := model.DefaultThresholds()
	logs := []model.POLog{etaLog("1", "Stellar Supplies-010", "2025-06-14", "2025-07-01", "2025-07-15")}
	stats, byVendor := statsFor(t, makeLines("Stellar Supplies", 1, 12, 5), logs, th)

	if stats[0].Trend != model.TrendWorsening {
		t.Fatalf("expected worsening trend, got %s", stats[0].Trend)
	}

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != model.SeverityCritical || alerts[0].Kind != model.AlertKindWorsening {
		t.Fatalf("expected Critical worsening alert, got %s %s", alerts[0].Severity, alerts[0].Kind)
	}
	if !strings.Contains(alerts[0].Message, "worsening") || !strings.Contains(alerts[0].Message, "41.7%") {
		t.Fatalf("message should mention worsening and percentage: %q", alerts[0].Message)
	}
}

func TestBreachIsCritical(t *testing.T) {
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, makeLines("Heavy", 1, 10, 6), nil, th)

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 1 || alerts[0].Kind != model.AlertKindBreach || !alerts[0].IsCritical() {
		t.Fatalf("expected single Critical breach alert, got %+v", alerts)
	}
	if alerts[0].Message != "Exceeds thresholds with 6 past due lines (60.0%)." {
		t.Fatalf("unexpected message %q", alerts[0].Message)
	}
}

func TestNoGlobalAlertWithinThresholds(t *testing.T) {
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, makeLines("Calm", 1, 10, 1), nil, th)

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestPOAckRule_NamesLineAndHours(t *testing.T) {
	lines := []model.POLine{
		{POLineID: "PO-1001-1", Vendor: "Quick Ship", ETA: "2025-07-30", CreationDate: testNow.Add(-30 * time.Hour), AckStatus: model.AckStatusPending},
		{POLineID: "PO-1001-2", Vendor: "Quick Ship", ETA: "2025-07-30", CreationDate: testNow.Add(-10 * time.Hour), AckStatus: model.AckStatusPending},
	}
	acked := testNow.Add(-1 * time.Hour)
	lines = append(lines, model.POLine{
		POLineID: "PO-1001-3", Vendor: "Quick Ship", ETA: "2025-07-30",
		CreationDate: testNow.Add(-40 * time.Hour), AckStatus: model.AckStatusAcknowledged, AckDate: &acked,
	})

	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, lines, nil, th)
	rules := []model.VendorRule{{VendorName: "Quick Ship", RuleType: model.RuleTypePOAck, Threshold: 24}}

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, VendorRules: rules, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %+v", alerts)
	}

	alert := alerts[0]
	if alert.Severity != model.SeverityWarning || alert.Kind != model.AlertKindPOAck {
		t.Fatalf("expected po_ack Warning, got %s %s", alert.Severity, alert.Kind)
	}
	if alert.ID != "Quick Ship-po_ack-PO-1001-1" || alert.POLineID != "PO-1001-1" {
		t.Fatalf("unexpected id %s / line %s", alert.ID, alert.POLineID)
	}
	if !strings.Contains(alert.Message, "PO-1001-1") || !strings.Contains(alert.Message, "30 hours") {
		t.Fatalf("message should name line and 30 hours: %q", alert.Message)
	}
}

func TestPerformanceScoreRule(t *testing.T) {
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, makeLines("Laggard", 1, 10, 2), nil, th)
	// 50*0.8 + 30 + 20 = 90
	rules := []model.VendorRule{
		{VendorName: "Laggard", RuleType: model.RuleTypePerformanceScore, Threshold: 95},
		{VendorName: "Laggard", RuleType: model.RuleTypePerformanceScore, Threshold: 99},
		{VendorName: "Laggard", RuleType: model.RuleTypePerformanceScore, Threshold: 90},
	}

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, VendorRules: rules, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 1 {
		t.Fatalf("expected deduplicated single alert, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "95") {
		t.Fatalf("first rule should win, got %q", alerts[0].Message)
	}
}

func TestVendorRules_SkipFilteredVendors(t *testing.T) {
	lines := makeLines("Tiny", 1, 1, 0)
	lines[0].CreationDate = testNow.Add(-100 * time.Hour)

	th := model.DefaultThresholds()
	th.MinPOLines = 5
	stats, byVendor := ComputeVendorStats(lines, nil, th, testNow)
	rules := []model.VendorRule{{VendorName: "Tiny", RuleType: model.RuleTypePOAck, Threshold: 24}}

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, VendorRules: rules, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts for filtered vendor, got %+v", alerts)
	}
}

func TestAlertSeverityOrdering(t *testing.T) {
	lines := append(makeLines("Warn A", 1, 10, 3), makeLines("Crit B", 2, 10, 8)...)
	lines = append(lines, makeLines("Warn C", 3, 40, 6)...)
	lines = append(lines, makeLines("Crit D", 4, 10, 9)...)

	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, lines, nil, th)
	rules := []model.VendorRule{{VendorName: "Warn A", RuleType: model.RuleTypePOAck, Threshold: 1}}

	alerts := EvaluateAlerts(EvaluationInput{Stats: stats, Thresholds: th, VendorRules: rules, LinesByVendor: byVendor, Now: testNow})
	if len(alerts) == 0 {
		t.Fatalf("expected alerts")
	}

	seenWarning := false
	for _, alert := range alerts {
		if alert.Severity == model.SeverityWarning {
			seenWarning = true
			continue
		}
		if seenWarning {
			t.Fatalf("Critical alert %s appears after a Warning", alert.ID)
		}
	}

	// 同级保持发现顺序：统计按逾期比例降序
	if alerts[0].Vendor != "Crit D" || alerts[1].Vendor != "Crit B" {
		t.Fatalf("expected Crit D then Crit B, got %s, %s", alerts[0].Vendor, alerts[1].Vendor)
	}
}

func TestRuleEngine_DispatchesCriticalOnly(t *testing.T) {
	lines := append(makeLines("Crit", 1, 10, 8), makeLines("Warn", 2, 10, 3)...)
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, lines, nil, th)

	notifier := &recordingNotifier{}
	engine := NewRuleEngine(notifier)
	in := EvaluationInput{
		Stats:         stats,
		Thresholds:    th,
		LinesByVendor: byVendor,
		Notification:  model.NotificationSettings{Enabled: true, Channel: model.ChannelLog},
		Now:           testNow,
	}

	alerts := engine.Evaluate(context.Background(), in)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if notifier.calls != 1 || len(notifier.alerts) != 1 || notifier.alerts[0].Vendor != "Crit" {
		t.Fatalf("expected one dispatch with the Critical alert, got %d calls %+v", notifier.calls, notifier.alerts)
	}

	in.Notification.Enabled = false
	engine.Evaluate(context.Background(), in)
	if notifier.calls != 1 {
		t.Fatalf("disabled notifications should not dispatch")
	}

	in.Notification = model.NotificationSettings{Enabled: true, Channel: model.ChannelEmail}
	engine.Evaluate(context.Background(), in)
	if notifier.calls != 1 {
		t.Fatalf("email without recipients should not dispatch")
	}
}

func TestRuleEngine_DispatchErrorIsNotFatal(t *testing.T) {
	th := model.DefaultThresholds()
	stats, byVendor := statsFor(t, makeLines("Crit", 1, 10, 8), nil, th)

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	alerts := NewRuleEngine(notifier).Evaluate(context.Background(), EvaluationInput{
		Stats:         stats,
		Thresholds:    th,
		LinesByVendor: byVendor,
		Notification:  model.NotificationSettings{Enabled: true, Channel: model.ChannelTeams, Recipients: "https://example.invalid/hook"},
		Now:           testNow,
	})
	if len(alerts) != 1 || notifier.calls != 1 {
		t.Fatalf("expected alerts despite dispatch error, got %d alerts / %d calls", len(alerts), notifier.calls)
	}
}

func TestHighestSeverity(t *testing.T) {
	if got := HighestSeverity(nil); got != "" {
		t.Fatalf("expected empty severity, got %s", got)
	}
	alerts := []model.Alert{{Severity: model.SeverityWarning}, {Severity: model.SeverityCritical}}
	if got := HighestSeverity(alerts); got != model.SeverityCritical {
		t.Fatalf("expected Critical, got %s", got)
	}
}
