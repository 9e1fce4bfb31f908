package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"VendorRadar/pkg/engine"
	"VendorRadar/pkg/model"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testAlerts() []model.Alert {
	return []model.Alert{
		{ID: "Stellar Supplies-worsening", Vendor: "Stellar Supplies", Severity: model.SeverityCritical,
			Message: "Performance is worsening, with 6 past due lines (50.0%)."},
		{ID: "Orbit Parts-warning", Vendor: "Orbit Parts", Severity: model.SeverityWarning,
			Message: "Has 2 past due lines (10.0%)."},
	}
}

type recordingSender struct {
	recipients string
	messages   []Message
	err        error
}

func (s *recordingSender) Send(ctx context.Context, recipients string, msg Message) error {
	s.recipients = recipients
	s.messages = append(s.messages, msg)
	return s.err
}

func TestDispatcher_CriticalOnly(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher()
	d.clock = func() time.Time { return testNow }
	d.Register(model.ChannelEmail, sender)

	settings := model.NotificationSettings{Enabled: true, Channel: model.ChannelEmail, Recipients: "ops@example.com"}
	if err := d.Notify(context.Background(), settings, testAlerts()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(sender.messages) != 1 || len(sender.messages[0].Alerts) != 1 {
		t.Fatalf("expected one message with the critical alert, got %+v", sender.messages)
	}
	msg := sender.messages[0]
	if sender.recipients != "ops@example.com" || msg.BatchID == "" {
		t.Fatalf("unexpected dispatch %+v", msg)
	}
	if !strings.Contains(msg.Text, "Stellar Supplies") || strings.Contains(msg.Text, "Orbit Parts") {
		t.Fatalf("unexpected text %q", msg.Text)
	}
	if msg.Subject != "[Vendor Radar] Critical alert: Stellar Supplies" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestDispatcher_Skips(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher()
	d.Register(model.ChannelTeams, sender)

	tests := []struct {
		name     string
		settings model.NotificationSettings
		alerts   []model.Alert
	}{
		{name: "disabled", settings: model.NotificationSettings{Channel: model.ChannelTeams, Recipients: "https://hook"}, alerts: testAlerts()},
		{name: "no_recipients", settings: model.NotificationSettings{Enabled: true, Channel: model.ChannelTeams}, alerts: testAlerts()},
		{name: "warnings_only", settings: model.NotificationSettings{Enabled: true, Channel: model.ChannelTeams, Recipients: "https://hook"}, alerts: testAlerts()[1:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Notify(context.Background(), tt.settings, tt.alerts); err != nil {
				t.Fatalf("Notify failed: %v", err)
			}
		})
	}
	if len(sender.messages) != 0 {
		t.Fatalf("nothing should be sent, got %d", len(sender.messages))
	}
}

func TestDispatcher_Errors(t *testing.T) {
	d := NewDispatcher()
	settings := model.NotificationSettings{Enabled: true, Channel: model.ChannelEmail, Recipients: "ops@example.com"}
	if err := d.Notify(context.Background(), settings, testAlerts()); err == nil {
		t.Fatalf("expected error for unregistered channel")
	}

	d.Register(model.ChannelEmail, &recordingSender{err: errors.New("smtp down")})
	if err := d.Notify(context.Background(), settings, testAlerts()); err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected wrapped sender error, got %v", err)
	}
}

func TestDispatcher_LogChannel(t *testing.T) {
	settings := model.NotificationSettings{Enabled: true, Channel: model.ChannelLog}
	if err := NewDispatcher().Notify(context.Background(), settings, testAlerts()); err != nil {
		t.Fatalf("log channel should always succeed, got %v", err)
	}
}

func TestTeamsSender(t *testing.T) {
	var card teamsCard
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
			t.Errorf("decode card: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	msg := BuildMessage(testAlerts()[:1], testNow)
	if err := NewTeamsSender(time.Second).Send(context.Background(), server.URL, msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if card.Type != "MessageCard" || len(card.Sections) != 1 || card.Sections[0].Facts[0].Name != "Stellar Supplies" {
		t.Fatalf("unexpected card %+v", card)
	}
}

func TestTeamsSender_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	msg := BuildMessage(testAlerts()[:1], testNow)
	sender := NewTeamsSender(time.Second)
	if err := sender.Send(context.Background(), "ops@example.com", msg); err == nil {
		t.Fatalf("expected invalid webhook error")
	}
	if err := sender.Send(context.Background(), server.URL, msg); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestEmailSender(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotBody string

	sender := NewEmailSender(SMTPConfig{Host: "smtp.example.com", From: "radar@example.com"})
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	msg := BuildMessage(testAlerts()[:1], testNow)
	if err := sender.Send(context.Background(), "a@example.com; b@example.com,", msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 2 {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	if !strings.Contains(gotBody, "Subject: [Vendor Radar] Critical alert: Stellar Supplies\r\n") {
		t.Fatalf("missing subject header in %q", gotBody)
	}

	if err := NewEmailSender(SMTPConfig{}).Send(context.Background(), "a@example.com", msg); err == nil {
		t.Fatalf("expected error without smtp host")
	}
}

type capturePublisher struct {
	subject string
	data    interface{}
}

func (p *capturePublisher) Publish(subject string, data interface{}) error {
	p.subject, p.data = subject, data
	return nil
}

func TestNATSSender(t *testing.T) {
	pub := &capturePublisher{}
	msg := BuildMessage(testAlerts()[:1], testNow)
	if err := NewNATSSender(pub).Send(context.Background(), "", msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if pub.subject != engine.SubjectAlertsCritical {
		t.Fatalf("unexpected subject %s", pub.subject)
	}
	if got, ok := pub.data.(Message); !ok || got.BatchID != msg.BatchID {
		t.Fatalf("unexpected payload %+v", pub.data)
	}
}

func TestSplitRecipients(t *testing.T) {
	got := SplitRecipients(" a@x.com ;; b@x.com , ")
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
}
