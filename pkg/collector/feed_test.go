package collector

import (
	"testing"

	"VendorRadar/pkg/messaging"
	"VendorRadar/pkg/model"
)

type fakeBus struct {
	subscribed map[string]messaging.MessageHandler
	published  map[string]int
}

func newFakeBus() *fakeBus {
	return &fakeBus{subscribed: map[string]messaging.MessageHandler{}, published: map[string]int{}}
}

func (b *fakeBus) Subscribe(streamName, consumerName, filterSubject string, handler messaging.MessageHandler) error {
	b.subscribed[filterSubject] = handler
	return nil
}

func (b *fakeBus) Publish(subject string, data interface{}) error {
	b.published[subject]++
	return nil
}

func TestPOFeed(t *testing.T) {
	bus := newFakeBus()
	sink := &memorySink{}
	changes := 0
	feed := NewPOFeed(bus, sink, "", func() { changes++ })

	if err := feed.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(bus.subscribed) != 2 {
		t.Fatalf("expected two subscriptions, got %d", len(bus.subscribed))
	}

	if err := bus.subscribed[SubjectPOLines]([]byte(`[{"po_line_id":"PO-1","vendor":"Acme","creation_date":"2025-06-01T00:00:00Z"},{"po_line_id":"PO-2","vendor":"Acme","creation_date":"2025-06-02T00:00:00Z","ack_status":"Acknowledged"}]`)); err != nil {
		t.Fatalf("lines handler failed: %v", err)
	}
	if err := bus.subscribed[SubjectPOLogs]([]byte(`{"log_id":"L1","po_line_id":"PO-1","change_date":"2025-06-10","changed_field":"eta","old_value":"2025-06-01","new_value":"2025-06-09"}`)); err != nil {
		t.Fatalf("logs handler failed: %v", err)
	}

	if len(sink.lines) != 2 || len(sink.logs) != 1 || changes != 2 {
		t.Fatalf("unexpected sink state lines=%d logs=%d changes=%d", len(sink.lines), len(sink.logs), changes)
	}
	if sink.lines[0].AckStatus != model.AckStatusPending || sink.lines[1].AckStatus != model.AckStatusAcknowledged {
		t.Fatalf("unexpected ack status %q / %q", sink.lines[0].AckStatus, sink.lines[1].AckStatus)
	}
	if v, _ := sink.logs[0].NewValue.AsString(); v != "2025-06-09" {
		t.Fatalf("unexpected log value %+v", sink.logs[0].NewValue)
	}

	if err := feed.HandleLines([]byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPOFeed_SkipsIncompleteRecords(t *testing.T) {
	sink := &memorySink{}
	changes := 0
	feed := NewPOFeed(newFakeBus(), sink, "", func() { changes++ })

	tests := []struct {
		name    string
		handle  func([]byte) error
		payload string
	}{
		{name: "line_without_creation_date", handle: feed.HandleLines, payload: `{"po_line_id":"L1","vendor":"Acme","eta":"2030-01-01","ack_status":"Pending"}`},
		{name: "line_without_vendor", handle: feed.HandleLines, payload: `{"po_line_id":"L2","creation_date":"2025-06-01T00:00:00Z"}`},
		{name: "empty_line", handle: feed.HandleLines, payload: `{"eta":"2030-01-01"}`},
		{name: "log_without_change_date", handle: feed.HandleLogs, payload: `{"log_id":"X1","po_line_id":"L1"}`},
		{name: "log_without_line", handle: feed.HandleLogs, payload: `[{"log_id":"X2","change_date":"2025-06-10"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.handle([]byte(tt.payload)); err != nil {
				t.Fatalf("invalid records should be skipped without error, got %v", err)
			}
		})
	}
	if len(sink.lines) != 0 || len(sink.logs) != 0 || changes != 0 {
		t.Fatalf("nothing should be stored, got lines=%d logs=%d changes=%d", len(sink.lines), len(sink.logs), changes)
	}

	mixed := `[{"po_line_id":"L3","vendor":"Acme","creation_date":"2025-06-01T00:00:00Z"},{"po_line_id":"L4","vendor":""}]`
	if err := feed.HandleLines([]byte(mixed)); err != nil {
		t.Fatalf("HandleLines failed: %v", err)
	}
	if len(sink.lines) != 1 || sink.lines[0].POLineID != "L3" || changes != 1 {
		t.Fatalf("only the complete line should be stored, got %+v", sink.lines)
	}
}

func TestPublishBatch_Chunks(t *testing.T) {
	bus := newFakeBus()
	batch := Batch{Lines: make([]model.POLine, publishChunk*2+1), Logs: make([]model.POLog, 3)}

	if err := PublishBatch(bus, batch); err != nil {
		t.Fatalf("PublishBatch failed: %v", err)
	}
	if bus.published[SubjectPOLines] != 3 || bus.published[SubjectPOLogs] != 1 {
		t.Fatalf("unexpected publish counts %v", bus.published)
	}
}
