package app

import (
	"context"
	"testing"

	"VendorRadar/pkg/config"
	"VendorRadar/pkg/model"
	"VendorRadar/pkg/repository"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Storage = "memory"
	cfg.Monitoring.VendorRules = []model.VendorRule{
		{VendorName: "Stellar Supplies", RuleType: model.RuleTypePOAck, Threshold: 24},
	}
	cfg.Notification.NotificationSettings = model.NotificationSettings{Enabled: true, Channel: model.ChannelLog}
	return cfg
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*repository.Repository); !ok {
		t.Fatalf("memory storage should use the in-memory repository, got %T", a.Store)
	}
	rules, _ := a.Store.ListVendorRules(context.Background())
	if len(rules) != 1 {
		t.Fatalf("configured rules should be seeded, got %d", len(rules))
	}
	if a.NATS != nil {
		t.Fatalf("NATS should stay disabled")
	}
	if err := a.StartFeed("test"); err != nil {
		t.Fatalf("StartFeed without NATS should be a no-op, got %v", err)
	}

	if err := a.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	a.Monitor.CheckAll(context.Background())
	if !a.Monitor.Ready() {
		t.Fatalf("engine should be healthy after a successful recompute: %+v", a.Monitor.GetAllStatus())
	}
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := memoryConfig()
	cfg.App.Storage = "redis"
	if _, err := New(context.Background(), cfg, "test"); err == nil {
		t.Fatalf("expected error for unknown storage")
	}
}
