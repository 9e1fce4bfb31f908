// pkg/engine/monitor_engine.go
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"VendorRadar/pkg/model"
)

const (
	SubjectAlertsSnapshot = "alerts.snapshot"
	SubjectAlertsCritical = "alerts.critical"
)

// DataSource 订单行、变更日志与供应商规则来源
type DataSource interface {
	ListPOLines(ctx context.Context) ([]model.POLine, error)
	ListPOLogs(ctx context.Context) ([]model.POLog, error)
	ListVendorRules(ctx context.Context) ([]model.VendorRule, error)
}

// Publisher 消息发布接口，NATS 客户端实现
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// AlertSnapshotEvent 每次重算后发布的告警快照
type AlertSnapshotEvent struct {
	GeneratedAt time.Time     `json:"generated_at"`
	VendorCount int           `json:"vendor_count"`
	Alerts      []model.Alert `json:"alerts"`
}

// MonitorEngine 供应商监控引擎：拉取数据、重算、派发、缓存最新快照
type MonitorEngine struct {
	source     DataSource
	ruleEngine *RuleEngine
	publisher  Publisher
	clock      func() time.Time

	recomputeMu sync.Mutex // 串行化重算

	mu           sync.RWMutex
	thresholds   model.Thresholds
	notification model.NotificationSettings
	snapshot     Snapshot
	lastErr      error
}

// MonitorOption 监控引擎选项
type MonitorOption func(*MonitorEngine)

// WithPublisher 设置告警发布器
func WithPublisher(p Publisher) MonitorOption {
	return func(e *MonitorEngine) {
		e.publisher = p
	}
}

// WithClock 注入时钟，测试用
func WithClock(clock func() time.Time) MonitorOption {
	return func(e *MonitorEngine) {
		e.clock = clock
	}
}

// WithNotifier 设置严重告警通知器
func WithNotifier(n Notifier) MonitorOption {
	return func(e *MonitorEngine) {
		e.ruleEngine = NewRuleEngine(n)
	}
}

// NewMonitorEngine 创建监控引擎
func NewMonitorEngine(source DataSource, thresholds model.Thresholds, notification model.NotificationSettings, opts ...MonitorOption) *MonitorEngine {
	e := &MonitorEngine{
		source:       source,
		ruleEngine:   NewRuleEngine(nil),
		clock:        time.Now,
		thresholds:   thresholds,
		notification: notification,
		snapshot: Snapshot{
			Stats:         make([]model.VendorStats, 0),
			Alerts:        make([]model.Alert, 0),
			LinesByVendor: make(map[string][]model.POLine),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute 完整重算一次并替换缓存快照
func (e *MonitorEngine) Recompute(ctx context.Context) (Snapshot, error) {
	e.recomputeMu.Lock()
	defer e.recomputeMu.Unlock()

	snapshot, err := e.recompute(ctx)

	e.mu.Lock()
	e.lastErr = err
	if err == nil {
		e.snapshot = snapshot
	}
	e.mu.Unlock()

	return snapshot, err
}

func (e *MonitorEngine) recompute(ctx context.Context) (Snapshot, error) {
	lines, err := e.source.ListPOLines(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("读取订单行失败: %w", err)
	}
	logs, err := e.source.ListPOLogs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("读取变更日志失败: %w", err)
	}
	rules, err := e.source.ListVendorRules(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("读取供应商规则失败: %w", err)
	}

	thresholds := e.Thresholds()
	notification := e.NotificationSettings()
	now := e.clock()

	stats, linesByVendor := ComputeVendorStats(lines, logs, thresholds, now)
	alerts := e.ruleEngine.Evaluate(ctx, EvaluationInput{
		Stats:         stats,
		Thresholds:    thresholds,
		VendorRules:   rules,
		LinesByVendor: linesByVendor,
		Notification:  notification,
		Now:           now,
	})

	snapshot := Snapshot{
		Stats:         stats,
		Alerts:        alerts,
		LinesByVendor: linesByVendor,
		GeneratedAt:   now,
	}

	log.Printf("重算完成: 订单行 %d, 供应商 %d, 告警 %d", len(lines), len(stats), len(alerts))
	e.publish(snapshot)

	return snapshot, nil
}

// publish 发布失败只记录日志
func (e *MonitorEngine) publish(snapshot Snapshot) {
	if e.publisher == nil {
		return
	}

	event := AlertSnapshotEvent{
		GeneratedAt: snapshot.GeneratedAt,
		VendorCount: len(snapshot.Stats),
		Alerts:      snapshot.Alerts,
	}
	if err := e.publisher.Publish(SubjectAlertsSnapshot, event); err != nil {
		log.Printf("发布告警快照失败: %v", err)
	}
}

// Snapshot 最新快照
func (e *MonitorEngine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// LastError 最近一次重算的错误
func (e *MonitorEngine) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// Thresholds 当前阈值
func (e *MonitorEngine) Thresholds() model.Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// SetThresholds 替换阈值，下次重算生效
func (e *MonitorEngine) SetThresholds(th model.Thresholds) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thresholds = th
}

// NotificationSettings 当前通知设置
func (e *MonitorEngine) NotificationSettings() model.NotificationSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.notification
}

// SetNotificationSettings 替换通知设置
func (e *MonitorEngine) SetNotificationSettings(s model.NotificationSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notification = s
}

// Now 引擎时钟
func (e *MonitorEngine) Now() time.Time {
	return e.clock()
}

// Check 健康检查，最近一次重算失败时返回错误
func (e *MonitorEngine) Check(ctx context.Context) error {
	if err := e.LastError(); err != nil {
		return fmt.Errorf("最近一次重算失败: %w", err)
	}
	return nil
}
