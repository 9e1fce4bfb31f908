package monitor

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Checker 可检查健康状态的组件
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc 函数适配为 Checker
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// HealthStatus 健康状态
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

type component struct {
	status  HealthStatus
	checker Checker
}

// Monitor 组件健康注册表
type Monitor struct {
	components map[string]*component
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
	timeout    time.Duration
}

// NewMonitor 创建监控注册表，alertFunc 在组件变为不健康时调用
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	return &Monitor{
		components: make(map[string]*component),
		alertFunc:  alertFunc,
		timeout:    5 * time.Second,
	}
}

// RegisterComponent 注册组件及其检查器
func (m *Monitor) RegisterComponent(name string, checker Checker) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.components[name] = &component{
		status: HealthStatus{
			Component:   name,
			Status:      StatusUnknown,
			LastChecked: time.Now(),
		},
		checker: checker,
	}
}

// UpdateStatus 更新组件状态
func (m *Monitor) UpdateStatus(name, status, message string) {
	m.mutex.Lock()
	c, exists := m.components[name]
	if !exists {
		c = &component{status: HealthStatus{Component: name}}
		m.components[name] = c
	}
	oldStatus := c.status.Status
	c.status.Status = status
	c.status.LastChecked = time.Now()
	c.status.Message = message
	m.mutex.Unlock()

	if oldStatus != status && status != StatusHealthy && m.alertFunc != nil {
		m.alertFunc(name, status, message)
	}
}

// CheckAll 依次运行全部检查器
func (m *Monitor) CheckAll(ctx context.Context) {
	m.mutex.RLock()
	checks := make(map[string]Checker, len(m.components))
	for name, c := range m.components {
		if c.checker != nil {
			checks[name] = c.checker
		}
	}
	m.mutex.RUnlock()

	for name, checker := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := checker.Check(checkCtx)
		cancel()

		if err != nil {
			m.UpdateStatus(name, StatusUnhealthy, err.Error())
			continue
		}
		m.UpdateStatus(name, StatusHealthy, "")
	}
}

// GetStatus 获取组件状态
func (m *Monitor) GetStatus(name string) (HealthStatus, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if c, exists := m.components[name]; exists {
		return c.status, true
	}
	return HealthStatus{}, false
}

// GetAllStatus 按组件名排序返回全部状态
func (m *Monitor) GetAllStatus() []HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statuses := make([]HealthStatus, 0, len(m.components))
	for _, c := range m.components {
		statuses = append(statuses, c.status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Component < statuses[j].Component
	})
	return statuses
}

// Ready 所有组件均健康
func (m *Monitor) Ready() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, c := range m.components {
		if c.status.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// LogAlert 默认的告警函数
func LogAlert(component, status, message string) {
	log.Printf("组件 %s 状态变为 %s: %s", component, status, message)
}
