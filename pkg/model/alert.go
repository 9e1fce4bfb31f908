// pkg/model/alert.go
package model

import (
	"time"
)

// AlertSeverity 告警严重程度
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "Critical"
	SeverityWarning  AlertSeverity = "Warning"
)

// Rank 排序权重，数值越小越靠前
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// AlertKind 告警来源规则
type AlertKind string

const (
	AlertKindWorsening        AlertKind = "worsening"
	AlertKindBreach           AlertKind = "breach"
	AlertKindWarning          AlertKind = "warning"
	AlertKindPOAck            AlertKind = "po_ack"
	AlertKindPerformanceScore AlertKind = "performance_score"
)

// Alert 告警，每次重算整体生成，不落库
type Alert struct {
	ID        string        `json:"id"`
	Vendor    string        `json:"vendor"`
	Kind      AlertKind     `json:"kind"`
	POLineID  string        `json:"po_line_id,omitempty"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
}

// AlertID 按 供应商+规则类型(+订单行) 生成稳定ID
func AlertID(vendor string, kind AlertKind, poLineID string) string {
	if poLineID == "" {
		return vendor + "-" + string(kind)
	}
	return vendor + "-" + string(kind) + "-" + poLineID
}

// IsCritical 是否为严重告警
func (a Alert) IsCritical() bool {
	return a.Severity == SeverityCritical
}
