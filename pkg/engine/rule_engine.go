// pkg/engine/rule_engine.go
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"VendorRadar/pkg/model"
)

// Notifier 严重告警派发接口
type Notifier interface {
	Notify(ctx context.Context, settings model.NotificationSettings, alerts []model.Alert) error
}

// EvaluationInput 规则评估输入，配置由调用方持有并每次传入
type EvaluationInput struct {
	Stats         []model.VendorStats
	Thresholds    model.Thresholds
	VendorRules   []model.VendorRule
	LinesByVendor map[string][]model.POLine
	Notification  model.NotificationSettings
	Now           time.Time
}

// RuleEngine 告警规则引擎
type RuleEngine struct {
	notifier Notifier
}

// NewRuleEngine 创建规则引擎，notifier 可为空
func NewRuleEngine(notifier Notifier) *RuleEngine {
	return &RuleEngine{
		notifier: notifier,
	}
}

// Evaluate 评估全局规则与供应商规则，并在需要时派发严重告警
func (e *RuleEngine) Evaluate(ctx context.Context, in EvaluationInput) []model.Alert {
	alerts := EvaluateAlerts(in)
	e.dispatch(ctx, in.Notification, alerts)
	return alerts
}

// dispatch 通知开启且存在严重告警时，交给通知器
func (e *RuleEngine) dispatch(ctx context.Context, settings model.NotificationSettings, alerts []model.Alert) {
	if e.notifier == nil || !settings.Active() {
		return
	}

	critical := CriticalAlerts(alerts)
	if len(critical) == 0 {
		return
	}

	if err := e.notifier.Notify(ctx, settings, critical); err != nil {
		log.Printf("派发严重告警失败: 渠道 %s, 数量 %d, 错误: %v", settings.Channel, len(critical), err)
		return
	}
	log.Printf("已派发严重告警: 渠道 %s, 数量 %d", settings.Channel, len(critical))
}

// EvaluateAlerts 纯函数：生成去重并按严重程度排序的告警列表
func EvaluateAlerts(in EvaluationInput) []model.Alert {
	alerts := EvaluateGlobalRules(in.Stats, in.Thresholds, in.Now)
	alerts = append(alerts, EvaluateVendorRules(in.Stats, in.VendorRules, in.LinesByVendor, in.Now)...)

	alerts = dedupeAlerts(alerts)
	SortBySeverity(alerts)
	return alerts
}

// EvaluateGlobalRules 全局阈值规则，每个供应商最多一条
func EvaluateGlobalRules(stats []model.VendorStats, th model.Thresholds, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, vendor := range stats {
		countExceeded := float64(vendor.PastDueLinesCount) > th.Count
		percentExceeded := vendor.PastDuePercentage > th.Percentage

		var kind model.AlertKind
		var severity model.AlertSeverity
		var message string

		switch {
		case vendor.Trend == model.TrendWorsening && (countExceeded || percentExceeded):
			kind = model.AlertKindWorsening
			severity = model.SeverityCritical
			message = fmt.Sprintf("Performance is worsening, with %d past due lines (%.1f%%).",
				vendor.PastDueLinesCount, vendor.PastDuePercentage)
		case countExceeded && percentExceeded:
			kind = model.AlertKindBreach
			severity = model.SeverityCritical
			message = fmt.Sprintf("Exceeds thresholds with %d past due lines (%.1f%%).",
				vendor.PastDueLinesCount, vendor.PastDuePercentage)
		case countExceeded || percentExceeded:
			kind = model.AlertKindWarning
			severity = model.SeverityWarning
			message = fmt.Sprintf("Has %d past due lines (%.1f%%).",
				vendor.PastDueLinesCount, vendor.PastDuePercentage)
		default:
			continue
		}

		alerts = append(alerts, model.Alert{
			ID:        model.AlertID(vendor.Name, kind, ""),
			Vendor:    vendor.Name,
			Kind:      kind,
			Message:   message,
			Timestamp: now,
			Severity:  severity,
		})
	}

	return alerts
}

// EvaluateVendorRules 供应商专属规则，只作用于可见（已通过最少行数过滤）的供应商
func EvaluateVendorRules(stats []model.VendorStats, rules []model.VendorRule, linesByVendor map[string][]model.POLine, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	statsByVendor := make(map[string]model.VendorStats, len(stats))
	for _, s := range stats {
		statsByVendor[s.Name] = s
	}

	for _, rule := range rules {
		vendor, exists := statsByVendor[rule.VendorName]
		if !exists {
			continue
		}

		switch rule.RuleType {
		case model.RuleTypePOAck:
			alerts = append(alerts, evaluatePOAckRule(rule, linesByVendor[rule.VendorName], now)...)
		case model.RuleTypePerformanceScore:
			if vendor.PerformanceScore < rule.Threshold {
				alerts = append(alerts, model.Alert{
					ID:     model.AlertID(vendor.Name, model.AlertKindPerformanceScore, ""),
					Vendor: vendor.Name,
					Kind:   model.AlertKindPerformanceScore,
					Message: fmt.Sprintf("Performance score %.1f is below the threshold of %g.",
						vendor.PerformanceScore, rule.Threshold),
					Timestamp: now,
					Severity:  model.SeverityWarning,
				})
			}
		default:
			log.Printf("警告: 未知的供应商规则类型 %q (供应商 %s)", rule.RuleType, rule.VendorName)
		}
	}

	return alerts
}

// evaluatePOAckRule 每个超时未确认的订单行单独告警
func evaluatePOAckRule(rule model.VendorRule, lines []model.POLine, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, line := range lines {
		if line.AckStatus != model.AckStatusPending {
			continue
		}

		elapsedHours := now.Sub(line.CreationDate).Hours()
		if elapsedHours <= rule.Threshold {
			continue
		}

		alerts = append(alerts, model.Alert{
			ID:       model.AlertID(rule.VendorName, model.AlertKindPOAck, line.POLineID),
			Vendor:   rule.VendorName,
			Kind:     model.AlertKindPOAck,
			POLineID: line.POLineID,
			Message: fmt.Sprintf("PO line %s has not been acknowledged for %d hours (threshold: %g hours).",
				line.POLineID, int(math.Floor(elapsedHours)), rule.Threshold),
			Timestamp: now,
			Severity:  model.SeverityWarning,
		})
	}

	return alerts
}

// dedupeAlerts 按ID去重，保留首次出现
func dedupeAlerts(alerts []model.Alert) []model.Alert {
	seen := make(map[string]struct{}, len(alerts))
	result := alerts[:0]
	for _, alert := range alerts {
		if _, exists := seen[alert.ID]; exists {
			continue
		}
		seen[alert.ID] = struct{}{}
		result = append(result, alert)
	}
	return result
}

// SortBySeverity 严重告警在前，同级保持发现顺序
func SortBySeverity(alerts []model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
}

// CriticalAlerts 取出严重告警
func CriticalAlerts(alerts []model.Alert) []model.Alert {
	critical := make([]model.Alert, 0)
	for _, alert := range alerts {
		if alert.IsCritical() {
			critical = append(critical, alert)
		}
	}
	return critical
}

// HighestSeverity 告警列表中的最高级别，无告警时返回空
func HighestSeverity(alerts []model.Alert) model.AlertSeverity {
	if len(alerts) == 0 {
		return ""
	}
	for _, alert := range alerts {
		if alert.IsCritical() {
			return model.SeverityCritical
		}
	}
	return model.SeverityWarning
}
