// pkg/engine/aggregator.go
package engine

import (
	"time"

	"VendorRadar/pkg/datetime"
	"VendorRadar/pkg/model"
)

const etaField = "eta"

// VendorAggregate 单个供应商的聚合中间结果（尚未计算趋势与评分）
type VendorAggregate struct {
	Name          string
	VendorNumber  int
	Lines         []model.POLine
	PastDueLines  []model.POLine
	NegativeLines map[string]struct{} // 窗口内有负向ETA变更的订单行
}

// TotalLines 订单行总数
func (a *VendorAggregate) TotalLines() int {
	return len(a.Lines)
}

// PastDueCount 逾期行数
func (a *VendorAggregate) PastDueCount() int {
	return len(a.PastDueLines)
}

// PastDuePercentage 逾期比例，无订单行时为0
func (a *VendorAggregate) PastDuePercentage() float64 {
	if a.TotalLines() == 0 {
		return 0
	}
	return float64(a.PastDueCount()) / float64(a.TotalLines()) * 100
}

// NegativeChangeCount 窗口内发生负向变更的去重订单行数
func (a *VendorAggregate) NegativeChangeCount() int {
	return len(a.NegativeLines)
}

// NegativeChangeRatio 负向变更比例
func (a *VendorAggregate) NegativeChangeRatio() float64 {
	if a.TotalLines() == 0 {
		return 0
	}
	return float64(a.NegativeChangeCount()) / float64(a.TotalLines()) * 100
}

// Aggregate 按供应商分组统计订单行和变更日志
// 返回顺序与供应商首次出现的顺序一致
func Aggregate(lines []model.POLine, logs []model.POLog, worseningDays float64, now time.Time) []*VendorAggregate {
	aggregates := make([]*VendorAggregate, 0)
	byVendor := make(map[string]*VendorAggregate)
	vendorByLine := make(map[string]*VendorAggregate, len(lines))

	// 1. 按供应商分组
	for _, line := range lines {
		agg, exists := byVendor[line.Vendor]
		if !exists {
			agg = &VendorAggregate{
				Name:          line.Vendor,
				VendorNumber:  line.VendorNumber,
				NegativeLines: make(map[string]struct{}),
			}
			byVendor[line.Vendor] = agg
			aggregates = append(aggregates, agg)
		}

		agg.Lines = append(agg.Lines, line)
		vendorByLine[line.POLineID] = agg
		if datetime.IsPastDue(line.ETA, now) {
			agg.PastDueLines = append(agg.PastDueLines, line)
		}
	}

	// 2. 回看窗口内的负向ETA变更
	cutoff := datetime.DaysBefore(now, worseningDays)
	for _, log := range logs {
		agg, exists := vendorByLine[log.POLineID]
		if !exists {
			continue
		}
		if !isRecentNegativeChange(log, cutoff, now.Location()) {
			continue
		}
		agg.NegativeLines[log.POLineID] = struct{}{}
	}

	return aggregates
}

// isRecentNegativeChange 变更时间晚于截止时间，且ETA被推迟
func isRecentNegativeChange(log model.POLog, cutoff time.Time, loc *time.Location) bool {
	changedAt, err := datetime.ParseInLocation(log.ChangeDate, loc)
	if err != nil || !changedAt.After(cutoff) {
		return false
	}
	return IsNegativeChange(log, loc)
}

// IsNegativeChange 判断是否为ETA推迟；日期无法解析时视为非负向变更
func IsNegativeChange(log model.POLog, loc *time.Location) bool {
	if log.ChangedField != etaField {
		return false
	}

	oldRaw, ok := log.OldValue.AsString()
	if !ok {
		return false
	}
	newRaw, ok := log.NewValue.AsString()
	if !ok {
		return false
	}

	oldETA, err := datetime.ParseInLocation(oldRaw, loc)
	if err != nil {
		return false
	}
	newETA, err := datetime.ParseInLocation(newRaw, loc)
	if err != nil {
		return false
	}
	return newETA.After(oldETA)
}
