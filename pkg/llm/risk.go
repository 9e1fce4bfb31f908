package llm

import (
	"sort"

	"VendorRadar/pkg/model"
)

const unknownVendor = "Unknown"

// RiskSortKey 风险结果排序字段
type RiskSortKey string

const (
	RiskSortVendor   RiskSortKey = "vendor"
	RiskSortPOLineID RiskSortKey = "po_line_id"
	RiskSortLevel    RiskSortKey = "risk_level"
)

// FilterByVendor 取单个供应商的订单行及其日志，AllVendors 返回全部
func FilterByVendor(lines []model.POLine, logs []model.POLog, vendor string) ([]model.POLine, []model.POLog) {
	if vendor == "" || vendor == AllVendors {
		return lines, logs
	}

	filteredLines := make([]model.POLine, 0)
	ids := make(map[string]struct{})
	for _, line := range lines {
		if line.Vendor == vendor {
			filteredLines = append(filteredLines, line)
			ids[line.POLineID] = struct{}{}
		}
	}

	filteredLogs := make([]model.POLog, 0)
	for _, l := range logs {
		if _, ok := ids[l.POLineID]; ok {
			filteredLogs = append(filteredLogs, l)
		}
	}
	return filteredLines, filteredLogs
}

// FilterByVendors 取选中供应商的订单行，未选择时返回全部
func FilterByVendors(lines []model.POLine, vendors []string) []model.POLine {
	if len(vendors) == 0 {
		return lines
	}

	selected := make(map[string]struct{}, len(vendors))
	for _, v := range vendors {
		selected[v] = struct{}{}
	}

	result := make([]model.POLine, 0)
	for _, line := range lines {
		if _, ok := selected[line.Vendor]; ok {
			result = append(result, line)
		}
	}
	return result
}

// EnrichRisk 按订单行关联供应商，找不到时为 Unknown
func EnrichRisk(results []model.RiskAssessmentResult, lines []model.POLine) []model.RiskAssessmentResult {
	vendorByLine := make(map[string]string, len(lines))
	for _, line := range lines {
		vendorByLine[line.POLineID] = line.Vendor
	}

	enriched := make([]model.RiskAssessmentResult, 0, len(results))
	for _, r := range results {
		r.Vendor = unknownVendor
		if vendor, ok := vendorByLine[r.POLineID]; ok {
			r.Vendor = vendor
		}
		enriched = append(enriched, r)
	}
	return enriched
}

// SummarizeHighRisk 每个供应商的高风险订单行数
func SummarizeHighRisk(results []model.RiskAssessmentResult) map[string]int {
	summary := make(map[string]int)
	for _, r := range results {
		if r.RiskLevel == model.RiskHigh {
			summary[r.Vendor]++
		}
	}
	return summary
}

// SortRisk 稳定排序，风险等级按 High>Medium>Low 的权重比较
func SortRisk(results []model.RiskAssessmentResult, key RiskSortKey, descending bool) []model.RiskAssessmentResult {
	sorted := make([]model.RiskAssessmentResult, len(results))
	copy(sorted, results)

	less := func(a, b model.RiskAssessmentResult) bool {
		switch key {
		case RiskSortVendor:
			return a.Vendor < b.Vendor
		case RiskSortPOLineID:
			return a.POLineID < b.POLineID
		default:
			return a.RiskLevel.Weight() < b.RiskLevel.Weight()
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}
