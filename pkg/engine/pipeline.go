// pkg/engine/pipeline.go
package engine

import (
	"sort"
	"time"

	"VendorRadar/pkg/model"
)

// PipelineInput 单次重算的全部输入，配置由调用方提供
type PipelineInput struct {
	Lines      []model.POLine
	Logs       []model.POLog
	Thresholds model.Thresholds
	Rules      []model.VendorRule
	Now        time.Time
}

// Snapshot 一次重算的结果
type Snapshot struct {
	Stats         []model.VendorStats       `json:"stats"`
	Alerts        []model.Alert             `json:"alerts"`
	LinesByVendor map[string][]model.POLine `json:"-"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}

// ComputeVendorStats 聚合、分类趋势、评分，最后按最少订单行数过滤
// 默认按逾期比例降序
func ComputeVendorStats(lines []model.POLine, logs []model.POLog, th model.Thresholds, now time.Time) ([]model.VendorStats, map[string][]model.POLine) {
	aggregates := Aggregate(lines, logs, th.WorseningDays, now)

	stats := make([]model.VendorStats, 0, len(aggregates))
	linesByVendor := make(map[string][]model.POLine, len(aggregates))

	for _, agg := range aggregates {
		ratio := agg.NegativeChangeRatio()
		pastDuePct := agg.PastDuePercentage()

		vendor := model.VendorStats{
			Name:                  agg.Name,
			VendorNumber:          agg.VendorNumber,
			TotalLines:            agg.TotalLines(),
			PastDueLinesCount:     agg.PastDueCount(),
			PastDuePercentage:     pastDuePct,
			Trend:                 ClassifyTrend(ratio, th.WorseningPercentage),
			RecentNegativeChanges: agg.NegativeChangeCount(),
			NegativeChangeRatio:   ratio,
			PerformanceScore: PerformanceScore(ScoreInput{
				PastDuePercentage:   pastDuePct,
				NegativeChangeRatio: ratio,
				Lines:               agg.Lines,
			}),
		}

		if float64(vendor.TotalLines) < th.MinPOLines {
			continue
		}

		stats = append(stats, vendor)
		linesByVendor[agg.Name] = agg.Lines
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].PastDuePercentage > stats[j].PastDuePercentage
	})

	return stats, linesByVendor
}

// Run 纯函数流水线：统计 -> 告警
func Run(in PipelineInput) Snapshot {
	stats, linesByVendor := ComputeVendorStats(in.Lines, in.Logs, in.Thresholds, in.Now)

	alerts := EvaluateAlerts(EvaluationInput{
		Stats:         stats,
		Thresholds:    in.Thresholds,
		VendorRules:   in.Rules,
		LinesByVendor: linesByVendor,
		Now:           in.Now,
	})

	return Snapshot{
		Stats:         stats,
		Alerts:        alerts,
		LinesByVendor: linesByVendor,
		GeneratedAt:   in.Now,
	}
}
