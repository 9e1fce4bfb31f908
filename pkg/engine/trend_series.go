// pkg/engine/trend_series.go
package engine

import (
	"time"

	"VendorRadar/pkg/datetime"
	"VendorRadar/pkg/model"
)

// TrendPoint 趋势图上的一个分桶
type TrendPoint struct {
	Bucket          string `json:"bucket"`
	NegativeChanges int    `json:"negativeEtaChanges"`
	NewlyPastDue    int    `json:"newlyPastDue"`
}

// TrendSeries 单个供应商的趋势序列
type TrendSeries struct {
	Vendor      string               `json:"vendor"`
	Granularity datetime.Granularity `json:"granularity"`
	Days        int                  `json:"days"`
	Points      []TrendPoint         `json:"points"`
	HasData     bool                 `json:"hasData"`
}

// MaxTrendDays 趋势序列最多回看的天数
const MaxTrendDays = 3650

// BuildTrendSeries 统计最近 days 天内每个分桶的负向ETA变更数与新增逾期行数
// 分桶连续，没有数据的分桶计 0，days 限制在 [0, MaxTrendDays]
func BuildTrendSeries(vendor string, lines []model.POLine, logs []model.POLog, days int, g datetime.Granularity, now time.Time) TrendSeries {
	days = max(0, min(days, MaxTrendDays))
	loc := now.Location()
	end := datetime.EndOfDay(now)
	start := datetime.StartOfDay(now.AddDate(0, 0, -days))

	vendorLines := make(map[string]struct{})
	pastDue := make(map[string]int)
	for _, line := range lines {
		if line.Vendor != vendor {
			continue
		}
		vendorLines[line.POLineID] = struct{}{}

		eta, err := datetime.ParseInLocation(line.ETA, loc)
		if err != nil {
			continue
		}
		if !eta.Before(start) && eta.Before(end) {
			pastDue[datetime.BucketKey(eta, g)]++
		}
	}

	negative := make(map[string]int)
	for _, log := range logs {
		if _, ok := vendorLines[log.POLineID]; !ok {
			continue
		}
		changedAt, err := datetime.ParseInLocation(log.ChangeDate, loc)
		if err != nil || changedAt.Before(start) || changedAt.After(end) {
			continue
		}
		if IsNegativeChange(log, loc) {
			negative[datetime.BucketKey(changedAt, g)]++
		}
	}

	series := TrendSeries{
		Vendor:      vendor,
		Granularity: g,
		Days:        days,
		Points:      make([]TrendPoint, 0),
	}

	seen := make(map[string]struct{})
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := datetime.BucketKey(day, g)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		point := TrendPoint{
			Bucket:          key,
			NegativeChanges: negative[key],
			NewlyPastDue:    pastDue[key],
		}
		if point.NegativeChanges > 0 || point.NewlyPastDue > 0 {
			series.HasData = true
		}
		series.Points = append(series.Points, point)
	}

	return series
}
