// pkg/engine/scorer.go
package engine

import (
	"math"
	"time"

	"VendorRadar/pkg/model"
)

const (
	pastDueWeight = 50.0
	trendWeight   = 30.0
	ackWeight     = 20.0

	// 创建后24小时内确认视为及时
	onTimeAckWindow = 24 * time.Hour
)

// ScoreInput 绩效评分输入
type ScoreInput struct {
	PastDuePercentage   float64
	NegativeChangeRatio float64
	Lines               []model.POLine
}

// OnTimeAckFraction 已确认订单行中及时确认的比例，没有已确认订单行时为1
// 仍为 Pending 的订单行不参与计算，由 po_ack 规则负责
func OnTimeAckFraction(lines []model.POLine) float64 {
	acknowledged := 0
	onTime := 0
	for _, line := range lines {
		if !line.IsAcknowledged() {
			continue
		}
		acknowledged++
		// 缺少确认时间的无法判定为及时
		if line.AckDate == nil {
			continue
		}
		if line.AckDate.Sub(line.CreationDate) <= onTimeAckWindow {
			onTime++
		}
	}

	if acknowledged == 0 {
		return 1
	}
	return float64(onTime) / float64(acknowledged)
}

// PerformanceScore 综合评分 [0,100]：逾期50 + 趋势30 + 确认及时性20
func PerformanceScore(in ScoreInput) float64 {
	pastDueScore := pastDueWeight * (1 - math.Min(1, in.PastDuePercentage/100))
	trendScore := trendWeight * (1 - math.Min(1, in.NegativeChangeRatio/100))
	ackScore := ackWeight * OnTimeAckFraction(in.Lines)

	return math.Max(0, pastDueScore+trendScore+ackScore)
}
