// pkg/engine/trend.go
package engine

import "VendorRadar/pkg/model"

// ClassifyTrend 负向变更比例严格超过阈值则为恶化，否则稳定
// TrendImproving 是保留状态，暂无产生规则
func ClassifyTrend(negativeChangeRatio, worseningPercentage float64) model.Trend {
	if negativeChangeRatio > worseningPercentage {
		return model.TrendWorsening
	}
	return model.TrendStable
}
