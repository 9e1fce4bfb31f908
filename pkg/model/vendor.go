// pkg/model/vendor.go
package model

// Trend 供应商趋势
type Trend string

const (
	TrendImproving Trend = "improving" // 保留状态，目前没有规则会产生
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// Valid 是否为已知趋势
func (t Trend) Valid() bool {
	switch t {
	case TrendImproving, TrendWorsening, TrendStable:
		return true
	}
	return false
}

// VendorStats 供应商统计，每次重算得出，不落库
type VendorStats struct {
	Name                  string  `json:"name"`
	VendorNumber          int     `json:"vendorNumber"`
	TotalLines            int     `json:"totalLines"`
	PastDueLinesCount     int     `json:"pastDueLinesCount"`
	PastDuePercentage     float64 `json:"pastDuePercentage"`
	Trend                 Trend   `json:"trend"`
	RecentNegativeChanges int     `json:"recentNegativeChanges"` // 窗口内有负向ETA变更的订单行数
	NegativeChangeRatio   float64 `json:"negativeChangeRatio"`
	PerformanceScore      float64 `json:"performanceScore"`
}
