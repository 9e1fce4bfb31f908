package api

import (
	"time"

	"github.com/shopspring/decimal"

	"VendorRadar/pkg/model"
)

// round 展示用四舍五入
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// VendorStatsDTO 看板行，比例与得分保留一位小数
type VendorStatsDTO struct {
	Name                  string      `json:"name"`
	VendorNumber          int         `json:"vendorNumber"`
	TotalLines            int         `json:"totalLines"`
	PastDueLinesCount     int         `json:"pastDueLinesCount"`
	PastDuePercentage     float64     `json:"pastDuePercentage"`
	Trend                 model.Trend `json:"trend"`
	RecentNegativeChanges int         `json:"recentNegativeChanges"`
	NegativeChangeRatio   float64     `json:"negativeChangeRatio"`
	PerformanceScore      float64     `json:"performanceScore"`
}

func toVendorDTOs(stats []model.VendorStats) []VendorStatsDTO {
	result := make([]VendorStatsDTO, 0, len(stats))
	for _, s := range stats {
		result = append(result, VendorStatsDTO{
			Name:                  s.Name,
			VendorNumber:          s.VendorNumber,
			TotalLines:            s.TotalLines,
			PastDueLinesCount:     s.PastDueLinesCount,
			PastDuePercentage:     round(s.PastDuePercentage, 1),
			Trend:                 s.Trend,
			RecentNegativeChanges: s.RecentNegativeChanges,
			NegativeChangeRatio:   round(s.NegativeChangeRatio, 1),
			PerformanceScore:      round(s.PerformanceScore, 1),
		})
	}
	return result
}

// AlertsResponse 告警列表
type AlertsResponse struct {
	Alerts          []model.Alert       `json:"alerts"`
	HighestSeverity model.AlertSeverity `json:"highestSeverity,omitempty"`
	GeneratedAt     time.Time           `json:"generatedAt"`
}

// ConditionRequest 单个过滤条件
type ConditionRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// SortRequest 排序参数
type SortRequest struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// VendorQueryRequest 看板过滤与排序
type VendorQueryRequest struct {
	Filters []ConditionRequest `json:"filters"`
	Sort    SortRequest        `json:"sort"`
}

// RuleRequest 新建供应商规则
type RuleRequest struct {
	VendorName string         `json:"vendorName" binding:"required"`
	RuleType   model.RuleType `json:"ruleType" binding:"required"`
	Threshold  float64        `json:"threshold"`
}

// KnowledgeRequest JSON 方式上传知识库文件
type KnowledgeRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

// AnalysisRequest 根因分析
type AnalysisRequest struct {
	Query  string `json:"query" binding:"required"`
	Vendor string `json:"vendor"`
}

// TranslateRequest 翻译分析结果
type TranslateRequest struct {
	Analysis model.CategorizedAnalysisResult `json:"analysis"`
	Language model.Language                  `json:"language"`
}

// SimulationRequest 假设情景模拟
type SimulationRequest struct {
	Scenario string         `json:"scenario" binding:"required"`
	Vendor   string         `json:"vendor"`
	Language model.Language `json:"language"`
}

// RiskRequest 风险评估
type RiskRequest struct {
	Vendors    []string       `json:"vendors"`
	Language   model.Language `json:"language"`
	SortKey    string         `json:"sortKey"`
	Descending *bool          `json:"descending"`
}

// RiskResponse 风险评估结果
type RiskResponse struct {
	Results          []model.RiskAssessmentResult  `json:"results"`
	HighRiskByVendor map[string]int                `json:"highRiskByVendor"`
	Justifications   []model.JustificationCategory `json:"justifications"`
}

func parseLanguage(l model.Language) model.Language {
	if l == model.LanguageZH {
		return model.LanguageZH
	}
	return model.LanguageEN
}
