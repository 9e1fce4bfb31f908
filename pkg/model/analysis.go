// pkg/model/analysis.go
package model

// Language 输出语言
type Language string

const (
	LanguageEN Language = "en"
	LanguageZH Language = "zh"
)

// Name 语言全称，用于提示词
func (l Language) Name() string {
	if l == LanguageZH {
		return "Chinese"
	}
	return "English"
}

// AnalysisCategoryName 根因分类
type AnalysisCategoryName string

const (
	CategoryVendorIssues   AnalysisCategoryName = "Vendor Issues"
	CategoryInternalIssues AnalysisCategoryName = "Internal (EMT) Issues"
)

// AnalysisCategory 分类下的分析要点
type AnalysisCategory struct {
	Category AnalysisCategoryName `json:"category"`
	Points   []string             `json:"points"`
}

// CategorizedAnalysisResult 结构化根因分析结果
type CategorizedAnalysisResult struct {
	Summary  string             `json:"summary"`
	Analysis []AnalysisCategory `json:"analysis"`
}

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Weight 排序权重
func (r RiskLevel) Weight() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// RiskAssessmentResult 单个订单行的风险评估
type RiskAssessmentResult struct {
	POLineID      string    `json:"po_line_id"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Justification string    `json:"justification"`
	Vendor        string    `json:"vendor,omitempty"`
}

// JustificationCategory 风险理由归类
type JustificationCategory struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
