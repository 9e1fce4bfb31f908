package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"VendorRadar/pkg/model"
)

// AllVendors 不按供应商过滤
const AllVendors = "All Vendors"

var (
	// ErrBusy 同一操作已有请求在处理中
	ErrBusy = errors.New("AI请求处理中，请稍后再试")
	// ErrEmptyInput 查询或场景为空
	ErrEmptyInput = errors.New("输入不能为空")
	// ErrSchemaMismatch 模型返回的内容不符合约定结构
	ErrSchemaMismatch = errors.New("模型输出不符合约定结构")
)

const (
	analysisFailedSummary   = "An error occurred while generating the analysis. Please try again later."
	translationFailedPrefix = "An error occurred while translating the analysis."
	simulationFailedText    = "An error occurred while communicating with the AI service. Please try again later."
)

// Action 互斥的AI操作
type Action string

const (
	ActionAnalysis   Action = "analysis"
	ActionTranslate  Action = "translate"
	ActionSimulation Action = "simulation"
	ActionRisk       Action = "risk"
)

// ChatCompleter 聊天补全接口，LLMClient 实现
type ChatCompleter interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// KnowledgeSource 为根因分析提供的补充资料
type KnowledgeSource interface {
	Content(ctx context.Context) (string, error)
}

// Service AI 分析服务
type Service struct {
	client    ChatCompleter
	knowledge KnowledgeSource
	clock     func() time.Time

	mu   sync.Mutex
	busy map[Action]bool
}

// NewService 创建 AI 分析服务，knowledge 可为空
func NewService(client ChatCompleter, knowledge KnowledgeSource) *Service {
	return &Service{
		client:    client,
		knowledge: knowledge,
		clock:     time.Now,
		busy:      make(map[Action]bool),
	}
}

// acquire 占用操作标记，已被占用时返回 ErrBusy
func (s *Service) acquire(action Action) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[action] {
		return nil, ErrBusy
	}
	s.busy[action] = true

	return func() {
		s.mu.Lock()
		delete(s.busy, action)
		s.mu.Unlock()
	}, nil
}

// Busy 操作是否正在处理中
func (s *Service) Busy(action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[action]
}

func (s *Service) today() string {
	return s.clock().Format("2006-01-02")
}

// AnalysisRequest 根因分析请求
type AnalysisRequest struct {
	Query  string
	Vendor string
	Lines  []model.POLine
	Logs   []model.POLog
}

// RootCauseAnalysis 结构化根因分析，模型失败时返回说明错误的摘要
func (s *Service) RootCauseAnalysis(ctx context.Context, req AnalysisRequest) (model.CategorizedAnalysisResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return model.CategorizedAnalysisResult{}, ErrEmptyInput
	}

	release, err := s.acquire(ActionAnalysis)
	if err != nil {
		return model.CategorizedAnalysisResult{}, err
	}
	defer release()

	vendor := req.Vendor
	if vendor == "" {
		vendor = AllVendors
	}
	lines, logs := FilterByVendor(req.Lines, req.Logs, vendor)

	system := s.analysisInstruction(ctx)
	prompt := fmt.Sprintf("User query: %q\n\nVendor in focus: %s\n\nOpen PO lines:\n%s\n\nPO change logs:\n%s\n\nReturn the categorized root cause analysis as JSON.",
		req.Query, vendor, toJSON(lines), toJSON(logs))

	result, err := s.chatAnalysis(ctx, system, prompt)
	if err != nil {
		log.Printf("根因分析失败: 供应商 %s, 错误: %v", vendor, err)
		return model.CategorizedAnalysisResult{
			Summary:  analysisFailedSummary,
			Analysis: []model.AnalysisCategory{},
		}, nil
	}
	return result, nil
}

func (s *Service) analysisInstruction(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("You are a supply chain analyst. Find the root causes of vendor delivery problems from purchase order lines and their change logs.\n")
	b.WriteString("Respond only with a JSON object {\"summary\": string, \"analysis\": [{\"category\": string, \"points\": [string]}]}.\n")
	b.WriteString("Use exactly the categories 'Vendor Issues' (supplier side, e.g. repeated ETA push-outs) and 'Internal (EMT) Issues' (our own data or process problems).\n")
	b.WriteString("Each point is markdown: state the issue, then cite one or two PO lines as examples.\n")
	b.WriteString("Write in English. Today's date is " + s.today() + ".\n")

	if s.knowledge == nil {
		return b.String()
	}
	content, err := s.knowledge.Content(ctx)
	if err != nil {
		log.Printf("读取知识库失败: %v", err)
		return b.String()
	}
	if content != "" {
		b.WriteString("\nAdditional reference material:\n")
		b.WriteString(content)
	}
	return b.String()
}

// Translate 将分析结果翻译为目标语言，结构保持不变
func (s *Service) Translate(ctx context.Context, analysis model.CategorizedAnalysisResult, lang model.Language) (model.CategorizedAnalysisResult, error) {
	release, err := s.acquire(ActionTranslate)
	if err != nil {
		return model.CategorizedAnalysisResult{}, err
	}
	defer release()

	system := fmt.Sprintf("You are a professional translator. Translate every 'summary' and 'points' string of the given JSON object to %s. Keep markdown, keep category values untouched and return only the JSON object.", lang.Name())

	result, err := s.chatAnalysis(ctx, system, toJSON(analysis))
	if err != nil {
		log.Printf("翻译分析结果失败: 目标语言 %s, 错误: %v", lang, err)
		return model.CategorizedAnalysisResult{
			Summary:  translationFailedPrefix + " " + analysisFailedSummary,
			Analysis: []model.AnalysisCategory{},
		}, nil
	}
	return result, nil
}

func (s *Service) chatAnalysis(ctx context.Context, system, prompt string) (model.CategorizedAnalysisResult, error) {
	var result model.CategorizedAnalysisResult

	content, err := s.client.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, ChatOptions{JSON: true})
	if err != nil {
		return result, err
	}

	if err := decodeJSON(content, &result); err != nil {
		return result, err
	}
	if err := validateAnalysis(result); err != nil {
		return result, err
	}
	if result.Analysis == nil {
		result.Analysis = []model.AnalysisCategory{}
	}
	return result, nil
}

// WhatIfSimulation 假设场景模拟，返回 markdown 文本
func (s *Service) WhatIfSimulation(ctx context.Context, scenario string, lines []model.POLine, lang model.Language) (string, error) {
	if strings.TrimSpace(scenario) == "" {
		return "", ErrEmptyInput
	}

	release, err := s.acquire(ActionSimulation)
	if err != nil {
		return "", err
	}
	defer release()

	system := fmt.Sprintf("You are a supply chain simulation assistant. Apply the user's what-if scenario to the purchase order data, compute its impact and list the affected POs and vendors. Format with markdown lists and tables. Today's date is %s. Respond in %s.",
		s.today(), lang.Name())
	prompt := fmt.Sprintf("What-if scenario: %q\n\nOpen PO lines:\n%s", scenario, toJSON(lines))

	content, err := s.client.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, ChatOptions{})
	if err != nil {
		log.Printf("模拟失败: %v", err)
		return simulationFailedText, nil
	}
	return content, nil
}

// riskEnvelope 兼容模型用对象包裹数组的情况
type riskEnvelope struct {
	Results []model.RiskAssessmentResult `json:"results"`
}

// PredictRisk 预测订单行延误风险，失败时返回空列表
func (s *Service) PredictRisk(ctx context.Context, lines []model.POLine, lang model.Language) []model.RiskAssessmentResult {
	system := fmt.Sprintf("You are a supply chain risk assessor. Predict which open PO lines are likely to be delayed, considering past due status, open quantities and vendor patterns. Today's date is %s. Respond only with JSON {\"results\": [{\"po_line_id\": string, \"risk_level\": \"High\"|\"Medium\"|\"Low\", \"justification\": string}]}. Write justifications in %s.",
		s.today(), lang.Name())
	prompt := "Open PO lines:\n" + toJSON(lines)

	content, err := s.client.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, ChatOptions{JSON: true})
	if err != nil {
		log.Printf("风险预测失败: %v", err)
		return []model.RiskAssessmentResult{}
	}

	results, err := decodeRisk(content)
	if err != nil {
		log.Printf("风险预测结果无效: %v", err)
		return []model.RiskAssessmentResult{}
	}
	return results
}

func decodeRisk(content string) ([]model.RiskAssessmentResult, error) {
	var results []model.RiskAssessmentResult
	if err := decodeJSON(content, &results); err != nil {
		var envelope riskEnvelope
		if envErr := decodeJSON(content, &envelope); envErr != nil {
			return nil, err
		}
		results = envelope.Results
	}

	for _, r := range results {
		if r.POLineID == "" {
			return nil, fmt.Errorf("%w: 缺少 po_line_id", ErrSchemaMismatch)
		}
		if r.RiskLevel.Weight() == 0 {
			return nil, fmt.Errorf("%w: 未知风险等级 %q", ErrSchemaMismatch, r.RiskLevel)
		}
	}
	if results == nil {
		results = []model.RiskAssessmentResult{}
	}
	return results, nil
}

// categoryEnvelope 兼容模型用对象包裹数组的情况
type categoryEnvelope struct {
	Categories []model.JustificationCategory `json:"categories"`
}

// CategorizeJustifications 将风险理由归为3到5类并计数，失败时返回空列表
func (s *Service) CategorizeJustifications(ctx context.Context, justifications []string, lang model.Language) []model.JustificationCategory {
	if len(justifications) == 0 {
		return []model.JustificationCategory{}
	}

	system := fmt.Sprintf("You categorize risk justifications. Group them into 3 to 5 high-level categories such as 'Severe Past Due' or 'Logistics Delays' and count the members of each. Respond only with JSON {\"categories\": [{\"category\": string, \"count\": integer}]}. Name categories in %s.",
		lang.Name())

	content, err := s.client.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: "Justifications:\n" + toJSON(justifications)},
	}, ChatOptions{JSON: true})
	if err != nil {
		log.Printf("风险理由归类失败: %v", err)
		return []model.JustificationCategory{}
	}

	var categories []model.JustificationCategory
	if err := decodeJSON(content, &categories); err != nil {
		var envelope categoryEnvelope
		if envErr := decodeJSON(content, &envelope); envErr != nil {
			log.Printf("风险理由归类结果无效: %v", err)
			return []model.JustificationCategory{}
		}
		categories = envelope.Categories
	}

	for _, c := range categories {
		if c.Category == "" || c.Count < 0 {
			log.Printf("风险理由归类结果无效: %+v", c)
			return []model.JustificationCategory{}
		}
	}
	if categories == nil {
		categories = []model.JustificationCategory{}
	}
	return categories
}

// RiskAssessment 完整风险评估结果
type RiskAssessment struct {
	Results          []model.RiskAssessmentResult  `json:"results"`
	HighRiskByVendor map[string]int                `json:"high_risk_by_vendor"`
	Justifications   []model.JustificationCategory `json:"justification_summary"`
}

// AssessRisk 预测风险、关联供应商、汇总高风险并归类理由
func (s *Service) AssessRisk(ctx context.Context, vendors []string, lines []model.POLine, lang model.Language) (RiskAssessment, error) {
	release, err := s.acquire(ActionRisk)
	if err != nil {
		return RiskAssessment{}, err
	}
	defer release()

	selected := FilterByVendors(lines, vendors)
	assessment := RiskAssessment{
		Results:          []model.RiskAssessmentResult{},
		HighRiskByVendor: map[string]int{},
		Justifications:   []model.JustificationCategory{},
	}
	if len(selected) == 0 {
		return assessment, nil
	}

	results := EnrichRisk(s.PredictRisk(ctx, selected, lang), lines)
	assessment.Results = SortRisk(results, RiskSortLevel, true)
	assessment.HighRiskByVendor = SummarizeHighRisk(results)

	justifications := make([]string, 0)
	for _, r := range results {
		if r.RiskLevel == model.RiskHigh {
			justifications = append(justifications, r.Justification)
		}
	}
	assessment.Justifications = s.CategorizeJustifications(ctx, justifications, lang)

	return assessment, nil
}

// decodeJSON 解析模型输出，允许 ```json 代码块包裹
func decodeJSON(content string, v interface{}) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

func validateAnalysis(result model.CategorizedAnalysisResult) error {
	if strings.TrimSpace(result.Summary) == "" {
		return fmt.Errorf("%w: 缺少 summary", ErrSchemaMismatch)
	}
	for _, c := range result.Analysis {
		if c.Category != model.CategoryVendorIssues && c.Category != model.CategoryInternalIssues {
			return fmt.Errorf("%w: 未知分类 %q", ErrSchemaMismatch, c.Category)
		}
	}
	return nil
}

func toJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
