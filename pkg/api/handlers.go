package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"VendorRadar/pkg/collector"
	"VendorRadar/pkg/config"
	"VendorRadar/pkg/datetime"
	"VendorRadar/pkg/engine"
	"VendorRadar/pkg/knowledge"
	"VendorRadar/pkg/llm"
	"VendorRadar/pkg/model"
	"VendorRadar/pkg/monitor"
	"VendorRadar/pkg/repository"
)

const defaultTrendDays = 30

// AIService 智能分析能力
type AIService interface {
	RootCauseAnalysis(ctx context.Context, req llm.AnalysisRequest) (model.CategorizedAnalysisResult, error)
	Translate(ctx context.Context, analysis model.CategorizedAnalysisResult, lang model.Language) (model.CategorizedAnalysisResult, error)
	WhatIfSimulation(ctx context.Context, scenario string, lines []model.POLine, lang model.Language) (string, error)
	AssessRisk(ctx context.Context, vendors []string, lines []model.POLine, lang model.Language) (llm.RiskAssessment, error)
}

var _ AIService = (*llm.Service)(nil)

// Dependencies 处理程序依赖，AI 与 Monitor 可为空
type Dependencies struct {
	Engine    *engine.MonitorEngine
	Store     repository.Store
	Knowledge knowledge.Store
	AI        AIService
	Monitor   *monitor.Monitor
	MaxUpload int64
}

// Handlers API处理程序
type Handlers struct {
	engine    *engine.MonitorEngine
	store     repository.Store
	knowledge knowledge.Store
	ai        AIService
	monitor   *monitor.Monitor
	importer  *collector.Importer
	maxUpload int64
}

// NewHandlers 创建新的API处理程序
func NewHandlers(deps Dependencies) *Handlers {
	maxUpload := deps.MaxUpload
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handlers{
		engine:    deps.Engine,
		store:     deps.Store,
		knowledge: deps.Knowledge,
		ai:        deps.AI,
		monitor:   deps.Monitor,
		importer:  collector.NewImporter(deps.Store),
		maxUpload: maxUpload,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查，返回各组件状态
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	status, code := "ready", http.StatusOK
	if !h.monitor.Ready() {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": h.monitor.GetAllStatus(),
	})
}

// GetVendors 最新供应商统计，支持 sort/direction 查询参数
func (h *Handlers) GetVendors(c *gin.Context) {
	snapshot := h.engine.Snapshot()
	state := engine.ParseSortState(c.Query("sort"), c.Query("direction"))
	// toggle 为点击的列，基于当前排序状态翻转
	if key := c.Query("toggle"); engine.IsSortKey(key) {
		state = state.Toggle(key)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        toVendorDTOs(engine.SortStats(snapshot.Stats, state)),
		"sort":        state,
		"generatedAt": snapshot.GeneratedAt,
	})
}

// QueryVendors 按条件过滤并排序
func (h *Handlers) QueryVendors(c *gin.Context) {
	var req VendorQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	conditions := make([]engine.Condition, 0, len(req.Filters))
	for _, f := range req.Filters {
		cond, err := engine.ParseCondition(f.Field, f.Operator, f.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cond != nil {
			conditions = append(conditions, cond)
		}
	}

	state := engine.ParseSortState(req.Sort.Key, req.Sort.Direction)
	snapshot := h.engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data": toVendorDTOs(engine.ApplyView(snapshot.Stats, conditions, state)),
		"sort": state,
	})
}

// GetVendorTrend 单个供应商的趋势序列
func (h *Handlers) GetVendorTrend(c *gin.Context) {
	vendor := c.Param("name")
	days := defaultTrendDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days参数必须是非负整数"})
			return
		}
		if n > engine.MaxTrendDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days参数不能超过 %d", engine.MaxTrendDays)})
			return
		}
		days = n
	}

	lines, logs, err := h.loadPOData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取订单数据失败: " + err.Error()})
		return
	}

	series := engine.BuildTrendSeries(vendor, lines, logs, days, datetime.ParseGranularity(c.Query("granularity")), h.engine.Now())
	c.JSON(http.StatusOK, gin.H{"data": series})
}

// GetAlerts 最新告警
func (h *Handlers) GetAlerts(c *gin.Context) {
	snapshot := h.engine.Snapshot()
	alerts := snapshot.Alerts
	if alerts == nil {
		alerts = []model.Alert{}
	}
	c.JSON(http.StatusOK, AlertsResponse{
		Alerts:          alerts,
		HighestSeverity: engine.HighestSeverity(alerts),
		GeneratedAt:     snapshot.GeneratedAt,
	})
}

// Recompute 立即重算
func (h *Handlers) Recompute(c *gin.Context) {
	snapshot, err := h.engine.Recompute(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "重算失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vendors":     len(snapshot.Stats),
		"alerts":      len(snapshot.Alerts),
		"generatedAt": snapshot.GeneratedAt,
	})
}

// GetThresholds 当前阈值
func (h *Handlers) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.engine.Thresholds()})
}

// UpdateThresholds 整体替换阈值，非数字或负数按 0 处理，缺省字段取默认值
func (h *Handlers) UpdateThresholds(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	th := config.ParseThresholds(raw)
	h.engine.SetThresholds(th)
	h.recomputeAfterChange(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": th})
}

// ListRules 供应商规则列表
func (h *Handlers) ListRules(c *gin.Context) {
	rules, err := h.store.ListVendorRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取供应商规则失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules})
}

// CreateRule 新建供应商规则
func (h *Handlers) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	rule := &model.VendorRule{VendorName: req.VendorName, RuleType: req.RuleType, Threshold: req.Threshold}
	if err := h.store.CreateVendorRule(c.Request.Context(), rule); err != nil {
		if errors.Is(err, repository.ErrInvalidRule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存供应商规则失败: " + err.Error()})
		return
	}

	h.recomputeAfterChange(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"data": rule})
}

// DeleteRule 删除供应商规则
func (h *Handlers) DeleteRule(c *gin.Context) {
	if err := h.store.DeleteVendorRule(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除供应商规则失败: " + err.Error()})
		return
	}

	h.recomputeAfterChange(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GetNotificationSettings 通知设置
func (h *Handlers) GetNotificationSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.engine.NotificationSettings()})
}

// UpdateNotificationSettings 替换通知设置，下次重算生效
func (h *Handlers) UpdateNotificationSettings(c *gin.Context) {
	var settings model.NotificationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}
	switch settings.Channel {
	case model.ChannelEmail, model.ChannelTeams, model.ChannelNATS, model.ChannelLog:
	case "":
		settings.Channel = model.ChannelLog
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的通知渠道: " + string(settings.Channel)})
		return
	}

	h.engine.SetNotificationSettings(settings)
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// recomputeAfterChange 配置变化后立即重算，失败只影响本次快照
func (h *Handlers) recomputeAfterChange(ctx context.Context) {
	if _, err := h.engine.Recompute(ctx); err != nil {
		log.Printf("配置变更后重算失败: %v", err)
	}
}

func (h *Handlers) loadPOData(ctx context.Context) ([]model.POLine, []model.POLog, error) {
	lines, err := h.store.ListPOLines(ctx)
	if err != nil {
		return nil, nil, err
	}
	logs, err := h.store.ListPOLogs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return lines, logs, nil
}
