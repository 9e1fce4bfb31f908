package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"VendorRadar/pkg/llm"
)

// aiError 忙碌返回 429，空输入返回 400
func aiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, llm.ErrBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "智能分析失败: " + err.Error()})
	}
}

func (h *Handlers) requireAI(c *gin.Context) bool {
	if h.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置大模型服务"})
		return false
	}
	return true
}

// Analyze 根因分析，vendor 为空或 All Vendors 时分析全部数据
func (h *Handlers) Analyze(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	lines, logs, err := h.loadPOData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取订单数据失败: " + err.Error()})
		return
	}

	result, err := h.ai.RootCauseAnalysis(c.Request.Context(), llm.AnalysisRequest{
		Query:  req.Query,
		Vendor: req.Vendor,
		Lines:  lines,
		Logs:   logs,
	})
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Translate 翻译分析结果
func (h *Handlers) Translate(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	result, err := h.ai.Translate(c.Request.Context(), req.Analysis, parseLanguage(req.Language))
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Simulate 假设情景模拟
func (h *Handlers) Simulate(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	lines, err := h.store.ListPOLines(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取订单数据失败: " + err.Error()})
		return
	}
	lines, _ = llm.FilterByVendor(lines, nil, req.Vendor)

	text, err := h.ai.WhatIfSimulation(c.Request.Context(), req.Scenario, lines, parseLanguage(req.Language))
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": text})
}

// AssessRisk 风险评估，可选按字段排序
func (h *Handlers) AssessRisk(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	var req RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}

	lines, err := h.store.ListPOLines(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取订单数据失败: " + err.Error()})
		return
	}

	assessment, err := h.ai.AssessRisk(c.Request.Context(), req.Vendors, lines, parseLanguage(req.Language))
	if err != nil {
		aiError(c, err)
		return
	}

	results := assessment.Results
	if req.SortKey != "" {
		descending := true
		if req.Descending != nil {
			descending = *req.Descending
		}
		results = llm.SortRisk(results, llm.RiskSortKey(req.SortKey), descending)
	}

	c.JSON(http.StatusOK, RiskResponse{
		Results:          results,
		HighRiskByVendor: assessment.HighRiskByVendor,
		Justifications:   assessment.Justifications,
	})
}
