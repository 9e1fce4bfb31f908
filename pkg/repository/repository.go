package repository

import (
	"context"
	"errors"
	"sync"

	"VendorRadar/pkg/model"
)

var (
	// ErrRuleNotFound 规则不存在
	ErrRuleNotFound = errors.New("供应商规则不存在")
	// ErrInvalidRule 规则字段无效
	ErrInvalidRule = errors.New("供应商规则无效")
)

// Store 订单数据与供应商规则存储，内存与 PostgreSQL 两种实现
type Store interface {
	ListPOLines(ctx context.Context) ([]model.POLine, error)
	ListPOLogs(ctx context.Context) ([]model.POLog, error)
	ListVendorRules(ctx context.Context) ([]model.VendorRule, error)

	UpsertPOLines(ctx context.Context, lines []model.POLine) error
	UpsertPOLogs(ctx context.Context, logs []model.POLog) error
	ReplacePOData(ctx context.Context, lines []model.POLine, logs []model.POLog) error

	CreateVendorRule(ctx context.Context, rule *model.VendorRule) error
	DeleteVendorRule(ctx context.Context, id string) error
}

// Repository 内存数据仓库
type Repository struct {
	lines     []model.POLine
	lineIndex map[string]int // POLineID -> lines 下标
	logs      []model.POLog
	logIndex  map[string]int
	rules     []model.VendorRule
	mutex     sync.RWMutex
}

// NewRepository 创建新的数据仓库
func NewRepository() *Repository {
	return &Repository{
		lines:     make([]model.POLine, 0),
		lineIndex: make(map[string]int),
		logs:      make([]model.POLog, 0),
		logIndex:  make(map[string]int),
		rules:     make([]model.VendorRule, 0),
	}
}

// ListPOLines 全部订单行的副本，保持导入顺序
func (r *Repository) ListPOLines(ctx context.Context) ([]model.POLine, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]model.POLine, len(r.lines))
	copy(result, r.lines)
	return result, nil
}

// ListPOLogs 全部变更日志的副本
func (r *Repository) ListPOLogs(ctx context.Context) ([]model.POLog, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]model.POLog, len(r.logs))
	copy(result, r.logs)
	return result, nil
}

// UpsertPOLines 按 POLineID 新增或覆盖，覆盖时保持原位置
func (r *Repository) UpsertPOLines(ctx context.Context, lines []model.POLine) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.upsertLines(lines)
	return nil
}

// UpsertPOLogs 按 LogID 新增或覆盖
func (r *Repository) UpsertPOLogs(ctx context.Context, logs []model.POLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.upsertLogs(logs)
	return nil
}

// ReplacePOData 整体替换订单行和日志，用于文件导入
func (r *Repository) ReplacePOData(ctx context.Context, lines []model.POLine, logs []model.POLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.lines = make([]model.POLine, 0, len(lines))
	r.lineIndex = make(map[string]int, len(lines))
	r.logs = make([]model.POLog, 0, len(logs))
	r.logIndex = make(map[string]int, len(logs))
	r.upsertLines(lines)
	r.upsertLogs(logs)
	return nil
}

// 调用方需持有写锁
func (r *Repository) upsertLines(lines []model.POLine) {
	for _, line := range lines {
		if idx, exists := r.lineIndex[line.POLineID]; exists {
			r.lines[idx] = line
			continue
		}
		r.lineIndex[line.POLineID] = len(r.lines)
		r.lines = append(r.lines, line)
	}
}

func (r *Repository) upsertLogs(logs []model.POLog) {
	for _, log := range logs {
		if idx, exists := r.logIndex[log.LogID]; exists {
			r.logs[idx] = log
			continue
		}
		r.logIndex[log.LogID] = len(r.logs)
		r.logs = append(r.logs, log)
	}
}

// Counts 订单行与日志数量
func (r *Repository) Counts() (lines int, logs int) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.lines), len(r.logs)
}
