package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"VendorRadar/pkg/model"
)

// ValidateRule 供应商名非空、类型已知、阈值为正
func ValidateRule(rule model.VendorRule) error {
	if strings.TrimSpace(rule.VendorName) == "" {
		return fmt.Errorf("%w: 供应商名称为空", ErrInvalidRule)
	}
	if !rule.RuleType.Valid() {
		return fmt.Errorf("%w: 未知规则类型 %q", ErrInvalidRule, rule.RuleType)
	}
	if rule.Threshold <= 0 {
		return fmt.Errorf("%w: 阈值必须大于0", ErrInvalidRule)
	}
	return nil
}

// ListVendorRules 全部供应商规则，按创建顺序
func (r *Repository) ListVendorRules(ctx context.Context) ([]model.VendorRule, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]model.VendorRule, len(r.rules))
	copy(result, r.rules)
	return result, nil
}

// CreateVendorRule 校验并保存规则，自动生成ID
func (r *Repository) CreateVendorRule(ctx context.Context, rule *model.VendorRule) error {
	if err := ValidateRule(*rule); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	r.rules = append(r.rules, *rule)
	return nil
}

// DeleteVendorRule 按ID删除规则
func (r *Repository) DeleteVendorRule(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, rule := range r.rules {
		if rule.ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// SeedVendorRules 载入配置文件中的规则，已存在的同名同类型规则跳过，无效规则返回错误汇总
func SeedVendorRules(ctx context.Context, store Store, rules []model.VendorRule) error {
	existing, err := store.ListVendorRules(ctx)
	if err != nil {
		return fmt.Errorf("读取已有供应商规则失败: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.VendorName+"/"+string(r.RuleType)] = struct{}{}
	}

	var failed []string
	for i := range rules {
		rule := rules[i]
		key := rule.VendorName + "/" + string(rule.RuleType)
		if _, ok := seen[key]; ok {
			continue
		}
		if err := store.CreateVendorRule(ctx, &rule); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		seen[key] = struct{}{}
	}
	if len(failed) > 0 {
		return fmt.Errorf("载入供应商规则失败: %s", strings.Join(failed, "; "))
	}
	return nil
}
