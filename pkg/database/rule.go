// pkg/database/rule.go
package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"VendorRadar/pkg/model"
	"VendorRadar/pkg/repository"
)

type VendorRuleDB struct {
	db *gorm.DB
}

func (d *Database) VendorRule() *VendorRuleDB {
	return &VendorRuleDB{db: d.db}
}

func (r *VendorRuleDB) List(ctx context.Context) ([]model.VendorRule, error) {
	var rules []model.VendorRule
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询供应商规则失败: %w", err)
	}
	return rules, nil
}

func (r *VendorRuleDB) Create(ctx context.Context, rule *model.VendorRule) error {
	if err := repository.ValidateRule(*rule); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("创建供应商规则失败: %w", err)
	}
	return nil
}

func (r *VendorRuleDB) GetByID(ctx context.Context, id string) (*model.VendorRule, error) {
	var rule model.VendorRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: %s", repository.ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("获取供应商规则失败: %w", err)
	}
	return &rule, nil
}

func (r *VendorRuleDB) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.VendorRule{})
	if result.Error != nil {
		return fmt.Errorf("删除供应商规则失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRuleNotFound, id)
	}
	return nil
}
