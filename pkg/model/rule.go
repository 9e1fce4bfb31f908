// pkg/model/rule.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thresholds 全局监控阈值
type Thresholds struct {
	Percentage          float64 `yaml:"percentage" json:"percentage"`                   // 逾期比例阈值(%)
	Count               float64 `yaml:"count" json:"count"`                             // 逾期行数阈值
	MinPOLines          float64 `yaml:"min_po_lines" json:"minPoLines"`                 // 参与监控的最少订单行数
	WorseningDays       float64 `yaml:"worsening_days" json:"worseningDays"`            // 趋势回看天数
	WorseningPercentage float64 `yaml:"worsening_percentage" json:"worseningPercentage"` // 负向变更比例阈值(%)
}

// DefaultThresholds 默认阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		Percentage:          20,
		Count:               5,
		MinPOLines:          0,
		WorseningDays:       7,
		WorseningPercentage: 0,
	}
}

// RuleType 供应商专属规则类型
type RuleType string

const (
	RuleTypePOAck            RuleType = "po_ack"
	RuleTypePerformanceScore RuleType = "performance_score"
)

// Valid 是否为已知规则类型
func (t RuleType) Valid() bool {
	return t == RuleTypePOAck || t == RuleTypePerformanceScore
}

// VendorRule 供应商专属告警规则
type VendorRule struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	VendorName string    `gorm:"type:varchar(200);not null;index" yaml:"vendor_name" json:"vendorName"`
	RuleType   RuleType  `gorm:"type:varchar(30);not null" yaml:"rule_type" json:"ruleType"`
	Threshold  float64   `gorm:"type:decimal(10,4);not null" yaml:"threshold" json:"threshold"`
	CreatedAt  time.Time `yaml:"-" json:"created_at"`
	UpdatedAt  time.Time `yaml:"-" json:"updated_at"`
}

// TableName 自定义表名
func (VendorRule) TableName() string {
	return "vendor_rules"
}

func (r *VendorRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
