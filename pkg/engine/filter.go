// pkg/engine/filter.go
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"VendorRadar/pkg/model"
)

// ErrInvalidCondition 字段与操作符不匹配或值无法解析
var ErrInvalidCondition = errors.New("无效的过滤条件")

// Condition 过滤条件，按字段类型区分为字符串、数值、趋势三种
type Condition interface {
	Match(v model.VendorStats) bool
	Field() string
}

// StringOperator 字符串操作符，均不区分大小写
type StringOperator string

const (
	OpContains    StringOperator = "contains"
	OpNotContains StringOperator = "not_contains"
	OpIs          StringOperator = "is"
	OpIsNot       StringOperator = "is_not"
)

// NumberOperator 数值操作符
type NumberOperator string

const (
	OpGreaterOrEqual NumberOperator = ">="
	OpLessOrEqual    NumberOperator = "<="
)

// EnumOperator 枚举操作符
type EnumOperator string

const (
	OpEnumIs    EnumOperator = "is"
	OpEnumIsNot EnumOperator = "is_not"
)

// NumberField 可按数值过滤和排序的字段
type NumberField string

const (
	FieldVendorNumber          NumberField = "vendorNumber"
	FieldTotalLines            NumberField = "totalLines"
	FieldPastDueLinesCount     NumberField = "pastDueLinesCount"
	FieldPastDuePercentage     NumberField = "pastDuePercentage"
	FieldRecentNegativeChanges NumberField = "recentNegativeChanges"
	FieldPerformanceScore      NumberField = "performanceScore"
)

const (
	FieldName  = "name"
	FieldTrend = "trend"
)

// Value 取出对应数值
func (f NumberField) Value(v model.VendorStats) (float64, bool) {
	switch f {
	case FieldVendorNumber:
		return float64(v.VendorNumber), true
	case FieldTotalLines:
		return float64(v.TotalLines), true
	case FieldPastDueLinesCount:
		return float64(v.PastDueLinesCount), true
	case FieldPastDuePercentage:
		return v.PastDuePercentage, true
	case FieldRecentNegativeChanges:
		return float64(v.RecentNegativeChanges), true
	case FieldPerformanceScore:
		return v.PerformanceScore, true
	}
	return 0, false
}

// StringCondition 供应商名称条件
type StringCondition struct {
	Op    StringOperator
	Value string
}

func (c StringCondition) Field() string { return FieldName }

func (c StringCondition) Match(v model.VendorStats) bool {
	name := strings.ToLower(v.Name)
	value := strings.ToLower(c.Value)

	switch c.Op {
	case OpContains:
		return strings.Contains(name, value)
	case OpNotContains:
		return !strings.Contains(name, value)
	case OpIs:
		return name == value
	case OpIsNot:
		return name != value
	}
	return true
}

// NumberCondition 数值字段条件
type NumberCondition struct {
	NumField NumberField
	Op       NumberOperator
	Value    float64
}

func (c NumberCondition) Field() string { return string(c.NumField) }

func (c NumberCondition) Match(v model.VendorStats) bool {
	actual, ok := c.NumField.Value(v)
	if !ok {
		return true
	}

	switch c.Op {
	case OpGreaterOrEqual:
		return actual >= c.Value
	case OpLessOrEqual:
		return actual <= c.Value
	}
	return true
}

// TrendCondition 趋势条件
type TrendCondition struct {
	Op    EnumOperator
	Value model.Trend
}

func (c TrendCondition) Field() string { return FieldTrend }

func (c TrendCondition) Match(v model.VendorStats) bool {
	switch c.Op {
	case OpEnumIs:
		return v.Trend == c.Value
	case OpEnumIsNot:
		return v.Trend != c.Value
	}
	return true
}

// ParseCondition 由接口传入的 字段/操作符/值 构造条件
// 不完整的条件返回 nil, nil，调用方直接跳过
func ParseCondition(field, operator, value string) (Condition, error) {
	field = strings.TrimSpace(field)
	operator = strings.TrimSpace(operator)
	if field == "" || operator == "" || strings.TrimSpace(value) == "" {
		return nil, nil
	}

	switch field {
	case FieldName:
		op := StringOperator(operator)
		switch op {
		case OpContains, OpNotContains, OpIs, OpIsNot:
			return StringCondition{Op: op, Value: value}, nil
		}
		return nil, fmt.Errorf("%w: 字段 %s 不支持操作符 %s", ErrInvalidCondition, field, operator)

	case FieldTrend:
		op := EnumOperator(operator)
		if op != OpEnumIs && op != OpEnumIsNot {
			return nil, fmt.Errorf("%w: 字段 %s 不支持操作符 %s", ErrInvalidCondition, field, operator)
		}
		trend := model.Trend(strings.ToLower(strings.TrimSpace(value)))
		if !trend.Valid() {
			return nil, fmt.Errorf("%w: 未知趋势 %s", ErrInvalidCondition, value)
		}
		return TrendCondition{Op: op, Value: trend}, nil
	}

	numField := NumberField(field)
	if _, ok := numField.Value(model.VendorStats{}); !ok {
		return nil, fmt.Errorf("%w: 未知字段 %s", ErrInvalidCondition, field)
	}

	op := NumberOperator(operator)
	if op != OpGreaterOrEqual && op != OpLessOrEqual {
		return nil, fmt.Errorf("%w: 字段 %s 不支持操作符 %s", ErrInvalidCondition, field, operator)
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: 字段 %s 的值 %q 不是数字", ErrInvalidCondition, field, value)
	}
	return NumberCondition{NumField: numField, Op: op, Value: number}, nil
}

// ApplyFilters 逻辑与组合全部条件，返回新切片，输入不变
func ApplyFilters(stats []model.VendorStats, conditions []Condition) []model.VendorStats {
	result := make([]model.VendorStats, 0, len(stats))

outer:
	for _, vendor := range stats {
		for _, cond := range conditions {
			if cond == nil {
				continue
			}
			if !cond.Match(vendor) {
				continue outer
			}
		}
		result = append(result, vendor)
	}

	return result
}
