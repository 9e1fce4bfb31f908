// pkg/engine/sort.go
package engine

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"VendorRadar/pkg/model"
)

// SortDirection 排序方向
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortState 当前排序键与方向
type SortState struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSortState 默认按逾期比例降序
func DefaultSortState() SortState {
	return SortState{Key: string(FieldPastDuePercentage), Direction: SortDescending}
}

// Toggle 点击同一列翻转方向，点击新列从降序开始
func (s SortState) Toggle(key string) SortState {
	if s.Key == key {
		if s.Direction == SortDescending {
			return SortState{Key: key, Direction: SortAscending}
		}
		return SortState{Key: key, Direction: SortDescending}
	}
	return SortState{Key: key, Direction: SortDescending}
}

// ParseSortState 解析接口参数，无效键回退到默认排序
func ParseSortState(key, direction string) SortState {
	if !IsSortKey(key) {
		return DefaultSortState()
	}
	dir := SortDescending
	if SortDirection(direction) == SortAscending {
		dir = SortAscending
	}
	return SortState{Key: key, Direction: dir}
}

// IsSortKey 是否为可排序字段
func IsSortKey(key string) bool {
	if key == FieldName || key == FieldTrend {
		return true
	}
	_, ok := NumberField(key).Value(model.VendorStats{})
	return ok
}

// SortStats 稳定排序，返回新切片
// 名称与趋势按本地化排序规则比较，其余字段按数值比较
func SortStats(stats []model.VendorStats, state SortState) []model.VendorStats {
	result := make([]model.VendorStats, len(stats))
	copy(result, stats)

	if !IsSortKey(state.Key) {
		return result
	}

	compare := compareFunc(state.Key)
	sort.SliceStable(result, func(i, j int) bool {
		c := compare(result[i], result[j])
		if state.Direction == SortAscending {
			return c < 0
		}
		return c > 0
	})

	return result
}

func compareFunc(key string) func(a, b model.VendorStats) int {
	switch key {
	case FieldName, FieldTrend:
		// collator 不是并发安全的，每次排序单独创建
		collator := collate.New(language.Und)
		return func(a, b model.VendorStats) int {
			if key == FieldName {
				return collator.CompareString(a.Name, b.Name)
			}
			return collator.CompareString(string(a.Trend), string(b.Trend))
		}
	}

	field := NumberField(key)
	return func(a, b model.VendorStats) int {
		x, _ := field.Value(a)
		y, _ := field.Value(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
}

// ApplyView 先过滤后排序
func ApplyView(stats []model.VendorStats, conditions []Condition, state SortState) []model.VendorStats {
	return SortStats(ApplyFilters(stats, conditions), state)
}
