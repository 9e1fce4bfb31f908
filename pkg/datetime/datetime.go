// Package datetime 日期解析、逾期判断与时间分桶
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// Granularity 分桶粒度
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity 解析粒度，未知值回退到周
func ParseGranularity(s string) Granularity {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityDay:
		return GranularityDay
	case GranularityMonth:
		return GranularityMonth
	default:
		return GranularityWeek
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
}

// 不带时区的格式按调用方给定的时区解释
var localLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Parse 按本地时区解析日期字符串
func Parse(s string) (time.Time, error) {
	return ParseInLocation(s, time.Local)
}

// ParseInLocation 解析日期字符串，支持 RFC3339 与常见日期格式
func ParseInLocation(s string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return time.Time{}, fmt.Errorf("日期为空")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %q", s)
}

// StartOfDay 当天 00:00
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay 当天 23:59:59.999
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// IsPastDue ETA 严格早于 now 所在日的 00:00 即为逾期，无法解析的日期不算逾期
func IsPastDue(eta string, now time.Time) bool {
	t, err := ParseInLocation(eta, now.Location())
	if err != nil {
		return false
	}
	return t.Before(StartOfDay(now))
}

// MaxLookbackDays 回看天数上限，超出部分按上限计算
const MaxLookbackDays = 36500

// DaysBefore now 往前推 days 天，支持小数
func DaysBefore(now time.Time, days float64) time.Time {
	days = max(0, min(days, MaxLookbackDays))
	return now.Add(-time.Duration(days * float64(24*time.Hour)))
}

// DayKey 形如 2006-01-02
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ISOWeekKey 形如 2006-W05
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey 形如 2006-01
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// BucketKey 按粒度取分桶键
func BucketKey(t time.Time, g Granularity) string {
	switch g {
	case GranularityDay:
		return DayKey(t)
	case GranularityMonth:
		return MonthKey(t)
	default:
		return ISOWeekKey(t)
	}
}
