package collector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"VendorRadar/pkg/datetime"
	"VendorRadar/pkg/model"
)

// Kind 表格内容类型
type Kind string

const (
	KindLines Kind = "po_lines"
	KindLogs  Kind = "po_logs"
)

// row 按表头取单元格
type row struct {
	index  map[string]int
	values []string
	line   int
}

func newHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		index[key] = i
	}
	return index
}

// DetectKind 根据表头判断是订单行还是日志
func DetectKind(header []string) (Kind, error) {
	index := newHeader(header)
	if _, ok := index["log_id"]; ok {
		return KindLogs, nil
	}
	if _, ok := index["vendor"]; ok {
		return KindLines, nil
	}
	return "", fmt.Errorf("无法识别的表头: %v", header)
}

func (r row) get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r row) decimal(name string) (float64, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("第%d行字段 %s 不是数字: %q", r.line, name, v)
	}
	return d.InexactFloat64(), nil
}

func (r row) integer(name string) (int, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("第%d行字段 %s 不是整数: %q", r.line, name, v)
	}
	return int(d.IntPart()), nil
}

func (r row) timestamp(name string) (*time.Time, error) {
	v := r.get(name)
	if v == "" || strings.EqualFold(v, "null") {
		return nil, nil
	}
	t, err := datetime.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("第%d行字段 %s 不是日期: %q", r.line, name, v)
	}
	return &t, nil
}

// parseLine 表格行转订单行
func parseLine(r row) (model.POLine, error) {
	var line model.POLine
	var err error

	line.POLineID = r.get("po_line_id")
	line.Vendor = r.get("vendor")
	line.PONumber = r.get("po_number")
	line.ESD = r.get("esd")
	line.ETA = r.get("eta")

	if line.VendorNumber, err = r.integer("vendor_number"); err != nil {
		return line, err
	}
	if line.TransitTimeDays, err = r.integer("transit_time_days"); err != nil {
		return line, err
	}
	quantities := []struct {
		name string
		dst  *float64
	}{
		{"scheduled_ship_qty", &line.ScheduledShipQty},
		{"shipped_qty", &line.ShippedQty},
		{"open_qty", &line.OpenQty},
		{"unscheduled_qty", &line.UnscheduledQty},
	}
	for _, q := range quantities {
		if *q.dst, err = r.decimal(q.name); err != nil {
			return line, err
		}
	}

	if tracking := r.get("tracking_number"); tracking != "" && !strings.EqualFold(tracking, "null") {
		line.TrackingNumber = &tracking
	}

	created, err := r.timestamp("creation_date")
	if err != nil {
		return line, err
	}
	if created != nil {
		line.CreationDate = *created
	}

	line.AckStatus = model.AckStatusPending
	if strings.EqualFold(r.get("ack_status"), string(model.AckStatusAcknowledged)) {
		line.AckStatus = model.AckStatusAcknowledged
	}
	if line.AckDate, err = r.timestamp("ack_date"); err != nil {
		return line, err
	}
	if err := validateLine(line); err != nil {
		return line, fmt.Errorf("第%d行%w", r.line, err)
	}
	return line, nil
}

// parseLog 表格行转变更日志
func parseLog(r row) (model.POLog, error) {
	entry := model.POLog{
		LogID:        r.get("log_id"),
		POLineID:     r.get("po_line_id"),
		ChangeDate:   r.get("change_date"),
		ChangedField: r.get("changed_field"),
		OldValue:     parseLogValue(r.get("old_value")),
		NewValue:     parseLogValue(r.get("new_value")),
	}
	if err := validateLog(entry); err != nil {
		return entry, fmt.Errorf("第%d行%w", r.line, err)
	}
	return entry, nil
}

// ErrInvalidRecord 记录缺少必填字段
var ErrInvalidRecord = errors.New("缺少必填字段")

// validateLine 订单行必须有 po_line_id、vendor 和 creation_date
func validateLine(line model.POLine) error {
	switch {
	case strings.TrimSpace(line.POLineID) == "":
		return fmt.Errorf("%w po_line_id", ErrInvalidRecord)
	case strings.TrimSpace(line.Vendor) == "":
		return fmt.Errorf("%w vendor", ErrInvalidRecord)
	case line.CreationDate.IsZero():
		return fmt.Errorf("%w creation_date", ErrInvalidRecord)
	}
	return nil
}

// validateLog 变更日志必须有 log_id、po_line_id 和 change_date
func validateLog(entry model.POLog) error {
	switch {
	case strings.TrimSpace(entry.LogID) == "":
		return fmt.Errorf("%w log_id", ErrInvalidRecord)
	case strings.TrimSpace(entry.POLineID) == "":
		return fmt.Errorf("%w po_line_id", ErrInvalidRecord)
	case strings.TrimSpace(entry.ChangeDate) == "":
		return fmt.Errorf("%w change_date", ErrInvalidRecord)
	}
	return nil
}

// parseLogValue 空串和 null 为空值，纯数字为数字，其余按字符串
func parseLogValue(s string) model.LogValue {
	if s == "" || strings.EqualFold(s, "null") {
		return model.NullValue()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return model.NumberValue(n)
	}
	return model.StringValue(s)
}

// parseRows 按类型解析数据行，header 为第一行
func parseRows(kind Kind, header []string, records [][]string) (Batch, error) {
	index := newHeader(header)
	var batch Batch

	for i, values := range records {
		if isBlank(values) {
			continue
		}
		r := row{index: index, values: values, line: i + 2}
		switch kind {
		case KindLines:
			line, err := parseLine(r)
			if err != nil {
				return Batch{}, err
			}
			batch.Lines = append(batch.Lines, line)
		case KindLogs:
			entry, err := parseLog(r)
			if err != nil {
				return Batch{}, err
			}
			batch.Logs = append(batch.Logs, entry)
		}
	}
	return batch, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
