// pkg/model/po.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// AckStatus 订单行确认状态
type AckStatus string

const (
	AckStatusPending      AckStatus = "Pending"
	AckStatusAcknowledged AckStatus = "Acknowledged"
)

// POLine 采购订单行快照
type POLine struct {
	POLineID         string     `gorm:"type:varchar(64);primaryKey" json:"po_line_id"`
	PONumber         string     `gorm:"type:varchar(64);index" json:"po_number,omitempty"`
	Vendor           string     `gorm:"type:varchar(200);not null;index" json:"vendor"`
	VendorNumber     int        `gorm:"index" json:"vendor_number"`
	ESD              string     `gorm:"type:varchar(40)" json:"esd"` // 最早发货日期
	ETA              string     `gorm:"type:varchar(40)" json:"eta"` // 预计到货日期
	ScheduledShipQty float64    `gorm:"type:decimal(14,4)" json:"scheduled_ship_qty"`
	ShippedQty       float64    `gorm:"type:decimal(14,4)" json:"shipped_qty"`
	OpenQty          float64    `gorm:"type:decimal(14,4)" json:"open_qty"`
	UnscheduledQty   float64    `gorm:"type:decimal(14,4)" json:"unscheduled_qty"`
	TransitTimeDays  int        `json:"transit_time_days"`
	TrackingNumber   *string    `gorm:"type:varchar(100)" json:"tracking_number"`
	CreationDate     time.Time  `gorm:"index" json:"creation_date"`
	AckStatus        AckStatus  `gorm:"type:varchar(20);default:'Pending'" json:"ack_status"`
	AckDate          *time.Time `json:"ack_date,omitempty"`
}

// TableName 自定义表名
func (POLine) TableName() string {
	return "po_lines"
}

// IsAcknowledged 是否已确认
func (l POLine) IsAcknowledged() bool {
	return l.AckStatus == AckStatusAcknowledged
}

// POLog 订单行变更日志
type POLog struct {
	LogID        string   `gorm:"type:varchar(64);primaryKey" json:"log_id"`
	POLineID     string   `gorm:"type:varchar(64);not null;index" json:"po_line_id"`
	ChangeDate   string   `gorm:"type:varchar(40);index" json:"change_date"`
	ChangedField string   `gorm:"type:varchar(60)" json:"changed_field"`
	OldValue     LogValue `gorm:"type:text" json:"old_value"`
	NewValue     LogValue `gorm:"type:text" json:"new_value"`
}

// TableName 自定义表名
func (POLog) TableName() string {
	return "po_logs"
}

// LogValueKind 日志值类型
type LogValueKind int

const (
	LogValueNull LogValueKind = iota
	LogValueString
	LogValueNumber
)

// LogValue 变更前后的字段值：字符串、数字或空
type LogValue struct {
	Kind   LogValueKind
	Str    string
	Number float64
}

// StringValue 构造字符串值
func StringValue(s string) LogValue {
	return LogValue{Kind: LogValueString, Str: s}
}

// NumberValue 构造数字值
func NumberValue(n float64) LogValue {
	return LogValue{Kind: LogValueNumber, Number: n}
}

// NullValue 构造空值
func NullValue() LogValue {
	return LogValue{}
}

// AsString 仅在值为字符串时返回 true
func (v LogValue) AsString() (string, bool) {
	if v.Kind != LogValueString {
		return "", false
	}
	return v.Str, true
}

// IsNull 是否为空
func (v LogValue) IsNull() bool {
	return v.Kind == LogValueNull
}

// String 文本形式，空值返回空串
func (v LogValue) String() string {
	switch v.Kind {
	case LogValueString:
		return v.Str
	case LogValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON 输出原始 JSON 类型
func (v LogValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case LogValueString:
		return json.Marshal(v.Str)
	case LogValueNumber:
		return json.Marshal(v.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 接受字符串、数字或 null
func (v *LogValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("解析日志值失败: %w", err)
	}

	switch val := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(val)
	case float64:
		*v = NumberValue(val)
	default:
		return fmt.Errorf("不支持的日志值类型: %T", raw)
	}
	return nil
}

// Value 实现 driver.Valuer，以 JSON 文本落库
func (v LogValue) Value() (driver.Value, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (v *LogValue) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = NullValue()
		return nil
	case string:
		return v.UnmarshalJSON([]byte(s))
	case []byte:
		return v.UnmarshalJSON(s)
	default:
		return fmt.Errorf("无法扫描日志值: %T", src)
	}
}
