package notification

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"VendorRadar/pkg/model"
)

// Message 一次派发的通知内容
type Message struct {
	BatchID string        `json:"batch_id"`
	Subject string        `json:"subject"`
	Text    string        `json:"text"`
	Alerts  []model.Alert `json:"alerts"`
	SentAt  time.Time     `json:"sent_at"`
}

// Sender 单个通知渠道
type Sender interface {
	Send(ctx context.Context, recipients string, msg Message) error
}

// Dispatcher 严重告警派发器，按设置中的渠道选择 Sender
type Dispatcher struct {
	senders map[model.NotificationChannel]Sender
	clock   func() time.Time
}

// NewDispatcher 创建派发器，默认注册日志渠道
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		senders: map[model.NotificationChannel]Sender{
			model.ChannelLog: LogSender{},
		},
		clock: time.Now,
	}
}

// Register 注册渠道
func (d *Dispatcher) Register(channel model.NotificationChannel, sender Sender) {
	d.senders[channel] = sender
}

// Notify 只派发严重告警
func (d *Dispatcher) Notify(ctx context.Context, settings model.NotificationSettings, alerts []model.Alert) error {
	if !settings.Active() {
		return nil
	}

	critical := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.IsCritical() {
			critical = append(critical, a)
		}
	}
	if len(critical) == 0 {
		return nil
	}

	sender, ok := d.senders[settings.Channel]
	if !ok {
		return fmt.Errorf("未配置的通知渠道: %s", settings.Channel)
	}

	msg := BuildMessage(critical, d.clock())
	if err := sender.Send(ctx, settings.Recipients, msg); err != nil {
		return fmt.Errorf("发送%s通知失败: %w", settings.Channel, err)
	}
	log.Printf("已通过 %s 发送 %d 条严重告警 (批次 %s)", settings.Channel, len(critical), msg.BatchID)
	return nil
}

// BuildMessage 格式化告警通知
func BuildMessage(alerts []model.Alert, now time.Time) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 供应商严重告警 (%d条)\n\n", len(alerts))
	for _, a := range alerts {
		if a.POLineID != "" {
			fmt.Fprintf(&b, "• %s [%s]: %s\n", a.Vendor, a.POLineID, a.Message)
			continue
		}
		fmt.Fprintf(&b, "• %s: %s\n", a.Vendor, a.Message)
	}
	fmt.Fprintf(&b, "\n⏰ 时间：%s", now.Format("2006-01-02 15:04:05"))

	subject := fmt.Sprintf("[Vendor Radar] %d critical alert(s)", len(alerts))
	if len(alerts) == 1 {
		subject = fmt.Sprintf("[Vendor Radar] Critical alert: %s", alerts[0].Vendor)
	}

	return Message{
		BatchID: uuid.New().String(),
		Subject: subject,
		Text:    b.String(),
		Alerts:  alerts,
		SentAt:  now,
	}
}

// LogSender 仅记录日志的模拟渠道
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipients string, msg Message) error {
	target := recipients
	if target == "" {
		target = "log"
	}
	for _, a := range msg.Alerts {
		log.Printf("模拟通知 %s: vendor %s 严重告警: %q", target, a.Vendor, a.Message)
	}
	return nil
}
