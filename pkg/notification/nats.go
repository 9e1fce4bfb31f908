package notification

import (
	"context"

	"VendorRadar/pkg/engine"
)

// Publisher 消息发布接口
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// NATSSender 发布到 alerts.critical，由下游系统转发
type NATSSender struct {
	pub Publisher
}

func NewNATSSender(pub Publisher) *NATSSender {
	return &NATSSender{pub: pub}
}

func (s *NATSSender) Send(ctx context.Context, recipients string, msg Message) error {
	return s.pub.Publish(engine.SubjectAlertsCritical, msg)
}
