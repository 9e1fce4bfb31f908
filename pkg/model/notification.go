// pkg/model/notification.go
package model

// NotificationChannel 通知渠道
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelTeams NotificationChannel = "teams"
	ChannelNATS  NotificationChannel = "nats"
	ChannelLog   NotificationChannel = "log"
)

// NotificationSettings 严重告警通知设置
type NotificationSettings struct {
	Enabled    bool                `yaml:"enabled" json:"enabled"`
	Channel    NotificationChannel `yaml:"channel" json:"type"`
	Recipients string              `yaml:"recipients" json:"recipients"` // 邮件地址或 Teams Webhook URL
}

// Active 是否需要派发
func (s NotificationSettings) Active() bool {
	if !s.Enabled {
		return false
	}
	// 日志与NATS渠道不需要收件人
	if s.Channel == ChannelLog || s.Channel == ChannelNATS {
		return true
	}
	return s.Recipients != ""
}
