package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// teamsCard Teams Incoming Webhook 的 MessageCard 负载
type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Title      string         `json:"title"`
	Sections   []teamsSection `json:"sections"`
}

type teamsSection struct {
	ActivityTitle string      `json:"activityTitle"`
	Facts         []teamsFact `json:"facts"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TeamsSender 通过 Webhook 推送到 Teams，recipients 为 Webhook URL
type TeamsSender struct {
	client *http.Client
}

// NewTeamsSender 创建 Teams 渠道
func NewTeamsSender(timeout time.Duration) *TeamsSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TeamsSender{client: &http.Client{Timeout: timeout}}
}

func (s *TeamsSender) Send(ctx context.Context, recipients string, msg Message) error {
	u, err := url.Parse(recipients)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("无效的Teams Webhook地址: %q", recipients)
	}

	body, err := json.Marshal(buildCard(msg))
	if err != nil {
		return fmt.Errorf("序列化Teams消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Teams返回错误: 状态码 %d, %s", resp.StatusCode, string(detail))
	}
	return nil
}

func buildCard(msg Message) teamsCard {
	facts := make([]teamsFact, 0, len(msg.Alerts))
	for _, a := range msg.Alerts {
		facts = append(facts, teamsFact{Name: a.Vendor, Value: a.Message})
	}
	return teamsCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D70000",
		Summary:    msg.Subject,
		Title:      msg.Subject,
		Sections: []teamsSection{{
			ActivityTitle: msg.SentAt.Format("2006-01-02 15:04:05"),
			Facts:         facts,
		}},
	}
}
