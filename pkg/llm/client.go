package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LLMClient OpenAI 兼容网关客户端
type LLMClient struct {
	apiURL      string
	apiKey      string
	modelName   string
	temperature float64
	client      *http.Client
}

// Message 表示对话中的一条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat 响应格式，json_object 要求模型只输出 JSON
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest 表示聊天请求
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse 表示聊天响应
type ChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatOptions 单次请求选项
type ChatOptions struct {
	JSON bool // 要求 JSON 输出
}

// NewLLMClient 创建新的大模型客户端
func NewLLMClient(apiURL, apiKey, modelName string, timeout time.Duration) *LLMClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMClient{
		apiURL:      chatEndpoint(apiURL),
		apiKey:      apiKey,
		modelName:   modelName,
		temperature: 0.2,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTemperature 设置采样温度
func (c *LLMClient) SetTemperature(t float64) {
	c.temperature = t
}

// chatEndpoint 基础地址补全为 /chat/completions
func chatEndpoint(apiURL string) string {
	apiURL = strings.TrimRight(apiURL, "/")
	if strings.HasSuffix(apiURL, "/chat/completions") {
		return apiURL
	}
	return apiURL + "/chat/completions"
}

// Chat 发送聊天请求并获取响应
func (c *LLMClient) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	// 构建请求
	reqBody := ChatRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: c.temperature,
	}
	if opts.JSON {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	// 创建HTTP请求
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	// 设置请求头
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	// 发送请求
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 读取响应
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	// 检查状态码
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API返回错误: 状态码 %d, %s", resp.StatusCode, string(body))
	}

	// 解析响应
	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API返回错误: %s", chatResp.Error.Message)
	}

	// 检查是否有响应内容
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("API返回空响应")
	}

	return chatResp.Choices[0].Message.Content, nil
}
