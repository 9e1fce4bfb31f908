package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"VendorRadar/pkg/model"
)

// Config 应用配置
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Env     string `yaml:"env"`
		Storage string `yaml:"storage"` // memory 或 postgres
	} `yaml:"app"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port           string        `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxUploadMB    int64         `yaml:"max_upload_mb"`
	} `yaml:"api"`

	LLM struct {
		APIURL      string        `yaml:"api_url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		Timeout     time.Duration `yaml:"timeout"`
		Temperature float64       `yaml:"temperature"`
	} `yaml:"llm"`

	Monitoring struct {
		Thresholds  map[string]interface{} `yaml:"thresholds"`
		VendorRules []model.VendorRule     `yaml:"vendor_rules"`
	} `yaml:"monitoring"`

	Notification struct {
		model.NotificationSettings `yaml:",inline"`
		SMTP                       struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
		} `yaml:"smtp"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"notification"`

	Scheduler struct {
		RecomputeSpec   string `yaml:"recompute_spec"`
		RolloverSpec    string `yaml:"rollover_spec"`
		HealthCheckSpec string `yaml:"health_check_spec"`
	} `yaml:"scheduler"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

// Thresholds 解析后的监控阈值
func (c *Config) Thresholds() model.Thresholds {
	return ParseThresholds(c.Monitoring.Thresholds)
}

// PostgresDSN 拼接数据库连接串
func (c *Config) PostgresDSN() string {
	pg := c.Database.Postgres
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		pg.Host, pg.User, pg.Password, pg.DBName, pg.Port, pg.SSLMode)
}

// applyDefaults 填充缺省值
func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "vendor-radar"
	}
	if config.App.Storage == "" {
		config.App.Storage = "memory"
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
	if config.API.ReadTimeout == 0 {
		config.API.ReadTimeout = 15 * time.Second
	}
	if config.API.WriteTimeout == 0 {
		config.API.WriteTimeout = 60 * time.Second
	}
	if config.API.MaxUploadMB == 0 {
		config.API.MaxUploadMB = 20
	}
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres.Port = 5432
	}
	if config.Database.Postgres.SSLMode == "" {
		config.Database.Postgres.SSLMode = "disable"
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 60 * time.Second
	}
	if config.Notification.Channel == "" {
		config.Notification.Channel = model.ChannelLog
	}
	if config.Notification.Timeout == 0 {
		config.Notification.Timeout = 10 * time.Second
	}
	if config.Scheduler.RecomputeSpec == "" {
		config.Scheduler.RecomputeSpec = "@every 5m"
	}
	if config.Scheduler.RolloverSpec == "" {
		config.Scheduler.RolloverSpec = "0 0 * * *"
	}
	if config.Scheduler.HealthCheckSpec == "" {
		config.Scheduler.HealthCheckSpec = "@every 1m"
	}
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}
	if env := os.Getenv("APP_STORAGE"); env != "" {
		config.App.Storage = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
		config.NATS.Enabled = true
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
	if env := os.Getenv("API_ALLOWED_ORIGINS"); env != "" {
		config.API.AllowedOrigins = splitList(env)
	}

	// LLM配置
	if env := os.Getenv("LLM_API_URL"); env != "" {
		config.LLM.APIURL = env
	}
	if env := os.Getenv("LLM_API_KEY"); env != "" {
		config.LLM.APIKey = env
	}
	if env := os.Getenv("LLM_MODEL"); env != "" {
		config.LLM.Model = env
	}

	// 通知配置
	if env := os.Getenv("NOTIFY_CHANNEL"); env != "" {
		config.Notification.Channel = model.NotificationChannel(env)
	}
	if env := os.Getenv("NOTIFY_RECIPIENTS"); env != "" {
		config.Notification.Recipients = env
	}
	if env := os.Getenv("SMTP_HOST"); env != "" {
		config.Notification.SMTP.Host = env
	}
	if env := os.Getenv("SMTP_PASSWORD"); env != "" {
		config.Notification.SMTP.Password = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// 阈值字段接受驼峰与下划线两种写法
var thresholdKeys = map[string]func(*model.Thresholds, float64){
	"percentage":           func(t *model.Thresholds, v float64) { t.Percentage = v },
	"count":                func(t *model.Thresholds, v float64) { t.Count = v },
	"minPoLines":           func(t *model.Thresholds, v float64) { t.MinPOLines = v },
	"min_po_lines":         func(t *model.Thresholds, v float64) { t.MinPOLines = v },
	"worseningDays":        func(t *model.Thresholds, v float64) { t.WorseningDays = v },
	"worsening_days":       func(t *model.Thresholds, v float64) { t.WorseningDays = v },
	"worseningPercentage":  func(t *model.Thresholds, v float64) { t.WorseningPercentage = v },
	"worsening_percentage": func(t *model.Thresholds, v float64) { t.WorseningPercentage = v },
}

// ParseThresholds 宽松解析阈值：缺失的字段取默认值，非数字或负数视为0，从不报错
func ParseThresholds(raw map[string]interface{}) model.Thresholds {
	th := model.DefaultThresholds()
	for key, value := range raw {
		set, ok := thresholdKeys[key]
		if !ok {
			continue
		}
		set(&th, NonNegative(value))
	}
	return th
}

// NonNegative 将任意输入转换为非负数，无法转换时为0
func NonNegative(value interface{}) float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
