// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 是应用程序的根配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // PostgreSQL 配置
	LLM      LLMConfig      `mapstructure:"llm"`      // 模型服务配置
	Chat     ChatConfig     `mapstructure:"chat"`     // 对话配置
	History  HistoryConfig  `mapstructure:"history"`  // 历史记录配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`             // 监听端口，默认 8000
	Mode            string        `mapstructure:"mode"`             // 运行模式: debug / release / test
	CORS            []string      `mapstructure:"cors"`             // CORS 允许的域名，["*"] 表示全部
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`     // 读超时
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`    // 写超时，需要大于模型调用超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅关闭等待时间
}

// DatabaseConfig 数据库连接配置
// URL 非空时优先使用，否则由各分量拼出 DSN
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// LLMConfig 外部模型服务配置
type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // openai / gemini / dashscope
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"` // openai 兼容接口或 DashScope 的地址
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"` // 单次调用超时
}

// ChatConfig 对话行为配置
type ChatConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
	ContextTurns int    `mapstructure:"context_turns"` // 作为上下文回放的历史轮数，0 表示不带上下文
}

// HistoryConfig 历史查询配置
type HistoryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/console
	File   string `mapstructure:"file"`   // 日志文件路径，为空则只输出到 stdout
}

// DefaultSystemPrompt 默认的系统提示词
const DefaultSystemPrompt = "You are an AI educational assistant. Your goal is to provide helpful, " +
	"accurate, and engaging educational content. Explain concepts clearly " +
	"and provide examples when appropriate. " +
	"If not explicitly specified, give a concise and simple to understand explanation. " +
	"You can then ask if the user understands or wants an in-depth explanation."

// apiKeyFallbacks 未设置 LLM_API_KEY 时依次尝试的变量
var apiKeyFallbacks = []string{"GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "DASHSCOPE_API_KEY"}

// providerKeys 各厂商优先使用的变量
var providerKeys = map[string][]string{
	"openai":    {"GROQ_API_KEY", "OPENAI_API_KEY"},
	"groq":      {"GROQ_API_KEY", "OPENAI_API_KEY"},
	"gemini":    {"GEMINI_API_KEY"},
	"dashscope": {"DASHSCOPE_API_KEY"},
}

// apiKeyOrder 返回查找 API Key 的顺序: 当前厂商自己的变量在前，其余按默认顺序
func apiKeyOrder(provider string) []string {
	own := providerKeys[strings.ToLower(provider)]
	order := append([]string{}, own...)
	for _, key := range apiKeyFallbacks {
		seen := false
		for _, k := range own {
			if k == key {
				seen = true
				break
			}
		}
		if !seen {
			order = append(order, key)
		}
	}
	return order
}

// Load 从指定路径加载配置文件
// 加载顺序: .env -> 默认值 -> config.yaml -> 环境变量
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 例如: SERVER_PORT -> server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		for _, key := range apiKeyOrder(cfg.LLM.Provider) {
			if val := v.GetString("fallback." + strings.ToLower(key)); val != "" {
				cfg.LLM.APIKey = val
				break
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置中互相依赖的字段
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.History.DefaultLimit <= 0 {
		return fmt.Errorf("history.default_limit must be positive")
	}
	if c.History.MaxLimit < c.History.DefaultLimit {
		return fmt.Errorf("history.max_limit (%d) is below history.default_limit (%d)", c.History.MaxLimit, c.History.DefaultLimit)
	}
	if c.Chat.ContextTurns < 0 {
		return fmt.Errorf("chat.context_turns must not be negative")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	return nil
}

// DSN 返回 PostgreSQL 连接串
// DATABASE_URL 优先；否则使用 POSTGRES_* 分量拼接 URL 形式的 DSN
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Target 返回实际连接的主机和库名，用于日志
// 不含密码；DATABASE_URL 无法解析时返回空串
func (d DatabaseConfig) Target() (host, name string) {
	if d.URL == "" {
		return fmt.Sprintf("%s:%d", d.Host, d.Port), d.Name
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", ""
	}
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	// 服务器配置
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE", "GIN_MODE")

	// 数据库配置，兼容 docker-compose 中 postgres 镜像的变量名
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.port", "POSTGRES_PORT")
	v.BindEnv("database.user", "POSTGRES_USER")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("database.name", "POSTGRES_DB")
	v.BindEnv("database.sslmode", "POSTGRES_SSLMODE")

	// 模型服务配置
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.api_key", "LLM_API_KEY")
	v.BindEnv("llm.base_url", "LLM_BASE_URL")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.timeout", "LLM_TIMEOUT")
	for _, key := range apiKeyFallbacks {
		v.BindEnv("fallback."+strings.ToLower(key), key)
	}

	// 对话配置
	v.BindEnv("chat.context_turns", "CHAT_CONTEXT_TURNS")

	// 日志配置
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("log.file", "LOG_FILE")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"*"})
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "chatbot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_lifetime", 3600)

	// base_url 和 model 为空时由 llm 包按厂商取默认值
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "30s")

	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)
	v.SetDefault("chat.context_turns", 0)

	v.SetDefault("history.default_limit", 10)
	v.SetDefault("history.max_limit", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
