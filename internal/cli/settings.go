package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultServerURL 未配置时连接的服务器
const DefaultServerURL = "http://localhost:8000"

// Settings CLI 本地配置，保存在 <dir>/config.yaml
type Settings struct {
	v    *viper.Viper
	path string
}

// LoadSettings 读取配置，文件不存在时写入默认配置
// dir 为空时使用 ~/.edu-chatbot
// 环境变量 CHATCTL_SERVER_URL / CHATCTL_HISTORY_LIMIT 优先于文件
func LoadSettings(dir string) (*Settings, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".edu-chatbot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHATCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setSettingsDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		// 只写默认值，不带环境变量
		defaults := viper.New()
		setSettingsDefaults(defaults)
		if err := defaults.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	return &Settings{v: v, path: path}, nil
}

// Path 配置文件路径
func (s *Settings) Path() string {
	return s.path
}

// ServerURL 服务器地址
func (s *Settings) ServerURL() string {
	return s.v.GetString("server.url")
}

// HistoryLimit history 命令默认条数
func (s *Settings) HistoryLimit() int {
	return s.v.GetInt("history.limit")
}

// OverrideServerURL 只在本次运行中替换服务器地址
func (s *Settings) OverrideServerURL(raw string) error {
	if err := validateServerURL(raw); err != nil {
		return err
	}
	s.v.Set("server.url", raw)
	return nil
}

// SaveServerURL 替换服务器地址并写回配置文件
// 只改写文件中的内容，环境变量覆盖的值不会落盘
func (s *Settings) SaveServerURL(raw string) error {
	if err := s.OverrideServerURL(raw); err != nil {
		return err
	}

	file := viper.New()
	file.SetConfigFile(s.path)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	file.Set("server.url", raw)
	return file.WriteConfigAs(s.path)
}

func setSettingsDefaults(v *viper.Viper) {
	v.SetDefault("server.url", DefaultServerURL)
	v.SetDefault("history.limit", 10)
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q: want http(s)://host[:port]", raw)
	}
	return nil
}
