package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Data      DataConfig      `toml:"data"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Narrative NarrativeConfig `toml:"narrative"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DatabaseConfig 数据库配置
// driver 为 sqlite3 时 DSN 为空则使用 data_dir 下的 employment.db
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite3 / postgres
	DSN    string `toml:"dsn"`
}

// DataConfig 数据目录配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// AnalyticsConfig 分析参数
type AnalyticsConfig struct {
	TopN           int `toml:"top_n"`            // 排行榜/预警取前 N 名
	LoadRetries    int `toml:"load_retries"`     // 读取失败重试次数
	RetryBackoffMs int `toml:"retry_backoff_ms"` // 重试间隔
}

// RetryBackoff 重试间隔
func (c AnalyticsConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// NarrativeConfig 智能报告生成配置（OpenAI 兼容接口）
type NarrativeConfig struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	MaxChars       int    `toml:"max_chars"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Enabled 是否配置了外部生成服务
func (c NarrativeConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json / console
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	Path          string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Analytics: AnalyticsConfig{
			TopN:           10,
			LoadRetries:    1,
			RetryBackoffMs: 200,
		},
		Narrative: NarrativeConfig{
			Endpoint:       "",
			Model:          "deepseek-chat",
			MaxChars:       500,
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 与 .env 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	// .env 仅用于本地存放密钥，不存在时忽略
	_ = godotenv.Load(filepath.Join(exeDir, ".env"))

	return LoadFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadFrom 从指定路径加载配置；文件不存在时使用默认配置（仍应用环境变量覆盖）
func LoadFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, info, err
		}
	} else {
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	}

	applyEnvOverrides(config)
	normalize(config)
	return config, info, nil
}

// applyEnvOverrides 环境变量覆盖（密钥不写入 config.toml）
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("EMP_DB_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("EMP_DB_DSN"); v != "" {
		config.Database.DSN = v
	}
	if v := os.Getenv("EMP_NARRATIVE_ENDPOINT"); v != "" {
		config.Narrative.Endpoint = v
	}
	if v := os.Getenv("EMP_NARRATIVE_API_KEY"); v != "" {
		config.Narrative.APIKey = v
	}
	if v := os.Getenv("EMP_NARRATIVE_MODEL"); v != "" {
		config.Narrative.Model = v
	}
	if v := os.Getenv("EMP_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Analytics.TopN = n
		}
	}
}

func normalize(config *AppConfig) {
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite3"
	}
	if config.Analytics.TopN < 0 {
		config.Analytics.TopN = 0
	}
	if config.Analytics.LoadRetries < 0 {
		config.Analytics.LoadRetries = 0
	}
	if config.Narrative.MaxChars <= 0 {
		config.Narrative.MaxChars = 500
	}
	if config.Narrative.TimeoutSeconds <= 0 {
		config.Narrative.TimeoutSeconds = 60
	}
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// DatabaseDSN 返回实际使用的 DSN
func DatabaseDSN(config *AppConfig, dataDir string) string {
	if config.Database.DSN != "" {
		return config.Database.DSN
	}
	return filepath.Join(dataDir, "employment.db")
}
