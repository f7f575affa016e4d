package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config 应用配置，启动时加载一次，之后只读
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 搜索配置
	Search SearchConfig `yaml:"search"`

	// 深度分析配置
	Analysis AnalysisConfig `yaml:"analysis"`

	// Tavily 配置
	Tavily TavilyConfig `yaml:"tavily"`

	// 语音合成配置
	Speech SpeechConfig `yaml:"speech"`

	// 外部调用超时
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// 代理配置
	Proxy ProxyConfig `yaml:"proxy"`

	// 浏览器配置
	Browser BrowserConfig `yaml:"browser"`

	// MCP 配置
	MCP MCPConfig `yaml:"mcp"`

	// 日志配置
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	CORS         CORSConfig    `yaml:"cors"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Origin  string `yaml:"origin"`
}

// SearchConfig 搜索配置
type SearchConfig struct {
	Provider           string `yaml:"provider"`
	MaxResults         int    `yaml:"max_results"`
	AnalysisMaxResults int    `yaml:"analysis_max_results"`
}

// AnalysisConfig 深度分析配置
type AnalysisConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// TavilyConfig Tavily 搜索 API 配置
type TavilyConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// SpeechConfig ElevenLabs 语音合成配置
type SpeechConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	ModelID      string `yaml:"model_id"`
	DefaultVoice string `yaml:"default_voice"`
}

// TimeoutConfig 每类外部调用的超时
type TimeoutConfig struct {
	Search time.Duration `yaml:"search"`
	Speech time.Duration `yaml:"speech"`
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Enabled  bool `yaml:"enabled"`
	Headless bool `yaml:"headless"`
}

// MCPConfig MCP 协议配置
type MCPConfig struct {
	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidProviders 有效的搜索提供方列表
var ValidProviders = []string{"tavily", "duckduckgo", "bing", "browser_bing"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig 默认配置
var DefaultConfig = &Config{
	Server: ServerConfig{
		Port: 8000,
		Host: "0.0.0.0",
		CORS: CORSConfig{
			Enabled: true,
			Origin:  "*",
		},
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	},
	Search: SearchConfig{
		Provider:           "tavily",
		MaxResults:         5,
		AnalysisMaxResults: 3,
	},
	Analysis: AnalysisConfig{
		Concurrency: 4,
	},
	Tavily: TavilyConfig{
		BaseURL: "https://api.tavily.com",
	},
	Speech: SpeechConfig{
		BaseURL:      "https://api.elevenlabs.io",
		ModelID:      "eleven_multilingual_v2",
		DefaultVoice: "21m00Tcm4TlvDq8ikWAM",
	},
	Timeouts: TimeoutConfig{
		Search: 30 * time.Second,
		Speech: 30 * time.Second,
	},
	Proxy: ProxyConfig{
		Enabled: false,
		URL:     "http://127.0.0.1:7890",
	},
	Browser: BrowserConfig{
		Enabled:  false,
		Headless: true,
	},
	MCP: MCPConfig{
		ServerName:    "mcp-market-research-server",
		ServerVersion: "2.0",
	},
	Logging: LoggingConfig{
		Level:  "info",
		Format: "json",
	},
}

// configSearchPaths 配置文件搜索路径
var configSearchPaths = []string{
	"config.yaml",
	"config.yml",
	"configs/config.yaml",
	"configs/config.yml",
}

// Load 加载配置：默认值 -> YAML 文件 -> 环境变量
// 支持通过 CONFIG_FILE 环境变量指定配置文件路径
func Load(log *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	cfg := defaults()

	configPath := findConfigFile(log)
	if configPath == "" {
		log.Info("no config file found, using default configuration")
	} else if err := cfg.readFile(configPath); err != nil {
		log.Warn("failed to load config file, using defaults",
			zap.String("path", configPath), zap.Error(err))
		cfg = defaults()
	} else {
		log.Info("loaded configuration", zap.String("path", configPath))
	}

	cfg.applyEnv()
	cfg.validate(log)

	return cfg
}

// LoadFromFile 从指定路径加载配置（不读取环境变量）
func LoadFromFile(path string, log *zap.Logger) (*Config, error) {
	cfg := defaults()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	cfg.validate(log)
	return cfg, nil
}

// defaults 返回默认配置的副本
func defaults() *Config {
	cfg := *DefaultConfig
	return &cfg
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// applyEnv 环境变量覆盖（密钥只从这里或配置文件读取）
func (c *Config) applyEnv() {
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Tavily.APIKey = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		c.Speech.APIKey = v
	}
	if v := os.Getenv("SEARCH_PROVIDER"); v != "" {
		c.Search.Provider = strings.TrimSpace(v)
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

// findConfigFile 查找配置文件
func findConfigFile(log *zap.Logger) string {
	// 优先使用环境变量指定的配置文件
	if envPath := os.Getenv("CONFIG_FILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		log.Warn("CONFIG_FILE not found, searching default paths", zap.String("path", envPath))
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	workDir, _ := os.Getwd()

	searchDirs := []string{workDir}
	if execDir != "" && execDir != workDir {
		searchDirs = append(searchDirs, execDir)
	}

	for _, dir := range searchDirs {
		for _, name := range configSearchPaths {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// validate 验证并修正配置
func (c *Config) validate(log *zap.Logger) {
	d := DefaultConfig

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		log.Warn("invalid port, using default", zap.Int("port", c.Server.Port), zap.Int("default", d.Server.Port))
		c.Server.Port = d.Server.Port
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.CORS.Origin == "" {
		c.Server.CORS.Origin = d.Server.CORS.Origin
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}

	if !contains(ValidProviders, c.Search.Provider) {
		log.Warn("invalid search provider, falling back",
			zap.String("provider", c.Search.Provider), zap.String("default", d.Search.Provider))
		c.Search.Provider = d.Search.Provider
	}
	if c.Search.Provider == "browser_bing" && !c.Browser.Enabled {
		log.Warn("browser_bing selected but browser disabled, falling back",
			zap.String("default", d.Search.Provider))
		c.Search.Provider = d.Search.Provider
	}
	// 默认值同时也是上限
	if c.Search.MaxResults <= 0 || c.Search.MaxResults > d.Search.MaxResults {
		log.Warn("max_results out of range, using limit",
			zap.Int("max_results", c.Search.MaxResults), zap.Int("limit", d.Search.MaxResults))
		c.Search.MaxResults = d.Search.MaxResults
	}
	if c.Search.AnalysisMaxResults <= 0 || c.Search.AnalysisMaxResults > d.Search.AnalysisMaxResults {
		log.Warn("analysis_max_results out of range, using limit",
			zap.Int("analysis_max_results", c.Search.AnalysisMaxResults), zap.Int("limit", d.Search.AnalysisMaxResults))
		c.Search.AnalysisMaxResults = d.Search.AnalysisMaxResults
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = d.Analysis.Concurrency
	}

	if c.Tavily.BaseURL == "" {
		c.Tavily.BaseURL = d.Tavily.BaseURL
	}
	c.Tavily.BaseURL = strings.TrimRight(c.Tavily.BaseURL, "/")

	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = d.Speech.BaseURL
	}
	c.Speech.BaseURL = strings.TrimRight(c.Speech.BaseURL, "/")
	if c.Speech.ModelID == "" {
		c.Speech.ModelID = d.Speech.ModelID
	}
	if c.Speech.DefaultVoice == "" {
		c.Speech.DefaultVoice = d.Speech.DefaultVoice
	}

	if c.Timeouts.Search <= 0 {
		c.Timeouts.Search = d.Timeouts.Search
	}
	if c.Timeouts.Speech <= 0 {
		c.Timeouts.Speech = d.Timeouts.Speech
	}

	if c.Proxy.Enabled && c.Proxy.URL == "" {
		log.Warn("proxy enabled but URL is empty, using default")
		c.Proxy.URL = d.Proxy.URL
	}

	if c.MCP.ServerName == "" {
		c.MCP.ServerName = d.MCP.ServerName
	}
	if c.MCP.ServerVersion == "" {
		c.MCP.ServerVersion = d.MCP.ServerVersion
	}

	if !contains(validLogLevels, c.Logging.Level) {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		c.Logging.Format = d.Logging.Format
	}
}

// Print 打印配置信息（密钥已脱敏）
func (c *Config) Print(log *zap.Logger) {
	log.Info("configuration",
		zap.String("addr", c.Addr()),
		zap.String("search_provider", c.Search.Provider),
		zap.String("tavily_api_key", mask(c.Tavily.APIKey)),
		zap.String("elevenlabs_api_key", mask(c.Speech.APIKey)),
		zap.Duration("search_timeout", c.Timeouts.Search),
		zap.Duration("speech_timeout", c.Timeouts.Speech),
		zap.Int("analysis_concurrency", c.Analysis.Concurrency),
		zap.Bool("cors", c.Server.CORS.Enabled),
		zap.Bool("proxy", c.Proxy.Enabled),
		zap.Bool("browser", c.Browser.Enabled),
		zap.String("mcp_server", c.MCP.ServerName+" v"+c.MCP.ServerVersion),
	)
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ProxyURL 启用代理时返回代理地址，否则为空
func (c *Config) ProxyURL() string {
	if c.Proxy.Enabled {
		return c.Proxy.URL
	}
	return ""
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "<set>"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
