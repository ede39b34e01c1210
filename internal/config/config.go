package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Live   LiveConfig
	Mongo  MongoConfig
	Auth   AuthConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	live, err := loadLiveConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Live:   live,
		Mongo:  loadMongoConfig(),
		Auth:   auth,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述 Gemini 模型相关配置。
type AIConfig struct {
	APIKey      string
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("gemini credentials missing: set GOOGLE_GEMINI_API_KEY and GEMINI_MODEL")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return gemini.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("GEMINI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("GEMINI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("GEMINI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("GOOGLE_GEMINI_API_KEY")),
		Model:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash-001"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// LiveConfig 描述实时分析引擎的节奏参数。
type LiveConfig struct {
	AnalysisInterval  time.Duration
	AnalysisTimeout   time.Duration
	HeartbeatInterval time.Duration
	HeartbeatGrace    time.Duration
	AnalysisWorkers   int
}

func loadLiveConfig() (LiveConfig, error) {
	interval, err := parseDurationEnv("LIVE_ANALYSIS_INTERVAL", 10*time.Second)
	if err != nil {
		return LiveConfig{}, err
	}

	timeout, err := parseDurationEnv("LIVE_ANALYSIS_TIMEOUT", 5*time.Second)
	if err != nil {
		return LiveConfig{}, err
	}

	heartbeat, err := parseDurationEnv("LIVE_HEARTBEAT_INTERVAL", 30*time.Second)
	if err != nil {
		return LiveConfig{}, err
	}

	grace, err := parseDurationEnv("LIVE_HEARTBEAT_GRACE", 40*time.Second)
	if err != nil {
		return LiveConfig{}, err
	}

	workers := 2
	if workersOverride, err := parseOptionalIntEnv("LIVE_ANALYSIS_WORKERS"); err != nil {
		return LiveConfig{}, err
	} else if workersOverride != nil {
		if *workersOverride < 1 {
			workers = 1
		} else {
			workers = *workersOverride
		}
	}

	return LiveConfig{
		AnalysisInterval:  interval,
		AnalysisTimeout:   timeout,
		HeartbeatInterval: heartbeat,
		HeartbeatGrace:    grace,
		AnalysisWorkers:   workers,
	}, nil
}

// MongoConfig 描述持久化存储配置。URI 为空时退回内存存储。
type MongoConfig struct {
	URI      string
	Database string
}

// Enabled 表示是否配置了 MongoDB。
func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      strings.TrimSpace(os.Getenv("MONGODB_URI")),
		Database: getEnvOrDefault("MONGODB_DATABASE", "jagcoaching"),
	}
}

// AuthConfig 描述登录令牌配置。
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// Enabled 表示是否配置了签名密钥。
func (c AuthConfig) Enabled() bool {
	return c.Secret != ""
}

func loadAuthConfig() (AuthConfig, error) {
	ttl := 30 * time.Minute
	if minutes, err := parseOptionalIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); err != nil {
		return AuthConfig{}, err
	} else if minutes != nil {
		if *minutes < 1 {
			return AuthConfig{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", *minutes)
		}
		ttl = time.Duration(*minutes) * time.Minute
	}

	return AuthConfig{
		Secret:   strings.TrimSpace(os.Getenv("SECRET_KEY")),
		TokenTTL: ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
