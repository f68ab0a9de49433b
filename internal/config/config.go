package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"

	EmbedderOpenAI = "openai"
	EmbedderOllama = "ollama"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Retrieval RetrievalConfig
	AI        AIConfig
	Chat      ChatConfig
}

// Load 从环境变量加载配置。CONFIG_FILE 指向的 YAML 文件提供默认值，环境变量优先。
func Load() (*Config, error) {
	src, err := newSource(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}
	return load(src)
}

func load(src source) (*Config, error) {
	server, err := loadServerConfig(src)
	if err != nil {
		return nil, err
	}

	retrieval, err := loadRetrievalConfig(src)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(src)
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig(src)
	if err != nil {
		return nil, err
	}

	storage := StorageConfig{SessionsDir: src.getOrDefault("CHAT_SESSIONS_DIR", "chat_sessions")}

	return &Config{Server: server, Storage: storage, Retrieval: retrieval, AI: ai, Chat: chat}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(src source) (ServerConfig, error) {
	port := src.getOrDefault("PORT", "8080")

	origins := splitList(src.getOrDefault("CORS_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// StorageConfig 描述对话记录的存储位置。
type StorageConfig struct {
	SessionsDir string
}

// RetrievalConfig 描述向量索引与查询向量化配置。
type RetrievalConfig struct {
	IndexPath        string
	TopK             int
	Embedder         string
	EmbeddingModel   string
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
}

func loadRetrievalConfig(src source) (RetrievalConfig, error) {
	topK := 5
	if override, err := src.parseOptionalInt("RETRIEVAL_TOP_K"); err != nil {
		return RetrievalConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RetrievalConfig{}, fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", *override)
		}
		topK = *override
	}

	embedder := strings.ToLower(src.getOrDefault("EMBEDDER", EmbedderOpenAI))
	if embedder != EmbedderOpenAI && embedder != EmbedderOllama {
		return RetrievalConfig{}, fmt.Errorf("invalid EMBEDDER value %q", embedder)
	}

	return RetrievalConfig{
		IndexPath:        src.getOrDefault("INDEX_PATH", "data/knowledge_base.db"),
		TopK:             topK,
		Embedder:         embedder,
		EmbeddingModel:   src.get("EMBEDDING_MODEL"),
		EmbeddingBaseURL: src.get("EMBEDDING_BASE_URL"),
		EmbeddingAPIKey:  src.getOrDefault("EMBEDDING_API_KEY", src.get("OPENAI_API_KEY")),
	}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示当前 provider 是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
	}
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Model == "" || (c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "")) {
		return nil, errors.New("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
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

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig(src source) (AIConfig, error) {
	provider := strings.ToLower(src.getOrDefault("AI_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := src.parseOptionalFloat("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := src.parseOptionalFloat("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := src.parseOptionalInt("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:      provider,
		APIKey:        src.get("ARK_API_KEY"),
		AccessKey:     src.get("ARK_ACCESS_KEY"),
		SecretKey:     src.get("ARK_SECRET_KEY"),
		Model:         src.get("Model"),
		BaseURL:       src.getOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        src.getOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:  src.get("OPENAI_API_KEY"),
		OpenAIBaseURL: src.get("OPENAI_BASE_URL"),
		OpenAIModel:   src.get("OPENAI_MODEL"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
	}, nil
}

// ChatConfig 描述对话编排参数。
type ChatConfig struct {
	HistoryLimit int
}

func loadChatConfig(src source) (ChatConfig, error) {
	limit := 10
	if override, err := src.parseOptionalInt("CHAT_HISTORY_LIMIT"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_HISTORY_LIMIT must be positive, got %d", *override)
		}
		limit = *override
	}
	return ChatConfig{HistoryLimit: limit}, nil
}

// source resolves keys from the environment first, then from the YAML defaults.
type source struct {
	defaults map[string]string
}

func newSource(path string) (source, error) {
	src := source{defaults: map[string]string{}}
	if path == "" {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for key, value := range raw {
		if value == nil {
			continue
		}
		src.defaults[key] = fmt.Sprint(value)
	}
	return src, nil
}

func (s source) lookup(key string) (string, bool) {
	if raw, ok := os.LookupEnv(key); ok && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw), true
	}
	raw, ok := s.defaults[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

func (s source) get(key string) string {
	value, _ := s.lookup(key)
	return value
}

func (s source) getOrDefault(key, defaultValue string) string {
	if value := s.get(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) parseOptionalFloat(key string) (*float64, error) {
	value := s.get(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func (s source) parseOptionalInt(key string) (*int, error) {
	value := s.get(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
