// Package setup loads configuration from the environment and wires every
// component the binaries share.
package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/modelarena/arena/internal/agents/evaluator"
	"github.com/modelarena/arena/internal/agents/judge"
	"github.com/modelarena/arena/internal/agents/reflection"
	"github.com/modelarena/arena/internal/config"
	"github.com/modelarena/arena/internal/consumer"
	"github.com/modelarena/arena/internal/dispatch"
	"github.com/modelarena/arena/internal/embedding"
	"github.com/modelarena/arena/internal/llm"
	"github.com/modelarena/arena/internal/llm/bedrock"
	"github.com/modelarena/arena/internal/llm/gpt"
	"github.com/modelarena/arena/internal/memory"
	"github.com/modelarena/arena/internal/orchestrator"
	"github.com/modelarena/arena/internal/planner"
	red "github.com/modelarena/arena/internal/redis"
	"github.com/modelarena/arena/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Config struct {
	RedisAddr           string
	RedisPassword       string
	RedisPingAttempts   int
	RedisCommandRetries int

	AWSRegion      string
	OpenAIKey      string
	EmbeddingModel string
	MemoryPath     string
	ConsumerGroup  string
	ConsumerName   string
	CallTimeout    time.Duration
	Temperature    float64
	MaxTokens      int
}

type Dependencies struct {
	Redis        *redis.Client
	Store        *store.RedisStore
	Registry     *llm.Registry
	Memory       memory.Index
	Orchestrator *orchestrator.Orchestrator
	Handlers     consumer.HandlerTable
	Logger       *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisPingAttempts:   getEnvInt("REDIS_PING_ATTEMPTS", 3),
		RedisCommandRetries: getEnvInt("REDIS_COMMAND_RETRIES", 3),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		OpenAIKey:      getEnv("OPEN_AI_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL_ID", "text-embedding-3-small"),
		MemoryPath:     getEnv("MEMORY_PATH", "data/memory"),
		ConsumerGroup:  getEnv("CONSUMER_GROUP", "arena-workers"),
		ConsumerName:   getEnv("CONSUMER_NAME", hostname()),
		CallTimeout:    time.Duration(getEnvFloat("MODEL_CALL_TIMEOUT_S", 60) * float64(time.Second)),
		Temperature:    getEnvFloat("MODEL_TEMPERATURE", 0.7),
		MaxTokens:      getEnvInt("MODEL_MAX_TOKENS", 1024),
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	client, err := red.Connect(ctx, red.Options{
		Addr:           cfg.RedisAddr,
		Password:       cfg.RedisPassword,
		PingAttempts:   cfg.RedisPingAttempts,
		CommandRetries: cfg.RedisCommandRetries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	backing := store.NewRedisStore(client, logger)

	modelsConfig, err := config.LoadModelsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}

	registry, err := buildRegistry(ctx, cfg, modelsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build model registry: %w", err)
	}

	openAIEmbedder, err := embedding.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	embedder := embedding.NewResilient(openAIEmbedder, logger)

	memoryIndex, err := memory.NewPersistentChromemIndex(cfg.MemoryPath, false, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory index: %w", err)
	}

	p := planner.NewPlanner(registry, backing, memoryIndex, cfg.CallTimeout, cfg.Temperature, cfg.MaxTokens, logger)
	d := dispatch.NewDispatcher(dispatch.NewRedisPublisher(client), logger)
	o := orchestrator.NewOrchestrator(p, d, backing, logger)

	handlers, err := consumer.NewHandlerTable(
		evaluator.NewEvaluator(embedder, backing, logger),
		judge.NewJudge(registry, backing, modelsConfig.JudgeModel, logger),
		reflection.NewReflector(memoryIndex, backing, backing, logger),
	)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Redis:        client,
		Store:        backing,
		Registry:     registry,
		Memory:       memoryIndex,
		Orchestrator: o,
		Handlers:     handlers,
		Logger:       logger,
	}, nil
}

func buildRegistry(ctx context.Context, cfg *Config, modelsConfig *config.ModelsConfig) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	var bedrockClient llm.Gateway
	var openAIClient llm.Gateway

	for _, entry := range modelsConfig.Models {
		switch entry.Provider {
		case config.ProviderBedrock:
			if bedrockClient == nil {
				client, err := bedrock.NewClient(ctx, cfg.AWSRegion)
				if err != nil {
					return nil, err
				}
				bedrockClient = client
			}
			registry.Register(entry.ID, llm.ModelRoute{Gateway: bedrockClient, Deployment: entry.Deployment})
		case config.ProviderOpenAI:
			if openAIClient == nil {
				client, err := gpt.NewClient(cfg.OpenAIKey)
				if err != nil {
					return nil, err
				}
				openAIClient = client
			}
			registry.Register(entry.ID, llm.ModelRoute{Gateway: openAIClient, Deployment: entry.Deployment})
		}
	}

	return registry, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "worker"
	}
	return name
}
