package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"kindred"`
	Version     string `env:"SERVICE_VERSION" envDefault:"v1"`

	// Redis 配置，只用于限流，流程状态不落库
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"kdr"`

	// RabbitMQ 配置
	QueueProvider    string `env:"QUEUE_PROVIDER" envDefault:"none"` // none, rabbitmq
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" envDefault:"kindred.flow"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"20"` // 每秒请求数

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	PhoneHashSalt string `env:"PHONE_HASH_SALT" envDefault:""`

	// 会话配置
	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	// 推荐服务（mock）
	IntroProvider  string        `env:"INTRO_PROVIDER" envDefault:"mock"`
	IntroMockDelay time.Duration `env:"INTRO_MOCK_DELAY" envDefault:"800ms"`
	IntroMockCount int           `env:"INTRO_MOCK_COUNT" envDefault:"3"`

	// 照片核验服务（mock）
	VerifierProvider    string        `env:"VERIFIER_PROVIDER" envDefault:"mock"`
	VerifierMockDelay   time.Duration `env:"VERIFIER_MOCK_DELAY" envDefault:"1500ms"`
	VerifierMockOutcome string        `env:"VERIFIER_MOCK_OUTCOME" envDefault:"random"` // random, success, failure, manual-review, error

	// 协作方熔断，连续失败次数为 0 时关闭熔断
	BreakerMaxFailures  int           `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.PhoneHashSalt == "" {
		log.Printf("WARN: PHONE_HASH_SALT is not set, phone hashes in logs are unsalted")
	}

	if Cfg.QueueProvider != "none" && Cfg.QueueProvider != "rabbitmq" {
		log.Printf("WARN: QUEUE_PROVIDER %q is unknown, flow events will only be logged", Cfg.QueueProvider)
	}

	if Cfg.IsProduction() && Cfg.VerifierProvider == "mock" {
		log.Printf("WARN: VERIFIER_PROVIDER is mock in production")
	}
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
