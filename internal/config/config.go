package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	LLM     LLMConfig
	Prompt  PromptConfig
	Quiz    QuizConfig
	OCR     OCRConfig
	Redis   RedisConfig
	Session SessionConfig
	GenLog  GenLogConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type LoggerConfig struct {
	Env   string
	Level string
}

// LLMConfig selects and tunes the chat-completion backend.
type LLMConfig struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	AllowedModels     []string
	Temperature       float64
	MaxTokens         int
	VisionTemperature float64
	VisionMaxTokens   int
	Timeout           time.Duration
	JSONMode          bool
}

type PromptConfig struct {
	MaxContentChars int
}

type QuizConfig struct {
	DefaultQuestions int
	MaxQuestions     int
	MaxGuidanceChars int
}

type OCRConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	Language string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	TTL        time.Duration
	CookieName string
}

type GenLogConfig struct {
	Enabled bool
	Dir     string
	DB      GenLogDBConfig
	S3      GenLogS3Config
}

type GenLogDBConfig struct {
	Driver string
	DSN    string
}

type GenLogS3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.body_limit_mb", 32)

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.allowed_models", []string{"gpt-4o-mini", "gpt-4o"})
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 3500)
	v.SetDefault("llm.vision_temperature", 0.6)
	v.SetDefault("llm.vision_max_tokens", 2000)
	v.SetDefault("llm.timeout", "0s")
	v.SetDefault("llm.json_mode", true)

	v.SetDefault("prompt.max_content_chars", 14000)

	v.SetDefault("quiz.default_questions", 5)
	v.SetDefault("quiz.max_questions", 50)
	v.SetDefault("quiz.max_guidance_chars", 1000)

	v.SetDefault("ocr.provider", "vision")
	v.SetDefault("ocr.language", "eng")

	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cookie_name", "quizforge_session")

	v.SetDefault("genlog.enabled", true)
	v.SetDefault("genlog.dir", "logs")
	v.SetDefault("genlog.s3.region", "auto")
	v.SetDefault("genlog.s3.prefix", "quiz-logs")
}

// LoadConfig reads .env, config.yaml and the environment, in that order of precedence (lowest first).
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider SDK conventions.
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ocr.api_key", "OCR_API_KEY", "GOOGLE_VISION_API_KEY")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(v.GetString("llm.provider")),
			APIKey:            v.GetString("llm.api_key"),
			BaseURL:           v.GetString("llm.base_url"),
			Model:             v.GetString("llm.model"),
			AllowedModels:     v.GetStringSlice("llm.allowed_models"),
			Temperature:       v.GetFloat64("llm.temperature"),
			MaxTokens:         v.GetInt("llm.max_tokens"),
			VisionTemperature: v.GetFloat64("llm.vision_temperature"),
			VisionMaxTokens:   v.GetInt("llm.vision_max_tokens"),
			Timeout:           v.GetDuration("llm.timeout"),
			JSONMode:          v.GetBool("llm.json_mode"),
		},
		Prompt: PromptConfig{
			MaxContentChars: v.GetInt("prompt.max_content_chars"),
		},
		Quiz: QuizConfig{
			DefaultQuestions: v.GetInt("quiz.default_questions"),
			MaxQuestions:     v.GetInt("quiz.max_questions"),
			MaxGuidanceChars: v.GetInt("quiz.max_guidance_chars"),
		},
		OCR: OCRConfig{
			Provider: strings.ToLower(v.GetString("ocr.provider")),
			APIKey:   v.GetString("ocr.api_key"),
			Endpoint: v.GetString("ocr.endpoint"),
			Language: v.GetString("ocr.language"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{
			TTL:        v.GetDuration("session.ttl"),
			CookieName: v.GetString("session.cookie_name"),
		},
		GenLog: GenLogConfig{
			Enabled: v.GetBool("genlog.enabled"),
			Dir:     v.GetString("genlog.dir"),
			DB: GenLogDBConfig{
				Driver: strings.ToLower(v.GetString("genlog.db.driver")),
				DSN:    v.GetString("genlog.db.dsn"),
			},
			S3: GenLogS3Config{
				Bucket:          v.GetString("genlog.s3.bucket"),
				Endpoint:        v.GetString("genlog.s3.endpoint"),
				Region:          v.GetString("genlog.s3.region"),
				AccessKeyID:     v.GetString("genlog.s3.access_key_id"),
				SecretAccessKey: v.GetString("genlog.s3.secret_access_key"),
				Prefix:          v.GetString("genlog.s3.prefix"),
			},
		},
	}

	// Provider-specific key variables win when the generic one is unset.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.Quiz.MaxQuestions < 1 || c.Quiz.MaxQuestions > 50 {
		return fmt.Errorf("quiz.max_questions must be within 1..50, got %d", c.Quiz.MaxQuestions)
	}
	if c.Quiz.DefaultQuestions < 1 || c.Quiz.DefaultQuestions > c.Quiz.MaxQuestions {
		return fmt.Errorf("quiz.default_questions must be within 1..%d, got %d", c.Quiz.MaxQuestions, c.Quiz.DefaultQuestions)
	}
	if c.Prompt.MaxContentChars <= 0 {
		return fmt.Errorf("prompt.max_content_chars must be positive, got %d", c.Prompt.MaxContentChars)
	}
	switch c.LLM.Provider {
	case "openai", "langchain", "ollama", "gemini", "anthropic":
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	switch c.OCR.Provider {
	case "vision", "tesseract":
	default:
		return fmt.Errorf("unsupported ocr.provider %q", c.OCR.Provider)
	}
	switch c.GenLog.DB.Driver {
	case "", "sqlite", "oracle":
	default:
		return fmt.Errorf("unsupported genlog.db.driver %q", c.GenLog.DB.Driver)
	}
	return nil
}

// BodyLimit returns the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}
