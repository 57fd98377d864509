// Package config предоставляет управление конфигурацией бота-модератора.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// BotConfig содержит конфигурацию Telegram-бота.
type BotConfig struct {
	Token              string   `yaml:"token"`
	OwnerID            int64    `yaml:"owner_id"`
	GroupID            int64    `yaml:"group_id"`
	WarnLimit          int      `yaml:"warn_limit"`
	WordLimit          int      `yaml:"word_limit"`
	AllowedLinks       []string `yaml:"allowed_links"`
	HTTPTimeoutSeconds int      `yaml:"http_timeout_seconds"`
}

// LoggingConfig содержит конфигурацию логирования.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// StatusServerConfig содержит конфигурацию HTTP-сервера статуса.
type StatusServerConfig struct {
	Enable                 bool   `yaml:"enable"`
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// ResolverConfig содержит конфигурацию MTProto-резолвера юзернеймов.
// Резолвер опционален: без него команды по @username недоступны,
// команды по числовому ID работают всегда.
type ResolverConfig struct {
	Enable      bool   `yaml:"enable"`
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	PhoneNumber string `yaml:"phone_number"`
	SessionFile string `yaml:"session_file"`
}

// Config содержит конфигурацию приложения.
type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Logging      LoggingConfig      `yaml:"logging"`
	StatusServer StatusServerConfig `yaml:"status_server"`
	Resolver     ResolverConfig     `yaml:"resolver"`
}

// Load загружает конфигурацию из YAML-файла, дополняя секреты из
// переменных окружения или .env файла.
func Load(filename string) (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует.
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env файла нормально, полагаемся на окружение и YAML.
	}

	var cfg Config
	data, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
		// Файла нет, вся конфигурация придёт из окружения.
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnv накладывает переменные окружения поверх YAML. Окружение
// имеет приоритет: так токен не нужно хранить в файле.
func (c *Config) applyEnv() error {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Bot.Token = token
	}
	if ownerStr := os.Getenv("BOT_OWNER_ID"); ownerStr != "" {
		owner, err := strconv.ParseInt(ownerStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BOT_OWNER_ID: %w", err)
		}
		c.Bot.OwnerID = owner
	}
	if groupStr := os.Getenv("BOT_GROUP_ID"); groupStr != "" {
		group, err := strconv.ParseInt(groupStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BOT_GROUP_ID: %w", err)
		}
		c.Bot.GroupID = group
	}
	if apiHash := os.Getenv("API_HASH"); apiHash != "" {
		c.Resolver.APIHash = apiHash
	}
	if apiIDStr := os.Getenv("API_ID"); apiIDStr != "" {
		apiID, err := strconv.Atoi(apiIDStr)
		if err != nil {
			return fmt.Errorf("invalid API_ID: %w", err)
		}
		c.Resolver.APIID = apiID
	}
	if phone := os.Getenv("PHONE_NUMBER"); phone != "" {
		c.Resolver.PhoneNumber = phone
	}
	return nil
}

// applyDefaults устанавливает значения по умолчанию для незаполненных полей.
func (c *Config) applyDefaults() {
	if c.Bot.WarnLimit == 0 {
		c.Bot.WarnLimit = DefaultWarnLimit
	}
	if c.Bot.WordLimit == 0 {
		c.Bot.WordLimit = DefaultWordLimit
	}
	if c.Bot.HTTPTimeoutSeconds == 0 {
		c.Bot.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if c.StatusServer.Host == "" {
		c.StatusServer.Host = DefaultStatusHost
	}
	if c.StatusServer.Port == 0 {
		c.StatusServer.Port = DefaultStatusPort
	}
	if c.StatusServer.ShutdownTimeoutSeconds == 0 {
		c.StatusServer.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSecs
	}
	if c.Resolver.SessionFile == "" {
		c.Resolver.SessionFile = DefaultResolverSessionFile
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// StatusAddress возвращает адрес сервера статуса в формате "host:port".
func (c *Config) StatusAddress() string {
	return fmt.Sprintf("%s:%d", c.StatusServer.Host, c.StatusServer.Port)
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if c.Bot.Token == "" || c.Bot.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if c.Bot.OwnerID == 0 {
		return fmt.Errorf("bot.owner_id is not configured")
	}
	if c.Bot.WarnLimit <= 0 {
		return fmt.Errorf("bot.warn_limit must be positive")
	}
	if c.Bot.WordLimit <= 0 {
		return fmt.Errorf("bot.word_limit must be positive")
	}
	if c.Bot.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("bot.http_timeout_seconds must be positive")
	}

	if c.StatusServer.Enable {
		if c.StatusServer.Port <= 0 || c.StatusServer.Port > 65535 {
			return fmt.Errorf("status_server.port must be a valid port number (1-65535)")
		}
		if c.StatusServer.ShutdownTimeoutSeconds <= 0 {
			return fmt.Errorf("status_server.shutdown_timeout_seconds must be positive")
		}
	}

	if c.Resolver.Enable {
		if c.Resolver.APIID <= 0 {
			return fmt.Errorf("resolver.api_id must be a positive integer")
		}
		if c.Resolver.APIHash == "" {
			return fmt.Errorf("resolver.api_hash cannot be empty")
		}
		if c.Resolver.PhoneNumber == "" {
			return fmt.Errorf("resolver.phone_number cannot be empty")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
		// all good
	default:
		return fmt.Errorf("logging.format must be one of: text, json")
	}

	return nil
}
