package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	BotToken           string        `env:"BOT_TOKEN,required,notEmpty"`
	BotUsername        string        `env:"BOT_USERNAME" envDefault:"BoltalkaChatBot_bot"`
	TelegramAPIURL     string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	TelegramTimeout    time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"10s"`
	TelegramMaxRetries uint64        `env:"TELEGRAM_MAX_RETRIES" envDefault:"3"`
	WebhookSecret      string        `env:"WEBHOOK_SECRET"`
	HandlerTimeout     time.Duration `env:"HANDLER_TIMEOUT" envDefault:"25s"`

	// RedisURL switches the hint throttle to Redis when set.
	RedisURL string `env:"REDIS_URL"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
