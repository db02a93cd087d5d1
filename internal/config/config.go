package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost     string `env:"REDIS_HOST"     envDefault:"localhost"`
	RedisPort     uint16 `env:"REDIS_PORT"     envDefault:"6379"   validate:"min=1000,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"      validate:"min=0,max=15"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"game_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"game_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"game_db"`

	WrongGuessLimit int           `env:"WRONG_GUESS_LIMIT" envDefault:"9"   validate:"min=1,max=26"`
	WinPoints       int           `env:"WIN_POINTS"        envDefault:"10"  validate:"min=1"`
	TurnTimeout     time.Duration `env:"TURN_TIMEOUT"      envDefault:"0s"  validate:"min=0"`
	CreatorTeam     string        `env:"CREATOR_TEAM"                       validate:"omitempty,oneof=A B"`
	StatsTTL        time.Duration `env:"STATS_TTL"         envDefault:"24h" validate:"min=1m"`

	CorsAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"3001" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	// Parse config from environment variables
	if err := env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
