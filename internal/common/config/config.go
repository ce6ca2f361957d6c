package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port int `env:"PORT" envDefault:"8080"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"giveaways.db"`
	}

	Telegram struct {
		BotToken string `env:"BOT_TOKEN,required"`

		// AdminID is the single operator allowed to run management commands.
		AdminID int64 `env:"ADMIN_ID,required"`

		// ChannelID is the channel giveaways are announced in.
		ChannelID int64 `env:"CHANNEL_ID,required"`

		// ChannelUsername, when set, is used to build public links to
		// announcement posts. Optional: private channels have none.
		ChannelUsername string `env:"CHANNEL_USERNAME"`
	}
}

// Load reads configuration from the environment. A .env file is honored
// when present; in production the variables are set directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
