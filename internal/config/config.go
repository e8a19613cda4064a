package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort          int     `mapstructure:"APP_PORT"`
	OpenRouterAPIKey string  `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterURL    string  `mapstructure:"OPENROUTER_URL"`
	ChatModel        string  `mapstructure:"CHAT_MODEL"`
	MaxTokens        int     `mapstructure:"MAX_TOKENS"`
	Temperature      float64 `mapstructure:"TEMPERATURE"`
	AllowedOrigins   string  `mapstructure:"ALLOWED_ORIGINS"`
	HTTPReferer      string  `mapstructure:"HTTP_REFERER"`
	AppTitle         string  `mapstructure:"APP_TITLE"`
	LogLevel         string  `mapstructure:"LOG_LEVEL"`

	// Chat agent settings.
	RelayURL      string `mapstructure:"RELAY_URL"`
	ProfileDBPath string `mapstructure:"PROFILE_DB_PATH"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("OPENROUTER_API_KEY", "")
	viper.SetDefault("OPENROUTER_URL", "https://openrouter.ai/api/v1")
	viper.SetDefault("CHAT_MODEL", "mistralai/mistral-7b-instruct:free")
	viper.SetDefault("MAX_TOKENS", 512)
	viper.SetDefault("TEMPERATURE", 0.7)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000")
	viper.SetDefault("HTTP_REFERER", "https://danielweber.dev")
	viper.SetDefault("APP_TITLE", "persona-chat")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("RELAY_URL", "http://localhost:8000")
	viper.SetDefault("PROFILE_DB_PATH", "./data/persona-chat.db")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Origins splits the configured allow-list into individual origins.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
