package ioc

import (
	"context"

	"github.com/belexwatch/price-watcher/internal/service/llm"
	"github.com/belexwatch/price-watcher/internal/service/llm/gemini"
	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// InitLLM returns nil when no gemini key is configured, which disables the
// model-assisted symbol extraction.
func InitLLM() llm.Service {
	type Config struct {
		ApiKey []string `mapstructure:"api_key"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("llm.gemini", &cfg); err != nil {
		panic(err)
	}

	if len(cfg.ApiKey) == 0 {
		return nil
	}

	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.ApiKey[0]))
	if err != nil {
		panic(err)
	}
	return gemini.NewService(cli)
}
