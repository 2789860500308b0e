package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cinesync/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3001,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	scenesDir = configVar[string]{
		envKey:       "SERVER_SCENES_DIR",
		flagKey:      "scenes-dir",
		defaultValue: "./scenes",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	llmBaseURL = configVar[string]{
		envKey:       "LLM_BASE_URL",
		flagKey:      "llm-base-url",
		defaultValue: "https://api.groq.com/openai/v1",
	}
	llmAPIKey = configVar[string]{
		envKey:       "LLM_API_KEY",
		flagKey:      "llm-api-key",
		defaultValue: "",
	}
	llmModel = configVar[string]{
		envKey:       "LLM_MODEL",
		flagKey:      "llm-model",
		defaultValue: "llama-3.3-70b-versatile",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(scenesDir.flagKey, scenesDir.defaultValue, "Directory with per-title scene content")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(llmBaseURL.flagKey, llmBaseURL.defaultValue, "OpenAI-compatible completions base URL")
	pflag.String(llmAPIKey.flagKey, llmAPIKey.defaultValue, "Completions API key")
	pflag.String(llmModel.flagKey, llmModel.defaultValue, "Completions model")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(scenesDir.flagKey, scenesDir.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(llmBaseURL.flagKey, llmBaseURL.envKey)
	viper.BindEnv(llmAPIKey.flagKey, llmAPIKey.envKey)
	viper.BindEnv(llmModel.flagKey, llmModel.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(scenesDir.flagKey, scenesDir.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(llmBaseURL.flagKey, llmBaseURL.defaultValue)
	viper.SetDefault(llmAPIKey.flagKey, llmAPIKey.defaultValue)
	viper.SetDefault(llmModel.flagKey, llmModel.defaultValue)

	return &app.AppConfig{
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		ScenesDir:     viper.GetString(scenesDir.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
		LLMBaseURL:    viper.GetString(llmBaseURL.flagKey),
		LLMAPIKey:     viper.GetString(llmAPIKey.flagKey),
		LLMModel:      viper.GetString(llmModel.flagKey),
	}
}

func main() {
	ctx := context.Background()

	// local development convenience, ignored when no .env exists
	godotenv.Load()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
