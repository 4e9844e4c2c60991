package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NatsURL                string
	JWTSecret              string
	OpenRouterAPIKey       string
	OpenRouterBaseURL      string
	GraderModel            string
	GraderTemperature      float32
	GraderTimeout          time.Duration
	OCRSpaceAPIKey         string
	OCRLanguage            string
	OCRTimeout             time.Duration
	ReportCacheTTL         time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MIRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Exam MIRA API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("grader.model", "openai/gpt-4o-mini")
	v.SetDefault("grader.temperature", 0.1)
	v.SetDefault("grader.timeout", "15s")
	v.SetDefault("ocr.language", "spa")
	v.SetDefault("ocr.timeout", "10s")
	v.SetDefault("report.cache_ttl", "10m")
	v.SetDefault("cloudinary.folder", "mira/snapshots")

	graderTimeout, err := time.ParseDuration(v.GetString("grader.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grader timeout: %w", err)
	}

	ocrTimeout, err := time.ParseDuration(v.GetString("ocr.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ocr timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("report.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NatsURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		OpenRouterAPIKey:       v.GetString("openrouter.api_key"),
		OpenRouterBaseURL:      v.GetString("openrouter.base_url"),
		GraderModel:            v.GetString("grader.model"),
		GraderTemperature:      float32(v.GetFloat64("grader.temperature")),
		GraderTimeout:          graderTimeout,
		OCRSpaceAPIKey:         v.GetString("ocrspace.api_key"),
		OCRLanguage:            v.GetString("ocr.language"),
		OCRTimeout:             ocrTimeout,
		ReportCacheTTL:         cacheTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
