package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAttachmentTypes is the MIME allow-list used when none is configured.
var DefaultAttachmentTypes = []string{
	"application/pdf",
	"application/zip",
	"image/png",
	"image/jpeg",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	EventsChannel          string
	ConflictRetries        int
	AllowedAttachmentTypes []string
	SubmitRateLimit        int
	RateLimitWindow        time.Duration
	CORSAllowOrigins       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Assessment API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "gema:assessment")
	v.SetDefault("grading.conflict_retries", 3)
	v.SetDefault("submission.allowed_attachment_types", strings.Join(DefaultAttachmentTypes, ","))
	v.SetDefault("ratelimit.submit_max", 30)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("cors.allow_origins", "*")

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		EventsChannel:          strings.TrimSpace(v.GetString("events.channel")),
		ConflictRetries:        v.GetInt("grading.conflict_retries"),
		AllowedAttachmentTypes: splitList(v.GetString("submission.allowed_attachment_types")),
		SubmitRateLimit:        v.GetInt("ratelimit.submit_max"),
		RateLimitWindow:        window,
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}

	if len(cfg.AllowedAttachmentTypes) == 0 {
		cfg.AllowedAttachmentTypes = append([]string(nil), DefaultAttachmentTypes...)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
