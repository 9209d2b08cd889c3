package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the federation service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DataDir         string
	PrimaryDomain   string
	RedisURL        string
	DeliveryTimeout time.Duration
	ActorCacheTTL   time.Duration
	ReservedSlugs   []string
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
	v.SetEnvPrefix("FEDI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "fediprofile")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("data.dir", "data")
	v.SetDefault("delivery.timeout", "15s")
	v.SetDefault("actor.cache_ttl", "10m")
	v.SetDefault("reserved.slugs", "admin,api,auth,login,logout,metrics,healthz,static,sharedinbox,well-known")

	deliveryTimeout, err := time.ParseDuration(v.GetString("delivery.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid delivery timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("actor.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid actor cache ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DataDir:         v.GetString("data.dir"),
		PrimaryDomain:   v.GetString("primary.domain"),
		RedisURL:        v.GetString("redis.url"),
		DeliveryTimeout: deliveryTimeout,
		ActorCacheTTL:   cacheTTL,
		ReservedSlugs:   splitSlugs(v.GetString("reserved.slugs")),
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("data directory must be provided")
	}

	return cfg, nil
}

func splitSlugs(raw string) []string {
	var slugs []string
	for _, slug := range strings.Split(raw, ",") {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}
