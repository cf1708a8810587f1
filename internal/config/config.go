package config

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingStoreDomain is returned when SHOPIFY_STORE_DOMAIN is unset. It is
// the only configuration value the process cannot start without.
var ErrMissingStoreDomain = errors.New("SHOPIFY_STORE_DOMAIN is not set")

type Config struct {
	Server  ServerConfig
	Shopify ShopifyConfig
	Carrier CarrierConfig
	Redis   RedisConfig
	Admin   AdminConfig
	Catalog CatalogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type ShopifyConfig struct {
	StoreDomain     string
	StorefrontToken string
	AdminToken      string
	APIVersion      string
}

type CarrierConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Token        string
	OriginCEP    string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AdminConfig struct {
	JWTSecret string
}

type CatalogConfig struct {
	// UseMock swaps the live Storefront API for the built-in placeholder
	// dataset. Only honored outside production.
	UseMock bool
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SHOPIFY_API_VERSION", "2023-10")
	viper.SetDefault("MELHOR_ENVIO_BASE_URL", "https://sandbox.melhorenvio.com.br/api/v2")
	viper.SetDefault("SHIPPING_ORIGIN_CEP", "13802-170")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CATALOG_USE_MOCK", false)

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Shopify: ShopifyConfig{
			StoreDomain:     viper.GetString("SHOPIFY_STORE_DOMAIN"),
			StorefrontToken: viper.GetString("SHOPIFY_STOREFRONT_TOKEN"),
			AdminToken:      viper.GetString("SHOPIFY_ADMIN_API_TOKEN"),
			APIVersion:      viper.GetString("SHOPIFY_API_VERSION"),
		},
		Carrier: CarrierConfig{
			BaseURL:      viper.GetString("MELHOR_ENVIO_BASE_URL"),
			ClientID:     viper.GetString("MELHOR_ENVIO_CLIENT_ID"),
			ClientSecret: viper.GetString("MELHOR_ENVIO_CLIENT_SECRET"),
			Token:        viper.GetString("MELHOR_ENVIO_TOKEN"),
			OriginCEP:    viper.GetString("SHIPPING_ORIGIN_CEP"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Admin: AdminConfig{
			JWTSecret: viper.GetString("ADMIN_JWT_SECRET"),
		},
		Catalog: CatalogConfig{
			UseMock: viper.GetBool("CATALOG_USE_MOCK"),
		},
	}

	if cfg.Shopify.StoreDomain == "" {
		return nil, ErrMissingStoreDomain
	}

	// Missing tokens degrade the matching client to "not initialized"
	// instead of failing startup; flag them early for operators.
	if cfg.Shopify.StorefrontToken == "" {
		log.Printf("Warning: SHOPIFY_STOREFRONT_TOKEN is not set; storefront queries are disabled")
	}
	if cfg.Shopify.AdminToken == "" {
		log.Printf("Warning: SHOPIFY_ADMIN_API_TOKEN is not set; admin operations are disabled")
	}
	if cfg.Carrier.Token == "" {
		log.Printf("Warning: MELHOR_ENVIO_TOKEN is not set; shipping quotes are disabled")
	}

	if cfg.Catalog.UseMock && cfg.Server.Env == "production" {
		log.Printf("Warning: CATALOG_USE_MOCK ignored in production")
		cfg.Catalog.UseMock = false
	}

	return cfg, nil
}

// Addr returns the host:port pair for the redis client.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}
