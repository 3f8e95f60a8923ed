package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Bank      BankConfig      `yaml:"bank"`
	Reference ReferenceConfig `yaml:"reference"`
	Quotes    QuotesConfig    `yaml:"quotes"`
	Cache     CacheConfig     `yaml:"cache"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port              string `yaml:"port" env:"PORT" env-default:"8080"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec" env:"REQUEST_TIMEOUT_SEC" env-default:"10"`
}

// BankConfig controls the rate board scraper.
type BankConfig struct {
	Enabled        bool   `yaml:"enabled" env:"BANK_ENABLED" env-default:"true"`
	URL            string `yaml:"url" env:"BANK_RATE_URL" env-default:"https://rate.bot.com.tw/xrt?Lang=zh-TW"`
	MinIntervalSec int    `yaml:"min_interval_sec" env:"BANK_MIN_INTERVAL_SEC" env-default:"0"`
	MaxRPM         int    `yaml:"max_rpm" env:"BANK_MAX_RPM" env-default:"0"`
	Burst          int    `yaml:"burst" env:"BANK_BURST" env-default:"1"`
}

// ReferenceConfig controls the daily EUR-base XML feed.
type ReferenceConfig struct {
	Enabled bool   `yaml:"enabled" env:"REFERENCE_ENABLED" env-default:"true"`
	URL     string `yaml:"url" env:"REFERENCE_FEED_URL" env-default:"https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"`
}

// QuotesConfig controls the pair-quote JSON API.
type QuotesConfig struct {
	Enabled bool   `yaml:"enabled" env:"QUOTES_ENABLED" env-default:"true"`
	BaseURL string `yaml:"base_url" env:"QUOTES_BASE_URL" env-default:""`
	APIKey  string `yaml:"api_key" env:"QUOTES_API_KEY" env-default:""`
}

type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec" env:"RATE_CACHE_TTL_SEC" env-default:"3600"`
}

type PricingConfig struct {
	// DefaultUSDRate is the last-resort USD->TWD rate used when every source
	// and the cache are unavailable.
	DefaultUSDRate float64 `yaml:"default_usd_rate" env:"DEFAULT_USD_RATE" env-default:"32.0"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// MustLoad reads the optional yaml file named by PRICETOOL_CONFIG plus
// environment overrides, and exits on malformed configuration.
func MustLoad() *Config {
	var cfg Config

	if path := os.Getenv("PRICETOOL_CONFIG"); path != "" {
		if _, err := os.Stat(path); err != nil {
			log.Fatalf("failed to find config file: %v", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			log.Fatalf("failed to read config file: %v", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config from env: %v", err)
	}
	return &cfg
}
