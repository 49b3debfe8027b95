package config

// Config is the top-level sentinel configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

// MarketConfig describes the price data provider.
type MarketConfig struct {
	Provider       string `mapstructure:"provider"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Concurrency    int    `mapstructure:"concurrency"`
}

// CacheConfig controls the on-disk price cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// PortfolioConfig points at the watched portfolio file and the background
// refresh cadence (0 disables periodic refresh).
type PortfolioConfig struct {
	File           string `mapstructure:"file"`
	RefreshMinutes int    `mapstructure:"refresh_minutes"`
}
