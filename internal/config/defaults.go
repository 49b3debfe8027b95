package config

import "strings"

const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":8087"
	defaultMarketProvider = "yahoo"
	defaultMarketTimeout  = 15
	defaultMarketParallel = 4
	defaultCachePath      = "data/prices.db"
	defaultCacheTTL       = 15
	defaultPortfolioFile  = "configs/portfolio.yaml"
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Market.applyDefaults()
	c.Cache.applyDefaults()
	c.Portfolio.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (m *MarketConfig) applyDefaults() {
	if strings.TrimSpace(m.Provider) == "" {
		m.Provider = defaultMarketProvider
	}
	if m.TimeoutSeconds <= 0 {
		m.TimeoutSeconds = defaultMarketTimeout
	}
	if m.Concurrency <= 0 {
		m.Concurrency = defaultMarketParallel
	}
}

func (c *CacheConfig) applyDefaults() {
	if c.Enabled && strings.TrimSpace(c.Path) == "" {
		c.Path = defaultCachePath
	}
	if c.TTLMinutes <= 0 {
		c.TTLMinutes = defaultCacheTTL
	}
}

func (p *PortfolioConfig) applyDefaults() {
	if strings.TrimSpace(p.File) == "" {
		p.File = defaultPortfolioFile
	}
}
