package yahoo

import (
	"strings"
	"time"
)

// Config controls the Yahoo Finance chart gateway.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string
}

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "sentinel/1.0"
)

func (c Config) withDefaults() Config {
	out := c
	if strings.TrimSpace(out.BaseURL) == "" {
		out.BaseURL = defaultBaseURL
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = defaultTimeout
	}
	if strings.TrimSpace(out.UserAgent) == "" {
		out.UserAgent = defaultUserAgent
	}
	return out
}
