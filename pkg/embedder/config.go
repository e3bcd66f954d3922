package embedder

import (
	"fmt"
	"time"
)

// Config 声纹特征提取服务配置
type Config struct {
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key"`
	Timeout    time.Duration `json:"timeout"`
	Dimension  int           `json:"dimension"`
	LogEnabled bool          `json:"log_enabled"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8005",
		Timeout:    30 * time.Second,
		Dimension:  256,
		LogEnabled: true,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig("base_url is required")
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("invalid timeout: %v", c.Timeout))
	}
	return nil
}
