package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535] (got %d)", c.Server.Port)
	}

	if c.Ganjoor.BaseURL == "" {
		return fmt.Errorf("ganjoor.base_url must not be empty")
	}

	if c.SearchIndex.Enabled {
		if c.SearchIndex.TopPoets <= 0 {
			return fmt.Errorf("search_index.top_poets must be > 0 (got %d)", c.SearchIndex.TopPoets)
		}
		if c.SearchIndex.BatchSize <= 0 {
			return fmt.Errorf("search_index.batch_size must be > 0 (got %d)", c.SearchIndex.BatchSize)
		}
		if c.SearchIndex.StorePath == "" {
			return fmt.Errorf("search_index.store_path must not be empty")
		}
	}

	if c.Mailer.Enabled {
		if c.Mailer.BaseURL == "" || c.Mailer.APIKey == "" || c.Mailer.To == "" {
			return fmt.Errorf("mailer requires base_url, api_key, and to when enabled")
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate_limit.per_minute must be > 0 (got %d)", c.RateLimit.PerMinute)
	}

	return nil
}
