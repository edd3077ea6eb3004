package probe

import "time"

// Config holds the configuration for an HTTP probe client.
type Config struct {
	Timeout       time.Duration // Uniform deadline for every HEAD/GET probe
	RetryAttempts int           // Number of retry attempts on retryable server errors
	RetryDelay    time.Duration // Initial delay between retries, doubled each attempt
	RateLimit     int           // Maximum probes per second, 0 disables limiting
	UserAgent     string        // User agent string for requests
	MaxBodySize   int64         // Cap on fetched body size for fragment checks
}

// DefaultConfig returns a Config instance with default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:       3 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
		RateLimit:     0,
		UserAgent:     "link-checker/1.0",
		MaxBodySize:   10 << 20,
	}
}
