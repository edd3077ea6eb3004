package scanner

import (
	"regexp"
	"time"
)

// Config holds the configuration for a scan.
type Config struct {
	TestLocal      bool             // Verify filesystem targets
	TestExternal   bool             // Verify HTTP targets
	IgnorePatterns []*regexp.Regexp // Targets matching any pattern are never checked
	Concurrency    int              // Worker pool size per document; 1 means fully sequential
	Timeout        time.Duration    // Deadline for each network probe
	RetryAttempts  int              // Retry budget for retryable server errors
	RetryDelay     time.Duration    // Initial retry backoff, doubled each attempt
	RateLimit      int              // Remote probes per second, 0 disables limiting
	UserAgent      string           // User agent string for probes
}

// DefaultConfig returns a Config instance with default values.
func DefaultConfig() *Config {
	return &Config{
		TestLocal:     true,
		TestExternal:  true,
		Concurrency:   8,
		Timeout:       3 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
		UserAgent:     "link-checker/1.0",
	}
}
