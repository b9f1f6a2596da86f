package remote

// Config holds configuration for the remote commerce API client.
type Config struct {
	// Endpoint is the base URL of the remote admin API.
	Endpoint string `mapstructure:"endpoint" default:"http://localhost:8090"`
	// Token is the access token sent with every request.
	Token string `mapstructure:"token" default:""`
	// RatePerSecond is the maximum number of calls per second.
	RatePerSecond int `mapstructure:"rate_per_second" default:"4"`
	// MaxRetries is the retry budget for throttled and transient failures.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
	// BaseDelayMS is the initial backoff delay in milliseconds.
	BaseDelayMS int `mapstructure:"base_delay_ms" default:"500"`
	// MaxDelayMS caps a single backoff delay in milliseconds.
	MaxDelayMS int `mapstructure:"max_delay_ms" default:"10000"`
	// TimeoutSeconds is the per-call wall-clock timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
