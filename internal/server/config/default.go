package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5480"
	DefaultRateLimit       = 50.0
	DefaultRateBurst       = 100
	DefaultShutdownTimeout = 15 * time.Second

	DefaultPollInterval = 30 * time.Second
	DefaultPollJitter   = 0.1
	DefaultHistory      = 64
	DefaultTriggerRate  = 1.0
	DefaultTriggerBurst = 3
	DefaultPollTimeout  = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. It declares no sources.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RateLimit:       DefaultRateLimit,
				RateBurst:       DefaultRateBurst,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Poll: PollSection{
			Interval:     DefaultPollInterval,
			Jitter:       DefaultPollJitter,
			History:      DefaultHistory,
			TriggerRate:  DefaultTriggerRate,
			TriggerBurst: DefaultTriggerBurst,
			Timeout:      DefaultPollTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
