package talker

import "os"

const (
	DefaultServiceName = "talker"
	DefaultNatsURL     = "nats://localhost:4222"
)

const (
	EnvServiceName = "TALKER_SERVICE_NAME"
	EnvNatsURL     = "TALKER_NATS_URL"
	EnvMetricsAddr = "TALKER_METRICS_ADDR"
)

// Config is the process-level configuration read from the environment.
type Config struct {
	ServiceName string
	NatsURL     string
	// MetricsAddr is the listen address of the prometheus endpoint. Empty disables it.
	MetricsAddr string
}

func ConfigFromEnv() Config {
	return Config{
		ServiceName: lookupEnv(EnvServiceName, DefaultServiceName),
		NatsURL:     lookupEnv(EnvNatsURL, DefaultNatsURL),
		MetricsAddr: lookupEnv(EnvMetricsAddr, ""),
	}
}

func lookupEnv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	return value
}
