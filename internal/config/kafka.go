package config

import "time"

type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP,required"`

	// The producer stops calling the brokers after BreakerFailures consecutive
	// failures and probes them again once BreakerTimeout has elapsed.
	BreakerFailures uint32        `env:"KAFKA_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"KAFKA_BREAKER_TIMEOUT" envDefault:"30s"`
}
