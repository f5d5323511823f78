package config

import "time"

type Redis struct {
	// Addr disables the idempotency guard when empty.
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"REDIS_IDEMPOTENCY_TTL" envDefault:"24h"`
}
