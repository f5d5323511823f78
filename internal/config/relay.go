package config

import "time"

type Relay struct {
	BatchSize uint32        `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	Interval  time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`
	// ProduceTimeout bounds the produce calls of one batch. Zero means no bound.
	ProduceTimeout time.Duration `env:"RELAY_PRODUCE_TIMEOUT" envDefault:"10s"`
	// Retention is how long processed messages stay in the outbox. Zero keeps them.
	Retention time.Duration `env:"RELAY_RETENTION" envDefault:"168h"`
}
