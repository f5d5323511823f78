package config

import "time"

type Batch struct {
	CreatePrefix   string        `env:"BATCH_CREATE_PREFIX" envDefault:"for_create/"`
	DeletePrefix   string        `env:"BATCH_DELETE_PREFIX" envDefault:"for_delete/"`
	ExportSize     int           `env:"BATCH_EXPORT_SIZE" envDefault:"100"`
	ExportInterval time.Duration `env:"BATCH_EXPORT_INTERVAL" envDefault:"30s"`
}
