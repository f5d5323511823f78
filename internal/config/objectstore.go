package config

type ObjectStore struct {
	Endpoint     string `env:"OBJECT_STORE_ENDPOINT,required"`
	AccessKey    string `env:"OBJECT_STORE_ACCESS_KEY,required"`
	SecretKey    string `env:"OBJECT_STORE_SECRET_KEY,required"`
	Region       string `env:"OBJECT_STORE_REGION" envDefault:"us-east-2"`
	UseSSL       bool   `env:"OBJECT_STORE_USE_SSL" envDefault:"true"`
	ImportBucket string `env:"OBJECT_STORE_IMPORT_BUCKET,required"`
	ExportBucket string `env:"OBJECT_STORE_EXPORT_BUCKET,required"`
}
