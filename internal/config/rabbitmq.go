package config

type RabbitMQ struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"product-catalog.events"`
	Queue    string `env:"RABBITMQ_QUEUE" envDefault:"product-catalog.events.queue"`
}
