package config

import (
	"fmt"
	"strings"
)

type EventBus struct {
	Driver EventBusDriver `env:"EVENT_BUS_DRIVER" envDefault:"KAFKA"`
}

// EventBusDriver selects the message broker used for domain events.
type EventBusDriver uint8

const (
	EventBusDriverKafka EventBusDriver = iota
	EventBusDriverRabbitMQ
)

func (d EventBusDriver) String() string {
	return []string{"KAFKA", "RABBITMQ"}[d]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *EventBusDriver) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "KAFKA":
		*d = EventBusDriverKafka
	case "RABBITMQ":
		*d = EventBusDriverRabbitMQ
	default:
		return fmt.Errorf("unknown event bus driver: %s", text)
	}
	return nil
}

func (d EventBusDriver) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
