package sink

import (
	"fmt"
	"sync"

	"github.com/pubsink/pubsink/cfg"
)

// PublisherFactory builds a Publisher from a destination configuration.
type PublisherFactory func(cfg.DestinationConfiguration) (Publisher, error)

var (
	publisherFactories = make(map[string]PublisherFactory)
	factoryMu          sync.RWMutex
)

// RegisterPublisher registers a publisher factory for a destination type.
// Backends register themselves from init.
func RegisterPublisher(kind string, factory PublisherFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	publisherFactories[kind] = factory
}

// NewPublisher builds a publisher for the configured destination type.
func NewPublisher(config cfg.DestinationConfiguration) (Publisher, error) {
	factoryMu.RLock()
	factory, exists := publisherFactories[config.Type]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown destination type: %s", config.Type)
	}
	return factory(config)
}
