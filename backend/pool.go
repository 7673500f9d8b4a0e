package backend

import (
	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/sink"
)

// newChannelPool builds Channels independent publisher channels with the
// given constructor and wraps them in a Balanced publisher. A single channel
// skips the wrapper.
func newChannelPool(config cfg.DestinationConfiguration, build func() (sink.Publisher, error)) (sink.Publisher, error) {
	channels := config.Channels
	if channels <= 0 {
		channels = 1
	}

	pool := make([]sink.Publisher, 0, channels)
	for i := 0; i < channels; i++ {
		ch, err := build()
		if err != nil {
			for _, open := range pool {
				open.Close()
			}
			return nil, err
		}
		pool = append(pool, ch)
	}

	if len(pool) == 1 {
		return pool[0], nil
	}

	mode := config.Balance
	if mode == "" {
		mode = BalanceRoundRobin
	}
	return NewBalanced(pool, mode)
}
