package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// validateWith runs Validate against a mutated copy of the default
// configuration, restoring the global afterwards.
func validateWith(t *testing.T, mutate func(c *Configuration)) error {
	t.Helper()
	saved := *Config
	defer func() { *Config = saved }()
	mutate(Config)
	return Validate()
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, validateWith(t, func(c *Configuration) {}))
}

func TestValidateDestination(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Configuration)
		wantErr bool
	}{
		{
			name:    "unknown destination type",
			mutate:  func(c *Configuration) { c.Destination.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name: "nats without url",
			mutate: func(c *Configuration) {
				c.Destination.Type = "nats"
				c.Destination.NatsURL = ""
			},
			wantErr: true,
		},
		{
			name: "kafka without brokers",
			mutate: func(c *Configuration) {
				c.Destination.Type = "kafka"
				c.Destination.Brokers = nil
			},
			wantErr: true,
		},
		{
			name: "kafka with brokers",
			mutate: func(c *Configuration) {
				c.Destination.Type = "kafka"
				c.Destination.Brokers = []string{"127.0.0.1:9092"}
			},
			wantErr: false,
		},
		{
			name:    "empty topic",
			mutate:  func(c *Configuration) { c.Destination.Topic = "" },
			wantErr: true,
		},
		{
			name:    "zero min batch size",
			mutate:  func(c *Configuration) { c.Destination.MinBatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero channels",
			mutate:  func(c *Configuration) { c.Destination.Channels = 0 },
			wantErr: true,
		},
		{
			name:    "invalid balance mode",
			mutate:  func(c *Configuration) { c.Destination.Balance = "random" },
			wantErr: true,
		},
		{
			name:    "partition balance mode",
			mutate:  func(c *Configuration) { c.Destination.Balance = "partition" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWith(t, tt.mutate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
	}{
		{"no brokers", func(c *Configuration) { c.Source.Brokers = nil }},
		{"no topic", func(c *Configuration) { c.Source.Topic = "" }},
		{"no group id", func(c *Configuration) { c.Source.GroupID = "" }},
		{"zero checkpoint interval", func(c *Configuration) { c.Source.CheckpointIntervalMS = 0 }},
		{"zero fetch timeout", func(c *Configuration) { c.Source.FetchTimeoutMS = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, validateWith(t, tt.mutate))
		})
	}
}

func TestValidateAdminPort(t *testing.T) {
	assert.Error(t, validateWith(t, func(c *Configuration) { c.Admin.Port = 0 }))
	assert.Error(t, validateWith(t, func(c *Configuration) { c.Admin.Port = 70000 }))

	// Port is irrelevant when the admin server is disabled
	assert.NoError(t, validateWith(t, func(c *Configuration) {
		c.Admin.Enabled = false
		c.Admin.Port = 0
	}))
}
