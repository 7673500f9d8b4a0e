package cfg

import (
	"flag"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/rs/zerolog/log"
)

// DestinationConfiguration describes the remote ingestion endpoint batches
// are published to.
type DestinationConfiguration struct {
	Type         string   `toml:"type"`           // "nats" or "kafka"
	Topic        string   `toml:"topic"`          // Destination topic/subject
	NatsURL      string   `toml:"nats_url"`       // NATS server URL (type=nats)
	Brokers      []string `toml:"brokers"`        // Kafka brokers (type=kafka)
	Channels     int      `toml:"channels"`       // Publisher channel pool size
	Balance      string   `toml:"balance"`        // "round_robin" or "partition"
	MinBatchSize int      `toml:"min_batch_size"` // Eager-dispatch threshold
	FilterKeys   []string `toml:"filter_keys"`    // Glob patterns; empty = publish all
}

// SourceConfiguration describes the Kafka source the bridge consumes from.
type SourceConfiguration struct {
	Brokers              []string `toml:"brokers"`
	Topic                string   `toml:"topic"`
	GroupID              string   `toml:"group_id"`
	CheckpointIntervalMS int      `toml:"checkpoint_interval_ms"`
	FetchTimeoutMS       int      `toml:"fetch_timeout_ms"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool `toml:"enabled"`
}

// AdminConfiguration for the admin/metrics HTTP server
type AdminConfiguration struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
}

// Configuration is the main configuration structure
type Configuration struct {
	NodeID  uint64 `toml:"node_id"`
	DataDir string `toml:"data_dir"`

	Destination DestinationConfiguration `toml:"destination"`
	Source      SourceConfiguration      `toml:"source"`
	Logging     LoggingConfiguration     `toml:"logging"`
	Prometheus  PrometheusConfiguration  `toml:"prometheus"`
	Admin       AdminConfiguration       `toml:"admin"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	DataDirFlag    = flag.String("data-dir", "", "Data directory (overrides config)")
	NodeIDFlag     = flag.Uint64("node-id", 0, "Node ID (overrides config, 0=auto)")
	AdminPortFlag  = flag.Int("admin-port", 0, "Admin HTTP port (overrides config)")
)

// Default configuration
var Config = &Configuration{
	NodeID:  0, // Auto-generate
	DataDir: "./pubsink-data",

	Destination: DestinationConfiguration{
		Type:         "nats",
		Topic:        "pubsink.records",
		NatsURL:      "nats://127.0.0.1:4222",
		Channels:     10,
		Balance:      "round_robin",
		MinBatchSize: 100,
	},

	Source: SourceConfiguration{
		Brokers:              []string{"127.0.0.1:9092"},
		Topic:                "records",
		GroupID:              "pubsink",
		CheckpointIntervalMS: 5000,
		FetchTimeoutMS:       250,
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled: true,
	},

	Admin: AdminConfiguration{
		Enabled:     true,
		BindAddress: "0.0.0.0",
		Port:        9090,
	},
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	// Load from file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Apply CLI overrides
	if *DataDirFlag != "" {
		Config.DataDir = *DataDirFlag
	}
	if *NodeIDFlag != 0 {
		Config.NodeID = *NodeIDFlag
	}
	if *AdminPortFlag != 0 {
		Config.Admin.Port = *AdminPortFlag
	}

	// Auto-generate node ID if not set
	if Config.NodeID == 0 {
		var err error
		Config.NodeID, err = generateNodeID()
		if err != nil {
			return fmt.Errorf("failed to generate node ID: %w", err)
		}
		log.Info().Uint64("node_id", Config.NodeID).Msg("Auto-generated node ID")
	}

	// Ensure data directory exists
	if err := os.MkdirAll(Config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return nil
}

// generateNodeID creates a unique node ID based on machine ID
func generateNodeID() (uint64, error) {
	id, err := machineid.ProtectedID("pubsink")
	if err != nil {
		return 0, err
	}

	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64(), nil
}

// Validate checks configuration for errors
func Validate() error {
	switch Config.Destination.Type {
	case "nats":
		if Config.Destination.NatsURL == "" {
			return fmt.Errorf("destination type nats requires nats_url")
		}
	case "kafka":
		if len(Config.Destination.Brokers) == 0 {
			return fmt.Errorf("destination type kafka requires at least one broker")
		}
	default:
		return fmt.Errorf("invalid destination type: %s", Config.Destination.Type)
	}

	if Config.Destination.Topic == "" {
		return fmt.Errorf("destination topic is required")
	}

	if Config.Destination.MinBatchSize < 1 {
		return fmt.Errorf("destination min_batch_size must be >= 1")
	}

	if Config.Destination.Channels < 1 {
		return fmt.Errorf("destination channels must be >= 1")
	}

	switch Config.Destination.Balance {
	case "round_robin", "partition":
	default:
		return fmt.Errorf("invalid destination balance: %s", Config.Destination.Balance)
	}

	if len(Config.Source.Brokers) == 0 {
		return fmt.Errorf("source requires at least one broker")
	}

	if Config.Source.Topic == "" {
		return fmt.Errorf("source topic is required")
	}

	if Config.Source.GroupID == "" {
		return fmt.Errorf("source group_id is required")
	}

	if Config.Source.CheckpointIntervalMS < 1 {
		return fmt.Errorf("source checkpoint_interval_ms must be >= 1")
	}

	if Config.Source.FetchTimeoutMS < 1 {
		return fmt.Errorf("source fetch_timeout_ms must be >= 1")
	}

	if Config.Admin.Enabled && (Config.Admin.Port < 1 || Config.Admin.Port > 65535) {
		return fmt.Errorf("invalid admin port: %d", Config.Admin.Port)
	}

	return nil
}
