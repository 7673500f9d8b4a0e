package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/admin"
	_ "github.com/pubsink/pubsink/backend" // Register publisher factories
	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/journal"
	"github.com/pubsink/pubsink/sink"
	"github.com/pubsink/pubsink/source"
	"github.com/pubsink/pubsink/telemetry"
)

func main() {
	flag.Parse()

	// Load configuration
	err := cfg.Load(*cfg.ConfigPathFlag)
	if err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Uint64("node_id", cfg.Config.NodeID).
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Info().Msg("Pubsink - Batching Publish Bridge")
	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry()
	telemetry.InitMetrics()

	// Checkpoint journal
	checkpointJournal, err := journal.Open(cfg.Config.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open checkpoint journal")
		return
	}
	defer checkpointJournal.Close()

	// Destination publisher
	log.Info().
		Str("type", cfg.Config.Destination.Type).
		Str("topic", cfg.Config.Destination.Topic).
		Int("channels", cfg.Config.Destination.Channels).
		Msg("Initializing destination publisher")
	publisher, err := sink.NewPublisher(cfg.Config.Destination)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize destination publisher")
		return
	}

	filter, err := sink.NewKeyFilter(cfg.Config.Destination.FilterKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid key filter patterns")
		return
	}

	// Sink engine
	task := sink.NewTask()
	if err := task.Start(sink.TaskConfig{
		Destination:  cfg.Config.Destination.Topic,
		MinBatchSize: cfg.Config.Destination.MinBatchSize,
		Publisher:    publisher,
		Filter:       filter,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sink engine")
		return
	}

	// Source and checkpoint runner
	log.Info().
		Strs("brokers", cfg.Config.Source.Brokers).
		Str("topic", cfg.Config.Source.Topic).
		Str("group_id", cfg.Config.Source.GroupID).
		Msg("Initializing source")
	kafkaSource := source.NewKafka(cfg.Config.Source)

	runner, err := source.NewRunner(source.RunnerConfig{
		Task:               task,
		Source:             kafkaSource,
		Journal:            checkpointJournal,
		CheckpointInterval: time.Duration(cfg.Config.Source.CheckpointIntervalMS) * time.Millisecond,
		FetchTimeout:       time.Duration(cfg.Config.Source.FetchTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create checkpoint runner")
		return
	}
	runner.Start()

	// Admin server
	var adminServer *admin.Server
	if cfg.Config.Admin.Enabled {
		adminServer = admin.NewServer(cfg.Config.Admin, admin.NewHandlers(task, checkpointJournal))
		adminServer.Start()
	}

	log.Info().
		Uint64("node_id", cfg.Config.NodeID).
		Str("data_dir", cfg.Config.DataDir).
		Msg("Pubsink is operational")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	// Runner first: its final checkpoint flushes and commits what it can
	// before the engine and connections go away.
	runner.Stop()
	task.Stop()
	if err := kafkaSource.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close source")
	}
	if adminServer != nil {
		adminServer.Stop()
	}

	log.Info().Msg("Pubsink stopped")
}
