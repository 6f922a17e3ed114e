// Command server runs the blueprint service: project and template
// APIs, the scaffold assistant, the build pipeline, and the realtime
// registry that streams build progress to connected clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/blueprint/internal/assistant"
	"github.com/xraph/blueprint/internal/config"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/metrics"
	"github.com/xraph/blueprint/internal/pipeline"
	"github.com/xraph/blueprint/internal/project"
	"github.com/xraph/blueprint/internal/realtime"
	"github.com/xraph/blueprint/internal/realtime/relay"
	"github.com/xraph/blueprint/internal/server"
	"github.com/xraph/blueprint/internal/template"
	"github.com/xraph/blueprint/internal/tracing"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Environment: cfg.Logging.Environment,
	})
	defer log.Sync()

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promRegistry := metrics.NewRegistry()

	tracer, err := tracing.New(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Logging.Environment,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	tracer.SetGlobal()
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("tracing shutdown failed", logger.Error(err))
		}
	}()

	rtConfig := realtime.DefaultConfig()
	rtConfig.HeartbeatInterval = cfg.Realtime.HeartbeatInterval
	rtConfig.CleanupInterval = cfg.Realtime.CleanupInterval
	rtConfig.StaleMultiplier = cfg.Realtime.StaleMultiplier
	rtConfig.SendBufferSize = cfg.Realtime.SendBufferSize
	rtConfig.MaxMessageSize = cfg.Realtime.MaxMessageSize
	rtConfig.WriteTimeout = cfg.Realtime.WriteTimeout
	rtConfig.PongTimeout = cfg.Realtime.PongTimeout
	if err := rtConfig.Validate(); err != nil {
		return err
	}

	registryOpts := []realtime.Option{
		realtime.WithMetrics(metrics.NewRealtimeMetrics(promRegistry)),
	}

	var broadcastRelay relay.Relay
	if cfg.Relay.Enabled {
		if cfg.Relay.NodeID == "" {
			cfg.Relay.NodeID = uuid.New().String()
		}
		rtConfig.NodeID = cfg.Relay.NodeID

		redisOpts, err := redis.ParseURL(cfg.Relay.RedisURL)
		if err != nil {
			return err
		}

		client := redis.NewClient(redisOpts)
		defer client.Close()

		broadcastRelay = relay.NewRedisRelay(client, cfg.Relay.NodeID, log)
		registryOpts = append(registryOpts, realtime.WithRelay(broadcastRelay))
	}

	registry := realtime.NewRegistry(rtConfig, log, registryOpts...)
	if err := registry.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := registry.Shutdown(context.Background()); err != nil {
			log.Error("registry shutdown failed", logger.Error(err))
		}
	}()

	catalog := template.NewCatalog()
	projects := project.NewStore()
	gen := generator.New(catalog)

	runner := pipeline.NewRunner(
		pipeline.Config{
			MaxConcurrentBuilds: cfg.Pipeline.MaxConcurrentBuilds,
			PhaseDelay:          cfg.Pipeline.PhaseDelay,
		},
		projects,
		gen,
		registry,
		log,
		pipeline.WithMetrics(metrics.NewPipelineMetrics(promRegistry)),
	)
	defer func() {
		if err := runner.Shutdown(context.Background()); err != nil {
			log.Error("pipeline shutdown failed", logger.Error(err))
		}
	}()

	srv := server.New(cfg.Server, server.Deps{
		Logger:         log,
		Registry:       registry,
		Projects:       projects,
		Templates:      catalog,
		Runner:         runner,
		Assistant:      assistant.New(catalog),
		Relay:          broadcastRelay,
		RealtimeConfig: rtConfig,
		Metrics:        metrics.NewHTTPMetrics(promRegistry),
		PromRegistry:   promRegistry,
		Tracing:        tracer,
		TracingEnabled: cfg.Tracing.Enabled,
	})

	return srv.Run(ctx)
}

func printBanner(cfg config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	title.Println("blueprint")
	dim.Printf("version %s  addr %s  relay %v\n", version, cfg.Server.Addr, cfg.Relay.Enabled)
}
