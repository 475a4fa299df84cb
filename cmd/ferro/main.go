package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ferrodb/ferro/pkg/api"
	"github.com/ferrodb/ferro/pkg/bus"
	"github.com/ferrodb/ferro/pkg/config"
	"github.com/ferrodb/ferro/pkg/controller"
	"github.com/ferrodb/ferro/pkg/eventlog"
	"github.com/ferrodb/ferro/pkg/forwarding"
	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ferro",
	Short: "Ferro - replicated event-log database",
	Long: `Ferro is a replicated, leader-based event-log database.
Each node runs a lifecycle controller that drives the node through its
cluster roles and admits client requests accordingly.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Ferro version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	runCmd.Flags().String("config", "ferro.yaml", "Path to the node configuration file")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Ferro node",
	Long: `Run a Ferro node using the given configuration file.

The node joins (or forms) its cluster according to cluster_size and
serves until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.JSONLogs,
		})

		return runNode(cfg)
	},
}

// serviceWorkers stops the subordinate service goroutines when the
// controller reaches Shutdown.
type serviceWorkers struct {
	workers []interface{ Stop() }
}

func (w *serviceWorkers) Stop() {
	for _, worker := range w.workers {
		worker.Stop()
	}
}

// osExiter terminates the process
type osExiter struct{}

func (osExiter) Exit(code int) { os.Exit(code) }

func runNode(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	store, err := eventlog.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open log database: %v", err)
	}

	node := mesh.NodeInfo{
		InstanceID:         uuid.New(),
		HTTPEndpoint:       cfg.HTTPEndpoint,
		InternalTCP:        cfg.InternalTCP,
		InternalSecureTCP:  cfg.InternalSecureTCP,
		ExternalTCP:        cfg.ExternalTCP,
		ExternalSecureTCP:  cfg.ExternalSecureTCP,
		AdvertisedHost:     cfg.AdvertisedHost,
		AdvertisedTCPPort:  cfg.AdvertisedTCPPort,
		AdvertisedHTTPPort: cfg.AdvertisedHTTPPort,
		ReadOnlyReplica:    cfg.ReadOnlyReplica,
	}

	logger := log.WithNodeID(node.InstanceID.String())
	logger.Info().Str("version", Version).Int("cluster_size", cfg.ClusterSize).Msg("starting node")

	mainQueue := bus.NewMainQueue()
	outputBus := bus.NewOutputBus()
	outputBus.Start()

	timers := bus.NewTimerService(mainQueue)

	proxy := forwarding.NewProxy()
	proxy.Start()

	// Core services and lifecycle-only participants
	agents := []interface {
		Start()
		Stop()
	}{
		services.NewChaser(mainQueue, outputBus),
		services.NewWriter(mainQueue, outputBus, store, node),
		services.NewReader(mainQueue, outputBus, store),
		services.NewAckOnly("index-committer", mainQueue, outputBus),
		services.NewAckOnly("http", mainQueue, outputBus),
		services.NewAuthenticator(mainQueue, outputBus),
	}
	if cfg.ClusterSize > 1 {
		agents = append(agents, services.NewAckOnly("replication", mainQueue, outputBus))
	}

	workers := &serviceWorkers{}
	for _, a := range agents {
		a.Start()
		workers.workers = append(workers.workers, a)
	}

	timeouts := controller.DefaultTimeouts()
	applyTimeoutOverrides(&timeouts, cfg.Timeouts)

	ctrl := controller.New(controller.Config{
		Node:        node,
		ClusterSize: cfg.ClusterSize,
		Timeouts:    timeouts,
		MainQueue:   mainQueue,
		OutputBus:   outputBus,
		Scheduler:   timers,
		Proxy:       proxy,
		DB:          store,
		Workers:     workers,
		Exiter:      osExiter{},
	})

	mainQueue.Start(ctrl)
	mainQueue.Publish(messages.SystemInit{})

	opsServer := api.NewServer(ctrl, mainQueue)
	opsErrCh := make(chan error, 1)
	go func() {
		if err := opsServer.Start(cfg.OpsAddr); err != nil {
			opsErrCh <- fmt.Errorf("ops API error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("interrupt received, shutting down")
		mainQueue.Publish(messages.RequestShutdown{ShutdownHTTP: true})
	case err := <-opsErrCh:
		logger.Error().Err(err).Msg("ops API failed, shutting down")
		mainQueue.Publish(messages.RequestShutdown{ShutdownHTTP: true})
	}

	// The controller stops the main queue once it reaches Shutdown
	mainQueue.Wait()

	opsServer.Stop()
	proxy.Stop()
	outputBus.Stop()

	logger.Info().Msg("node stopped")
	return nil
}

func applyTimeoutOverrides(t *controller.Timeouts, o config.TimeoutConfig) {
	if o.LeaderDiscovery > 0 {
		t.LeaderDiscovery = o.LeaderDiscovery
	}
	if o.LeaderReconnectionDelay > 0 {
		t.LeaderReconnectionDelay = o.LeaderReconnectionDelay
	}
	if o.SubscriptionRetryDelay > 0 {
		t.SubscriptionRetryDelay = o.SubscriptionRetryDelay
	}
	if o.SubscriptionWatchdog > 0 {
		t.SubscriptionWatchdog = o.SubscriptionWatchdog
	}
	if o.Shutdown > 0 {
		t.Shutdown = o.Shutdown
	}
	if o.Prepare > 0 {
		t.Prepare = o.Prepare
	}
	if o.Commit > 0 {
		t.Commit = o.Commit
	}
}
