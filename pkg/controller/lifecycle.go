package controller

import (
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/metrics"
	"github.com/rs/zerolog"
)

// onSystemInit kicks off core service initialization
func (c *Controller) onSystemInit(msg messages.Message) {
	c.logger.Info().Int("services", c.state.serviceInitsToExpect).Msg("initializing core services")
	c.outputBus.Publish(msg)
}

// onServiceInitialized counts core service init acks; the last ack
// starts the system.
func (c *Controller) onServiceInitialized(msg messages.Message) {
	init := msg.(messages.ServiceInitialized)
	if c.state.serviceInitsToExpect == 0 {
		c.logger.Debug().Str("service", init.Service).Msg("late service init ack")
		return
	}

	c.state.serviceInitsToExpect--
	c.logger.Info().Str("service", init.Service).
		Int("remaining", c.state.serviceInitsToExpect).Msg("service initialized")

	if c.state.serviceInitsToExpect == 0 {
		c.mainQueue.Publish(messages.SystemStart{})
	}
}

// onSystemStart picks the node's first role
func (c *Controller) onSystemStart(msg messages.Message) {
	c.outputBus.Publish(msg)

	switch {
	case c.node.ReadOnlyReplica:
		c.mainQueue.Publish(messages.BecomeReadOnlyLeaderless{CorrelationID: c.state.stateCorrelationID})
	case c.clusterSize > 1:
		c.mainQueue.Publish(messages.BecomeDiscoverLeader{CorrelationID: c.state.stateCorrelationID})
	default:
		c.mainQueue.Publish(messages.BecomeUnknown{CorrelationID: c.state.stateCorrelationID})
	}
}

// onAuthProviderInitialized starts the subsystems and marks the core
// ready.
func (c *Controller) onAuthProviderInitialized(msg messages.Message) {
	c.outputBus.Publish(msg)
	c.mainQueue.Publish(messages.SystemCoreReady{})
}

// onAuthProviderInitializationFailed escalates to shutdown
func (c *Controller) onAuthProviderInitializationFailed(msg messages.Message) {
	failed := msg.(messages.AuthenticationProviderInitializationFailed)
	c.logger.Error().Str("reason", failed.Reason).Msg("authentication provider failed to initialize, shutting down")
	c.mainQueue.Publish(messages.BecomeShuttingDown{ExitProcess: true, ShutdownHTTP: true})
}

// onSystemCoreReady publishes SystemReady directly when there are no
// subsystems; otherwise the last subsystem ack does it.
func (c *Controller) onSystemCoreReady(msg messages.Message) {
	c.coreReady = true
	c.outputBus.Publish(msg)
	if c.subsystemInits.Load() <= 0 {
		c.publishSystemReady()
	}
}

// onSubSystemInitialized counts subsystem init acks. The counter is
// atomic because subsystems post their acks from their own goroutines.
func (c *Controller) onSubSystemInitialized(msg messages.Message) {
	sub := msg.(messages.SubSystemInitialized)
	remaining := c.subsystemInits.Add(-1)
	c.logger.Info().Str("subsystem", sub.SubSystem).
		Int32("remaining", remaining).Msg("subsystem initialized")

	if remaining == 0 && c.coreReady {
		c.publishSystemReady()
	}
}

func (c *Controller) publishSystemReady() {
	if !c.readyPublished.CompareAndSwap(false, true) {
		return
	}
	c.logger.Info().Msg("system ready")
	c.outputBus.Publish(messages.SystemReady{})
}

// onRequestShutdown routes any shutdown request through the shared
// bounded window.
func (c *Controller) onRequestShutdown(msg messages.Message) {
	req := msg.(messages.RequestShutdown)
	c.mainQueue.Publish(messages.BecomeShuttingDown{
		ExitProcess:  req.ExitProcess,
		ShutdownHTTP: req.ShutdownHTTP,
	})
}

// onBecomeShuttingDown opens the bounded shutdown window. No-op when
// the node is already shutting down.
func (c *Controller) onBecomeShuttingDown(msg messages.Message) {
	if c.state.role == RoleShuttingDown || c.state.role == RoleShutdown {
		return
	}

	down := msg.(messages.BecomeShuttingDown)
	c.state.exitProcessOnShutdown = down.ExitProcess
	c.rotateStateIDs()
	c.transitionTo(RoleShuttingDown, nil)
	c.outputBus.Publish(down)
	c.scheduler.Schedule(c.timeouts.Shutdown, messages.ShutdownTimeout{CorrelationID: c.state.stateCorrelationID})
}

// onServiceShutdown counts shutdown acks; the last ack completes the
// shutdown early.
func (c *Controller) onServiceShutdown(msg messages.Message) {
	ack := msg.(messages.ServiceShutdown)
	c.state.serviceShutdownsToExpect--
	metrics.ShutdownAcksPending.Set(float64(c.state.serviceShutdownsToExpect))
	c.logger.Info().Str("service", ack.Service).
		Int("remaining", c.state.serviceShutdownsToExpect).Msg("service shut down")

	if c.state.serviceShutdownsToExpect <= 0 {
		c.shutdown()
	}
}

// onShutdownTimeout fires when services fail to acknowledge within the
// shutdown window.
func (c *Controller) onShutdownTimeout(msg messages.Message) {
	timeout := msg.(messages.ShutdownTimeout)
	if timeout.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.logger.Error().Int("pending_acks", c.state.serviceShutdownsToExpect).
		Msg("shutdown timed out waiting for service acknowledgements")
	c.shutdown()
}

// shutdown closes the log database and posts the terminal transition.
// Runs at most once, from the ack path or the timeout path.
func (c *Controller) shutdown() {
	if c.shutdownInitiated {
		return
	}
	c.shutdownInitiated = true

	if c.state.role != RoleShuttingDown {
		c.fatal("shutdown outside the shutting-down role", func(e *zerolog.Event) {
			e.Str("role", c.state.role.String())
		})
		return
	}

	if err := c.db.Close(); err != nil {
		c.logger.Error().Err(err).Msg("failed to close log database")
	}
	c.mainQueue.Publish(messages.BecomeShutdown{})
}

// onBecomeShutdown is the terminal transition
func (c *Controller) onBecomeShutdown(msg messages.Message) {
	c.transitionTo(RoleShutdown, nil)
	c.outputBus.Publish(msg)
	c.workers.Stop()
	c.mainQueue.RequestStop()

	if c.state.exitProcessOnShutdown {
		c.exiter.Exit(0)
	}
}
