package controller

import (
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// onBecomeUnknown drops the believed leader and waits for elections
func (c *Controller) onBecomeUnknown(msg messages.Message) {
	become := msg.(messages.BecomeUnknown)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleUnknown, nil)
	c.outputBus.Publish(become)
}

// onBecomeDiscoverLeader enters discovery and arms its timeout
func (c *Controller) onBecomeDiscoverLeader(msg messages.Message) {
	become := msg.(messages.BecomeDiscoverLeader)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleDiscoverLeader, nil)
	c.outputBus.Publish(become)
	c.scheduler.Schedule(c.timeouts.LeaderDiscovery, messages.DiscoveryTimeout{CorrelationID: c.state.stateCorrelationID})
}

// onDiscoveryTimeout gives up on finding an existing leader
func (c *Controller) onDiscoveryTimeout(msg messages.Message) {
	timeout := msg.(messages.DiscoveryTimeout)
	if timeout.CorrelationID != c.state.stateCorrelationID {
		return
	}
	if c.state.leader != nil {
		return
	}

	c.logger.Info().Msg("leader discovery timed out")
	c.mainQueue.Publish(messages.BecomeUnknown{CorrelationID: c.state.stateCorrelationID})
}

// onBecomePreLeader stages leadership pending chaser catch-up
func (c *Controller) onBecomePreLeader(msg messages.Message) {
	become := msg.(messages.BecomePreLeader)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}
	if become.Leader.InstanceID != c.node.InstanceID {
		c.fatal("pre-leader transition for a foreign leader", func(e *zerolog.Event) {
			e.Str("leader", become.Leader.InstanceID.String())
		})
		return
	}

	leader := become.Leader
	c.transitionTo(RolePreLeader, &leader)
	c.outputBus.Publish(become)
	c.mainQueue.Publish(messages.WaitForChaserToCatchUp{CorrelationID: c.state.stateCorrelationID})
}

// onChaserCaughtUpAsPreLeader completes the leader transition
func (c *Controller) onChaserCaughtUpAsPreLeader(msg messages.Message) {
	caught := msg.(messages.ChaserCaughtUp)
	if caught.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.mainQueue.Publish(messages.BecomeLeader{CorrelationID: c.state.stateCorrelationID})
}

// onBecomeLeader takes leadership. Re-entering leadership without an
// intervening election is a lost invariant.
func (c *Controller) onBecomeLeader(msg messages.Message) {
	become := msg.(messages.BecomeLeader)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}
	if c.state.role == RoleLeader {
		c.fatal("become-leader while already leader", nil)
		return
	}
	if c.state.leader == nil || c.state.leader.InstanceID != c.node.InstanceID {
		c.fatal("become-leader without self as believed leader", nil)
		return
	}

	c.transitionTo(RoleLeader, c.state.leader)
	c.outputBus.Publish(become)
}

// onInitiateLeaderResignation starts the resignation drain
func (c *Controller) onInitiateLeaderResignation(msg messages.Message) {
	c.logger.Info().Msg("leader resignation initiated")
	c.mainQueue.Publish(messages.BecomeResigningLeader{CorrelationID: c.state.stateCorrelationID})
}

// onBecomeResigningLeader keeps serving reads while writes drain
func (c *Controller) onBecomeResigningLeader(msg messages.Message) {
	become := msg.(messages.BecomeResigningLeader)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleResigningLeader, c.state.leader)
	c.outputBus.Publish(become)
}

// onRequestQueueDrained finishes the resignation
func (c *Controller) onRequestQueueDrained(msg messages.Message) {
	c.state.stateCorrelationID = uuid.New()
	c.mainQueue.Publish(messages.BecomeUnknown{CorrelationID: c.state.stateCorrelationID})
}

// onNoQuorum demotes a leader or leader candidate and asks for a new
// election round.
func (c *Controller) onNoQuorum(msg messages.Message) {
	c.logger.Warn().Str("role", c.state.role.String()).Msg("quorum lost")
	c.state.stateCorrelationID = uuid.New()
	c.mainQueue.Publish(messages.BecomeUnknown{CorrelationID: c.state.stateCorrelationID})
	c.outputBus.Publish(messages.StartElections{})
}

// onBecomeReadOnlyLeaderless parks a read-only replica until gossip
// shows a leader.
func (c *Controller) onBecomeReadOnlyLeaderless(msg messages.Message) {
	become := msg.(messages.BecomeReadOnlyLeaderless)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleReadOnlyLeaderless, nil)
	c.outputBus.Publish(become)
}

// onBecomePreReplica stages replication pending chaser catch-up
func (c *Controller) onBecomePreReplica(msg messages.Message) {
	become := msg.(messages.BecomePreReplica)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	leader := become.Leader
	c.transitionTo(RolePreReplica, &leader)
	c.outputBus.Publish(become)
	c.mainQueue.Publish(messages.WaitForChaserToCatchUp{CorrelationID: c.state.stateCorrelationID})
}

// onBecomePreReadOnlyReplica stages a read-only replica
func (c *Controller) onBecomePreReadOnlyReplica(msg messages.Message) {
	become := msg.(messages.BecomePreReadOnlyReplica)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	leader := become.Leader
	c.transitionTo(RolePreReadOnlyReplica, &leader)
	c.outputBus.Publish(become)
	c.mainQueue.Publish(messages.WaitForChaserToCatchUp{CorrelationID: c.state.stateCorrelationID})
}

// onChaserCaughtUpAsPreReplica starts the subscription handshake
func (c *Controller) onChaserCaughtUpAsPreReplica(msg messages.Message) {
	caught := msg.(messages.ChaserCaughtUp)
	if caught.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.mainQueue.Publish(messages.SubscribeToLeader{
		StateCorrelationID: c.state.stateCorrelationID,
		SubscriptionID:     uuid.New(),
	})
}

// onChaserCaughtUpAsPreReadOnlyReplica starts the read-only handshake
func (c *Controller) onChaserCaughtUpAsPreReadOnlyReplica(msg messages.Message) {
	c.onChaserCaughtUpAsPreReplica(msg)
}

// onBecomeCatchingUp follows a successful subscription
func (c *Controller) onBecomeCatchingUp(msg messages.Message) {
	become := msg.(messages.BecomeCatchingUp)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleCatchingUp, c.state.leader)
	c.outputBus.Publish(become)
}

// onBecomeClone records a clone assignment
func (c *Controller) onBecomeClone(msg messages.Message) {
	become := msg.(messages.BecomeClone)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleClone, c.state.leader)
	c.outputBus.Publish(become)
}

// onBecomeFollower records a follower assignment
func (c *Controller) onBecomeFollower(msg messages.Message) {
	become := msg.(messages.BecomeFollower)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleFollower, c.state.leader)
	c.outputBus.Publish(become)
}

// onBecomeReadOnlyReplica completes the read-only replica transition
func (c *Controller) onBecomeReadOnlyReplica(msg messages.Message) {
	become := msg.(messages.BecomeReadOnlyReplica)
	if become.CorrelationID != c.state.stateCorrelationID {
		return
	}

	c.transitionTo(RoleReadOnlyReplica, c.state.leader)
	c.outputBus.Publish(become)
}
