package controller

import (
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// isLegitimateReplicationMessage validates a replication message
// against the live subscription. An empty subscription id is a
// programmer error; a mismatched id is a stale message and is dropped;
// a matching id with a mismatched leader means a lost invariant.
func (c *Controller) isLegitimateReplicationMessage(subscriptionID, leaderID uuid.UUID, kind messages.Kind) bool {
	if subscriptionID == uuid.Nil {
		c.fatal("replication message with empty subscription id", func(e *zerolog.Event) {
			e.Str("kind", string(kind))
		})
		return false
	}
	if subscriptionID != c.state.subscriptionID {
		return false
	}
	if c.state.leader == nil || c.state.leader.InstanceID != leaderID {
		c.fatal("replication message matches subscription but not leader", func(e *zerolog.Event) {
			e.Str("kind", string(kind)).Str("message_leader", leaderID.String())
		})
		return false
	}
	return true
}

// onSubscribeToLeader records the new subscription attempt, hands it
// to the replication service, and arms the handshake watchdog. The
// watchdog retry only bites while the node is still staging; once
// subscribed the role has moved on and the retry is dropped by the
// dispatcher.
func (c *Controller) onSubscribeToLeader(msg messages.Message) {
	sub := msg.(messages.SubscribeToLeader)
	if sub.StateCorrelationID != c.state.stateCorrelationID {
		return
	}

	c.state.subscriptionID = sub.SubscriptionID
	c.outputBus.Publish(sub)
	c.scheduler.Schedule(c.timeouts.SubscriptionWatchdog, messages.SubscribeToLeader{
		StateCorrelationID: c.state.stateCorrelationID,
		SubscriptionID:     uuid.New(),
	})
}

// onReplicaSubscriptionRetry re-enters the handshake after a delay
func (c *Controller) onReplicaSubscriptionRetry(msg messages.Message) {
	retry := msg.(messages.ReplicaSubscriptionRetry)
	if !c.isLegitimateReplicationMessage(retry.SubscriptionID, retry.LeaderID, retry.Kind()) {
		return
	}

	c.scheduler.Schedule(c.timeouts.SubscriptionRetryDelay, messages.SubscribeToLeader{
		StateCorrelationID: c.state.stateCorrelationID,
		SubscriptionID:     uuid.New(),
	})
}

// onReplicaSubscribed moves a staged replica into catch-up, or
// straight to serving when the node is a read-only replica.
func (c *Controller) onReplicaSubscribed(msg messages.Message) {
	subscribed := msg.(messages.ReplicaSubscribed)
	if !c.isLegitimateReplicationMessage(subscribed.SubscriptionID, subscribed.LeaderID, subscribed.Kind()) {
		return
	}

	c.outputBus.Publish(subscribed)
	if c.node.ReadOnlyReplica {
		c.mainQueue.Publish(messages.BecomeReadOnlyReplica{CorrelationID: c.state.stateCorrelationID})
	} else {
		c.mainQueue.Publish(messages.BecomeCatchingUp{CorrelationID: c.state.stateCorrelationID})
	}
}

// onFollowerAssignment promotes the replica to follower
func (c *Controller) onFollowerAssignment(msg messages.Message) {
	assign := msg.(messages.FollowerAssignment)
	if !c.isLegitimateReplicationMessage(assign.SubscriptionID, assign.LeaderID, assign.Kind()) {
		return
	}

	c.mainQueue.Publish(messages.BecomeFollower{CorrelationID: c.state.stateCorrelationID})
}

// onCloneAssignment demotes the replica to clone
func (c *Controller) onCloneAssignment(msg messages.Message) {
	assign := msg.(messages.CloneAssignment)
	if !c.isLegitimateReplicationMessage(assign.SubscriptionID, assign.LeaderID, assign.Kind()) {
		return
	}

	c.mainQueue.Publish(messages.BecomeClone{CorrelationID: c.state.stateCorrelationID})
}

// onDropSubscription shuts the clone down; the leader no longer wants
// it.
func (c *Controller) onDropSubscription(msg messages.Message) {
	drop := msg.(messages.DropSubscription)
	if !c.isLegitimateReplicationMessage(drop.SubscriptionID, drop.LeaderID, drop.Kind()) {
		return
	}

	c.logger.Warn().Str("reason", drop.Reason).Msg("leader dropped our subscription, shutting down")
	c.mainQueue.Publish(messages.BecomeShuttingDown{ExitProcess: true, ShutdownHTTP: true})
}

// onVNodeConnectionLost reacts to a dropped internal connection. Only
// a connection to the believed leader matters; the retry path depends
// on how far the subscription had progressed.
func (c *Controller) onVNodeConnectionLost(msg messages.Message) {
	lost := msg.(messages.VNodeConnectionLost)
	if c.state.leader == nil || !c.state.leader.HasEndpoint(lost.Endpoint) {
		return
	}

	c.logger.Info().Str("endpoint", lost.Endpoint.String()).Msg("connection to leader lost")
	c.scheduleLeaderReconnection()
}

// onLeaderConnectionFailed reacts to a failed leader connection
// attempt.
func (c *Controller) onLeaderConnectionFailed(msg messages.Message) {
	failed := msg.(messages.LeaderConnectionFailed)
	if failed.ConnectionCorrelationID != c.state.leaderConnectionCorrelationID {
		return
	}

	c.logger.Info().Msg("leader connection failed")
	c.scheduleLeaderReconnection()
}

// scheduleLeaderReconnection rotates the connection attempt id and
// arms the delayed retry: a plain reconnect when still staging,
// otherwise a full re-entry into the subscription pipeline.
func (c *Controller) scheduleLeaderReconnection() {
	c.state.leaderConnectionCorrelationID = uuid.New()

	switch {
	case c.state.role == RolePreReplica || c.state.role == RolePreReadOnlyReplica:
		c.scheduler.Schedule(c.timeouts.LeaderReconnectionDelay, messages.ReconnectToLeader{
			ConnectionCorrelationID: c.state.leaderConnectionCorrelationID,
		})
	case c.state.role.isReadOnlyReplica():
		c.scheduler.Schedule(c.timeouts.LeaderReconnectionDelay, messages.BecomePreReadOnlyReplica{
			CorrelationID: c.state.stateCorrelationID,
			Leader:        *c.state.leader,
		})
	default:
		c.scheduler.Schedule(c.timeouts.LeaderReconnectionDelay, messages.BecomePreReplica{
			CorrelationID: c.state.stateCorrelationID,
			Leader:        *c.state.leader,
		})
	}
}

// onReconnectToLeader restarts the subscription handshake after a
// reconnection delay.
func (c *Controller) onReconnectToLeader(msg messages.Message) {
	reconnect := msg.(messages.ReconnectToLeader)
	if reconnect.ConnectionCorrelationID != c.state.leaderConnectionCorrelationID {
		return
	}

	c.mainQueue.Publish(messages.SubscribeToLeader{
		StateCorrelationID: c.state.stateCorrelationID,
		SubscriptionID:     uuid.New(),
	})
}
