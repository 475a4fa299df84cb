package controller

import (
	"github.com/ferrodb/ferro/pkg/messages"
)

// onElectionsDone consumes the election outcome. Re-announcement of
// the current leader is a no-op, except that a re-elected leader
// writes a fresh epoch.
func (c *Controller) onElectionsDone(msg messages.Message) {
	done := msg.(messages.ElectionsDone)

	if c.state.leader != nil && c.state.leader.InstanceID == done.Leader.InstanceID {
		if done.Leader.InstanceID == c.node.InstanceID && c.state.role == RoleLeader {
			c.outputBus.Publish(messages.WriteEpoch{ProposalNumber: done.ProposalNumber})
		}
		return
	}

	c.rotateStateIDs()
	if done.Leader.InstanceID == c.node.InstanceID {
		c.mainQueue.Publish(messages.BecomePreLeader{
			CorrelationID: c.state.stateCorrelationID,
			Leader:        done.Leader,
		})
	} else {
		c.mainQueue.Publish(messages.BecomePreReplica{
			CorrelationID: c.state.stateCorrelationID,
			Leader:        done.Leader,
		})
	}
}

// onGossipAsLeader watches for split brain: two alive leaders in one
// view force a new election round.
func (c *Controller) onGossipAsLeader(msg messages.Message) {
	gossip := msg.(messages.GossipUpdated)
	c.outputBus.Publish(gossip)

	if len(gossip.View.AliveLeaders()) >= 2 {
		c.logger.Warn().Msg("multiple alive leaders in gossip view")
		c.outputBus.Publish(messages.StartElections{})
	}
}

// onGossipAsReplica checks the believed leader is still an alive
// leader; anything else forces elections.
func (c *Controller) onGossipAsReplica(msg messages.Message) {
	gossip := msg.(messages.GossipUpdated)
	c.outputBus.Publish(gossip)

	if c.state.leader == nil {
		return
	}
	if !gossip.View.IsAliveLeader(c.state.leader.InstanceID) {
		c.logger.Info().Str("leader", c.state.leader.InstanceID.String()).
			Msg("believed leader no longer alive leader in gossip view")
		c.outputBus.Publish(messages.StartElections{})
	}
}

// onGossipAsReadOnly parks the read-only replica when its leader
// disappears. Read-only nodes never vote, so no elections here.
func (c *Controller) onGossipAsReadOnly(msg messages.Message) {
	gossip := msg.(messages.GossipUpdated)
	c.outputBus.Publish(gossip)

	if c.state.leader == nil {
		return
	}
	if !gossip.View.IsAliveLeader(c.state.leader.InstanceID) {
		c.rotateStateIDs()
		c.mainQueue.Publish(messages.BecomeReadOnlyLeaderless{CorrelationID: c.state.stateCorrelationID})
	}
}

// onGossipAsReadOnlyLeaderless adopts a leader once gossip shows
// exactly one.
func (c *Controller) onGossipAsReadOnlyLeaderless(msg messages.Message) {
	gossip := msg.(messages.GossipUpdated)
	c.outputBus.Publish(gossip)

	leaders := gossip.View.AliveLeaders()
	if len(leaders) != 1 {
		return
	}

	c.rotateStateIDs()
	c.mainQueue.Publish(messages.BecomePreReadOnlyReplica{
		CorrelationID: c.state.stateCorrelationID,
		Leader:        leaders[0],
	})
}

// onGossipAsDiscoverLeader joins an existing leader found via gossip
func (c *Controller) onGossipAsDiscoverLeader(msg messages.Message) {
	gossip := msg.(messages.GossipUpdated)
	c.outputBus.Publish(gossip)

	leaders := gossip.View.AliveLeaders()
	if len(leaders) != 1 {
		return
	}

	c.rotateStateIDs()
	c.outputBus.Publish(messages.LeaderFound{Leader: leaders[0]})
	c.mainQueue.Publish(messages.BecomePreReplica{
		CorrelationID: c.state.stateCorrelationID,
		Leader:        leaders[0],
	})
}
