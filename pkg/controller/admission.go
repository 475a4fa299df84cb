package controller

import (
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// admitClient is the single entry point for client requests. The
// decision depends only on the current role, the request class, and
// the requireLeader flag.
func (c *Controller) admitClient(msg messages.Message) {
	switch req := msg.(type) {
	case messages.ReadRequest:
		c.admitRead(req)
	case messages.WriteRequest:
		c.admitWrite(req)
	default:
		c.fatal("client kind without a request class", func(e *zerolog.Event) {
			e.Str("kind", string(msg.Kind()))
		})
	}
}

func (c *Controller) admitRead(req messages.ReadRequest) {
	info := req.Client()

	switch {
	case c.state.role == RoleLeader || c.state.role == RoleResigningLeader:
		c.outputBus.Publish(req)

	case c.state.role.isReplica() || c.state.role.isReadOnlyReplica():
		if info.RequireLeader {
			if c.state.leader != nil {
				c.deny(info, messages.NotLeader, c.leaderInfo())
			} else {
				c.deny(info, messages.NotReady, nil)
			}
			return
		}
		c.outputBus.Publish(req)

	default:
		c.deny(info, messages.NotReady, nil)
	}
}

func (c *Controller) admitWrite(req messages.WriteRequest) {
	info := req.Client()

	switch {
	case c.state.role == RoleLeader:
		c.outputBus.Publish(req)

	case c.state.role == RoleResigningLeader:
		c.deny(info, messages.NotReady, nil)

	case c.state.role.isReplica():
		if info.RequireLeader {
			c.deny(info, messages.NotLeader, c.leaderInfo())
			return
		}
		c.forwardWrite(req, info)

	case c.state.role.isReadOnlyReplica():
		if !info.User.IsSystem {
			c.deny(info, messages.IsReadOnly, c.leaderInfo())
			return
		}
		if info.RequireLeader {
			c.deny(info, messages.NotLeader, c.leaderInfo())
			return
		}
		c.forwardWrite(req, info)

	default:
		c.deny(info, messages.NotReady, nil)
	}
}

// forwardWrite registers the pending forward with the proxy and hands
// the request to the forwarding transport.
func (c *Controller) forwardWrite(req messages.WriteRequest, info messages.ClientInfo) {
	timeout := c.timeouts.Prepare + c.timeouts.Commit + forwardGrace
	c.proxy.Register(uuid.New(), info.CorrelationID, info.Envelope, timeout, req.ForwardTimeoutReply())
	c.outputBus.Publish(messages.TcpForwardMessage{Message: req, Timeout: timeout})
}

func (c *Controller) deny(info messages.ClientInfo, reason messages.NotHandledReason, leaderInfo *messages.LeaderInfo) {
	if info.Envelope == nil {
		return
	}
	info.Envelope.ReplyWith(messages.NotHandled{
		CorrelationID: info.CorrelationID,
		Reason:        reason,
		LeaderInfo:    leaderInfo,
	})
}
