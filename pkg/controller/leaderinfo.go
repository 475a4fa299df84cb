package controller

import (
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/ferrodb/ferro/pkg/messages"
)

// leaderInfo computes the endpoint set advertised to clients told
// "not leader" or "read only". With a known leader the leader's
// endpoints and advertised overrides are used; without one the node
// answers with its own endpoints and no overrides.
func (c *Controller) leaderInfo() *messages.LeaderInfo {
	if c.state.leader != nil {
		l := c.state.leader
		tcp, secure := pickTCP(l.ExternalTCP, l.ExternalSecureTCP)
		return &messages.LeaderInfo{
			TCPEndpoint:  advertised(tcp, l.AdvertisedHost, l.AdvertisedTCPPort),
			IsTCPSecure:  secure,
			HTTPEndpoint: *advertised(&l.HTTPEndpoint, l.AdvertisedHost, l.AdvertisedHTTPPort),
		}
	}

	tcp, secure := pickTCP(c.node.ExternalTCP, c.node.ExternalSecureTCP)
	return &messages.LeaderInfo{
		TCPEndpoint:  tcp,
		IsTCPSecure:  secure,
		HTTPEndpoint: c.node.HTTPEndpoint,
	}
}

// pickTCP prefers the secure endpoint when both are configured
func pickTCP(plain, secure *mesh.Endpoint) (*mesh.Endpoint, bool) {
	if secure != nil {
		return secure, true
	}
	return plain, false
}

// advertised applies host/port overrides to an endpoint. An empty
// advertised host keeps the endpoint's host; a zero advertised port
// keeps the endpoint's port.
func advertised(ep *mesh.Endpoint, host string, port int) *mesh.Endpoint {
	if ep == nil {
		return nil
	}
	out := *ep
	if host != "" {
		out.Host = host
	}
	if port != 0 {
		out.Port = port
	}
	return &out
}
