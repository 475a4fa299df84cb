package messages

import (
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/google/uuid"
)

// Election and gossip kinds
const (
	KindElectionsDone    Kind = "elections.done"
	KindStartElections   Kind = "elections.start"
	KindGossipUpdated    Kind = "gossip.updated"
	KindDiscoveryTimeout Kind = "discovery.timeout"
	KindLeaderFound      Kind = "discovery.leader-found"
)

// ElectionsDone announces the outcome of a completed election round
type ElectionsDone struct {
	Leader         mesh.MemberInfo
	ProposalNumber int
}

func (ElectionsDone) Kind() Kind { return KindElectionsDone }

// StartElections asks the elections service to run a new round
type StartElections struct{}

func (StartElections) Kind() Kind { return KindStartElections }

// GossipUpdated delivers a fresh cluster membership view
type GossipUpdated struct {
	View mesh.View
}

func (GossipUpdated) Kind() Kind { return KindGossipUpdated }

// DiscoveryTimeout bounds the leader discovery phase
type DiscoveryTimeout struct {
	CorrelationID uuid.UUID
}

func (DiscoveryTimeout) Kind() Kind { return KindDiscoveryTimeout }

// LeaderFound reports discovery located an existing leader
type LeaderFound struct {
	Leader mesh.MemberInfo
}

func (LeaderFound) Kind() Kind { return KindLeaderFound }
