package messages

import (
	"time"

	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/google/uuid"
)

// Role transition kinds
const (
	KindBecomeUnknown            Kind = "state.become-unknown"
	KindBecomeDiscoverLeader     Kind = "state.become-discover-leader"
	KindBecomePreLeader          Kind = "state.become-pre-leader"
	KindBecomeLeader             Kind = "state.become-leader"
	KindBecomeResigningLeader    Kind = "state.become-resigning-leader"
	KindBecomePreReplica         Kind = "state.become-pre-replica"
	KindBecomeCatchingUp         Kind = "state.become-catching-up"
	KindBecomeClone              Kind = "state.become-clone"
	KindBecomeFollower           Kind = "state.become-follower"
	KindBecomeReadOnlyLeaderless Kind = "state.become-read-only-leaderless"
	KindBecomePreReadOnlyReplica Kind = "state.become-pre-read-only-replica"
	KindBecomeReadOnlyReplica    Kind = "state.become-read-only-replica"
	KindBecomeShuttingDown       Kind = "state.become-shutting-down"
	KindBecomeShutdown           Kind = "state.become-shutdown"

	KindInitiateLeaderResignation Kind = "state.initiate-leader-resignation"
	KindRequestQueueDrained       Kind = "state.request-queue-drained"
	KindWaitForChaserToCatchUp    Kind = "state.wait-for-chaser-to-catch-up"
	KindChaserCaughtUp            Kind = "state.chaser-caught-up"
	KindNoQuorum                  Kind = "state.no-quorum"
	KindWriteEpoch                Kind = "state.write-epoch"
)

// BecomeUnknown drops any believed leader and waits for elections
type BecomeUnknown struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeUnknown) Kind() Kind { return KindBecomeUnknown }

// BecomeDiscoverLeader enters the gossip-driven leader discovery phase
type BecomeDiscoverLeader struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeDiscoverLeader) Kind() Kind { return KindBecomeDiscoverLeader }

// BecomePreLeader stages leadership until the chaser catches up
type BecomePreLeader struct {
	stateChange
	CorrelationID uuid.UUID
	Leader        mesh.MemberInfo
}

func (BecomePreLeader) Kind() Kind { return KindBecomePreLeader }

// BecomeLeader completes the transition to leader
type BecomeLeader struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeLeader) Kind() Kind { return KindBecomeLeader }

// BecomeResigningLeader starts the resignation drain; reads still
// flow, writes are denied until the request queue drains.
type BecomeResigningLeader struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeResigningLeader) Kind() Kind { return KindBecomeResigningLeader }

// BecomePreReplica stages replication to the given leader until the
// chaser catches up.
type BecomePreReplica struct {
	stateChange
	CorrelationID uuid.UUID
	Leader        mesh.MemberInfo
}

func (BecomePreReplica) Kind() Kind { return KindBecomePreReplica }

// BecomeCatchingUp follows a successful replica subscription
type BecomeCatchingUp struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeCatchingUp) Kind() Kind { return KindBecomeCatchingUp }

// BecomeClone marks this replica as a clone per leader assignment
type BecomeClone struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeClone) Kind() Kind { return KindBecomeClone }

// BecomeFollower marks this replica as a follower per leader assignment
type BecomeFollower struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeFollower) Kind() Kind { return KindBecomeFollower }

// BecomeReadOnlyLeaderless parks a read-only replica without a leader
type BecomeReadOnlyLeaderless struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeReadOnlyLeaderless) Kind() Kind { return KindBecomeReadOnlyLeaderless }

// BecomePreReadOnlyReplica stages a read-only replica to the given leader
type BecomePreReadOnlyReplica struct {
	stateChange
	CorrelationID uuid.UUID
	Leader        mesh.MemberInfo
}

func (BecomePreReadOnlyReplica) Kind() Kind { return KindBecomePreReadOnlyReplica }

// BecomeReadOnlyReplica completes the read-only replica transition
type BecomeReadOnlyReplica struct {
	stateChange
	CorrelationID uuid.UUID
}

func (BecomeReadOnlyReplica) Kind() Kind { return KindBecomeReadOnlyReplica }

// BecomeShuttingDown starts the bounded shutdown window. It is a
// no-op when the node is already shutting down or shut down.
type BecomeShuttingDown struct {
	stateChange
	ExitProcess  bool
	ShutdownHTTP bool
}

func (BecomeShuttingDown) Kind() Kind { return KindBecomeShuttingDown }

// BecomeShutdown is the terminal transition
type BecomeShutdown struct {
	stateChange
}

func (BecomeShutdown) Kind() Kind { return KindBecomeShutdown }

// InitiateLeaderResignation asks the leader to begin resigning
type InitiateLeaderResignation struct{}

func (InitiateLeaderResignation) Kind() Kind { return KindInitiateLeaderResignation }

// RequestQueueDrained reports the resignation drain has finished
type RequestQueueDrained struct{}

func (RequestQueueDrained) Kind() Kind { return KindRequestQueueDrained }

// WaitForChaserToCatchUp asks the chaser to report once it has caught
// up with the writer's log. TotalTimeWasted is the time already spent
// waiting; the controller always sends zero.
type WaitForChaserToCatchUp struct {
	CorrelationID   uuid.UUID
	TotalTimeWasted time.Duration
}

func (WaitForChaserToCatchUp) Kind() Kind { return KindWaitForChaserToCatchUp }

// ChaserCaughtUp is the chaser's catch-up acknowledgement
type ChaserCaughtUp struct {
	CorrelationID uuid.UUID
}

func (ChaserCaughtUp) Kind() Kind { return KindChaserCaughtUp }

// NoQuorumMessage reports the leader (or leader candidate) lost quorum
type NoQuorumMessage struct{}

func (NoQuorumMessage) Kind() Kind { return KindNoQuorum }

// WriteEpoch asks the storage writer to record a new epoch
type WriteEpoch struct {
	ProposalNumber int
}

func (WriteEpoch) Kind() Kind { return KindWriteEpoch }
