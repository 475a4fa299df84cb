package messages

import (
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/google/uuid"
)

// Replication kinds
const (
	KindSubscribeToLeader          Kind = "replication.subscribe-to-leader"
	KindReconnectToLeader          Kind = "replication.reconnect-to-leader"
	KindLeaderConnectionFailed     Kind = "replication.leader-connection-failed"
	KindReplicaSubscriptionRetry   Kind = "replication.subscription-retry"
	KindReplicaSubscribed          Kind = "replication.replica-subscribed"
	KindFollowerAssignment         Kind = "replication.follower-assignment"
	KindCloneAssignment            Kind = "replication.clone-assignment"
	KindDropSubscription           Kind = "replication.drop-subscription"
	KindCreateChunk                Kind = "replication.create-chunk"
	KindRawChunkBulk               Kind = "replication.raw-chunk-bulk"
	KindDataChunkBulk              Kind = "replication.data-chunk-bulk"
	KindAckLogPosition             Kind = "replication.ack-log-position"
	KindReplicaSubscriptionRequest Kind = "replication.subscription-request"
	KindReplicaLogPositionAck      Kind = "replication.replica-log-position-ack"
	KindVNodeConnectionLost        Kind = "replication.vnode-connection-lost"
)

// SubscribeToLeader (re)enters the replica subscription handshake.
// StateCorrelationID guards against superseded attempts; a fresh
// SubscriptionID is minted by the sender for each attempt.
type SubscribeToLeader struct {
	StateCorrelationID uuid.UUID
	SubscriptionID     uuid.UUID
}

func (SubscribeToLeader) Kind() Kind { return KindSubscribeToLeader }

// ReconnectToLeader retries the leader connection after a drop
type ReconnectToLeader struct {
	ConnectionCorrelationID uuid.UUID
}

func (ReconnectToLeader) Kind() Kind { return KindReconnectToLeader }

// LeaderConnectionFailed reports the leader connection could not be
// established.
type LeaderConnectionFailed struct {
	ConnectionCorrelationID uuid.UUID
}

func (LeaderConnectionFailed) Kind() Kind { return KindLeaderConnectionFailed }

// ReplicaSubscriptionRetry asks for a new subscription attempt after a
// delay.
type ReplicaSubscriptionRetry struct {
	SubscriptionID uuid.UUID
	LeaderID       uuid.UUID
}

func (ReplicaSubscriptionRetry) Kind() Kind { return KindReplicaSubscriptionRetry }

// ReplicaSubscribed confirms the leader accepted our subscription
type ReplicaSubscribed struct {
	SubscriptionID uuid.UUID
	LeaderID       uuid.UUID
	LogPosition    int64
}

func (ReplicaSubscribed) Kind() Kind { return KindReplicaSubscribed }

// FollowerAssignment promotes a catching-up replica to follower
type FollowerAssignment struct {
	SubscriptionID uuid.UUID
	LeaderID       uuid.UUID
}

func (FollowerAssignment) Kind() Kind { return KindFollowerAssignment }

// CloneAssignment demotes a replica to clone
type CloneAssignment struct {
	SubscriptionID uuid.UUID
	LeaderID       uuid.UUID
}

func (CloneAssignment) Kind() Kind { return KindCloneAssignment }

// DropSubscription tells a clone the leader dropped it; the node shuts
// down and exits in response.
type DropSubscription struct {
	SubscriptionID uuid.UUID
	LeaderID       uuid.UUID
	Reason         string
}

func (DropSubscription) Kind() Kind { return KindDropSubscription }

// CreateChunk instructs the storage layer to open a new log chunk
type CreateChunk struct {
	SubscriptionID uuid.UUID
	ChunkStart     int64
	ChunkEnd       int64
}

func (CreateChunk) Kind() Kind { return KindCreateChunk }

// RawChunkBulk carries a raw chunk range during catch-up
type RawChunkBulk struct {
	SubscriptionID uuid.UUID
	ChunkStart     int64
	Offset         int64
	Data           []byte
	CompleteChunk  bool
}

func (RawChunkBulk) Kind() Kind { return KindRawChunkBulk }

// DataChunkBulk carries decoded log records during replication
type DataChunkBulk struct {
	SubscriptionID  uuid.UUID
	SubscriptionPos int64
	Data            []byte
}

func (DataChunkBulk) Kind() Kind { return KindDataChunkBulk }

// AckLogPosition acknowledges the replica persisted up to a position
type AckLogPosition struct {
	SubscriptionID uuid.UUID
	LogPosition    int64
}

func (AckLogPosition) Kind() Kind { return KindAckLogPosition }

// ReplicaSubscriptionRequest is a replica's subscription attempt seen
// on the leader side.
type ReplicaSubscriptionRequest struct {
	CorrelationID   uuid.UUID
	SubscriptionID  uuid.UUID
	ReplicaEndpoint mesh.Endpoint
	LogPosition     int64
}

func (ReplicaSubscriptionRequest) Kind() Kind { return KindReplicaSubscriptionRequest }

// ReplicaLogPositionAck is a replica's position ack seen on the leader
// side.
type ReplicaLogPositionAck struct {
	SubscriptionID uuid.UUID
	LogPosition    int64
}

func (ReplicaLogPositionAck) Kind() Kind { return KindReplicaLogPositionAck }

// VNodeConnectionLost reports a dropped internal connection to a peer
type VNodeConnectionLost struct {
	Endpoint mesh.Endpoint
}

func (VNodeConnectionLost) Kind() Kind { return KindVNodeConnectionLost }
