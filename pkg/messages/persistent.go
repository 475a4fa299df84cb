package messages

import (
	"github.com/google/uuid"
)

// Persistent subscription management kinds. These are leader-bound and
// admitted like writes.
const (
	KindCreatePersistentSubscriptionToStream    Kind = "client.create-psub-to-stream"
	KindUpdatePersistentSubscriptionToStream    Kind = "client.update-psub-to-stream"
	KindDeletePersistentSubscriptionToStream    Kind = "client.delete-psub-to-stream"
	KindConnectToPersistentSubscriptionToStream Kind = "client.connect-psub-to-stream"
	KindCreatePersistentSubscriptionToAll       Kind = "client.create-psub-to-all"
	KindUpdatePersistentSubscriptionToAll       Kind = "client.update-psub-to-all"
	KindDeletePersistentSubscriptionToAll       Kind = "client.delete-psub-to-all"
	KindConnectToPersistentSubscriptionToAll    Kind = "client.connect-psub-to-all"

	KindCreatePersistentSubscriptionToStreamCompleted    Kind = "client.create-psub-to-stream-completed"
	KindUpdatePersistentSubscriptionToStreamCompleted    Kind = "client.update-psub-to-stream-completed"
	KindDeletePersistentSubscriptionToStreamCompleted    Kind = "client.delete-psub-to-stream-completed"
	KindConnectToPersistentSubscriptionToStreamCompleted Kind = "client.connect-psub-to-stream-completed"
	KindCreatePersistentSubscriptionToAllCompleted       Kind = "client.create-psub-to-all-completed"
	KindUpdatePersistentSubscriptionToAllCompleted       Kind = "client.update-psub-to-all-completed"
	KindDeletePersistentSubscriptionToAllCompleted       Kind = "client.delete-psub-to-all-completed"
	KindConnectToPersistentSubscriptionToAllCompleted    Kind = "client.connect-psub-to-all-completed"
)

// SubscriptionCompleted carries the shared completion fields for
// persistent subscription operations.
type SubscriptionCompleted struct {
	CorrelationID uuid.UUID
	Result        OperationResult
	Reason        string
}

// CreatePersistentSubscriptionToStream creates a competing-consumer
// group on a stream.
type CreatePersistentSubscriptionToStream struct {
	ClientInfo
	Stream string
	Group  string
}

func (CreatePersistentSubscriptionToStream) Kind() Kind {
	return KindCreatePersistentSubscriptionToStream
}

func (m CreatePersistentSubscriptionToStream) ForwardTimeoutReply() Message {
	return CreatePersistentSubscriptionToStreamCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type CreatePersistentSubscriptionToStreamCompleted struct{ SubscriptionCompleted }

func (CreatePersistentSubscriptionToStreamCompleted) Kind() Kind {
	return KindCreatePersistentSubscriptionToStreamCompleted
}

// UpdatePersistentSubscriptionToStream updates a group's settings
type UpdatePersistentSubscriptionToStream struct {
	ClientInfo
	Stream string
	Group  string
}

func (UpdatePersistentSubscriptionToStream) Kind() Kind {
	return KindUpdatePersistentSubscriptionToStream
}

func (m UpdatePersistentSubscriptionToStream) ForwardTimeoutReply() Message {
	return UpdatePersistentSubscriptionToStreamCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type UpdatePersistentSubscriptionToStreamCompleted struct{ SubscriptionCompleted }

func (UpdatePersistentSubscriptionToStreamCompleted) Kind() Kind {
	return KindUpdatePersistentSubscriptionToStreamCompleted
}

// DeletePersistentSubscriptionToStream deletes a group
type DeletePersistentSubscriptionToStream struct {
	ClientInfo
	Stream string
	Group  string
}

func (DeletePersistentSubscriptionToStream) Kind() Kind {
	return KindDeletePersistentSubscriptionToStream
}

func (m DeletePersistentSubscriptionToStream) ForwardTimeoutReply() Message {
	return DeletePersistentSubscriptionToStreamCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type DeletePersistentSubscriptionToStreamCompleted struct{ SubscriptionCompleted }

func (DeletePersistentSubscriptionToStreamCompleted) Kind() Kind {
	return KindDeletePersistentSubscriptionToStreamCompleted
}

// ConnectToPersistentSubscriptionToStream attaches a consumer to a group
type ConnectToPersistentSubscriptionToStream struct {
	ClientInfo
	Stream     string
	Group      string
	BufferSize int
}

func (ConnectToPersistentSubscriptionToStream) Kind() Kind {
	return KindConnectToPersistentSubscriptionToStream
}

func (m ConnectToPersistentSubscriptionToStream) ForwardTimeoutReply() Message {
	return ConnectToPersistentSubscriptionToStreamCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type ConnectToPersistentSubscriptionToStreamCompleted struct{ SubscriptionCompleted }

func (ConnectToPersistentSubscriptionToStreamCompleted) Kind() Kind {
	return KindConnectToPersistentSubscriptionToStreamCompleted
}

// CreatePersistentSubscriptionToAll creates a group over the whole log
type CreatePersistentSubscriptionToAll struct {
	ClientInfo
	Group  string
	Filter string
}

func (CreatePersistentSubscriptionToAll) Kind() Kind { return KindCreatePersistentSubscriptionToAll }

func (m CreatePersistentSubscriptionToAll) ForwardTimeoutReply() Message {
	return CreatePersistentSubscriptionToAllCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type CreatePersistentSubscriptionToAllCompleted struct{ SubscriptionCompleted }

func (CreatePersistentSubscriptionToAllCompleted) Kind() Kind {
	return KindCreatePersistentSubscriptionToAllCompleted
}

// UpdatePersistentSubscriptionToAll updates an all-stream group
type UpdatePersistentSubscriptionToAll struct {
	ClientInfo
	Group string
}

func (UpdatePersistentSubscriptionToAll) Kind() Kind { return KindUpdatePersistentSubscriptionToAll }

func (m UpdatePersistentSubscriptionToAll) ForwardTimeoutReply() Message {
	return UpdatePersistentSubscriptionToAllCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type UpdatePersistentSubscriptionToAllCompleted struct{ SubscriptionCompleted }

func (UpdatePersistentSubscriptionToAllCompleted) Kind() Kind {
	return KindUpdatePersistentSubscriptionToAllCompleted
}

// DeletePersistentSubscriptionToAll deletes an all-stream group
type DeletePersistentSubscriptionToAll struct {
	ClientInfo
	Group string
}

func (DeletePersistentSubscriptionToAll) Kind() Kind { return KindDeletePersistentSubscriptionToAll }

func (m DeletePersistentSubscriptionToAll) ForwardTimeoutReply() Message {
	return DeletePersistentSubscriptionToAllCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type DeletePersistentSubscriptionToAllCompleted struct{ SubscriptionCompleted }

func (DeletePersistentSubscriptionToAllCompleted) Kind() Kind {
	return KindDeletePersistentSubscriptionToAllCompleted
}

// ConnectToPersistentSubscriptionToAll attaches a consumer to an
// all-stream group.
type ConnectToPersistentSubscriptionToAll struct {
	ClientInfo
	Group      string
	BufferSize int
}

func (ConnectToPersistentSubscriptionToAll) Kind() Kind {
	return KindConnectToPersistentSubscriptionToAll
}

func (m ConnectToPersistentSubscriptionToAll) ForwardTimeoutReply() Message {
	return ConnectToPersistentSubscriptionToAllCompleted{SubscriptionCompleted{m.CorrelationID, OperationForwardTimeout, "Forwarding timeout"}}
}

type ConnectToPersistentSubscriptionToAllCompleted struct{ SubscriptionCompleted }

func (ConnectToPersistentSubscriptionToAllCompleted) Kind() Kind {
	return KindConnectToPersistentSubscriptionToAllCompleted
}
