package messages

import (
	"github.com/google/uuid"
)

// Client request kinds
const (
	KindReadEvent                     Kind = "client.read-event"
	KindReadStreamEventsForward       Kind = "client.read-stream-events-forward"
	KindReadStreamEventsBackward      Kind = "client.read-stream-events-backward"
	KindReadAllEventsForward          Kind = "client.read-all-events-forward"
	KindReadAllEventsBackward         Kind = "client.read-all-events-backward"
	KindFilteredReadAllEventsForward  Kind = "client.filtered-read-all-events-forward"
	KindFilteredReadAllEventsBackward Kind = "client.filtered-read-all-events-backward"

	KindWriteEvents       Kind = "client.write-events"
	KindTransactionStart  Kind = "client.transaction-start"
	KindTransactionWrite  Kind = "client.transaction-write"
	KindTransactionCommit Kind = "client.transaction-commit"
	KindDeleteStream      Kind = "client.delete-stream"

	KindReadEventCompleted         Kind = "client.read-event-completed"
	KindReadStreamEventsCompleted  Kind = "client.read-stream-events-completed"
	KindWriteEventsCompleted       Kind = "client.write-events-completed"
	KindTransactionStartCompleted  Kind = "client.transaction-start-completed"
	KindTransactionWriteCompleted  Kind = "client.transaction-write-completed"
	KindTransactionCommitCompleted Kind = "client.transaction-commit-completed"
	KindDeleteStreamCompleted      Kind = "client.delete-stream-completed"
)

// OperationResult is the outcome of a write-class operation
type OperationResult int

const (
	OperationSuccess OperationResult = iota
	OperationPrepareTimeout
	OperationCommitTimeout
	OperationForwardTimeout
	OperationWrongExpectedVersion
	OperationStreamDeleted
	OperationAccessDenied
	OperationError
)

// ReadResult is the outcome of a read operation
type ReadResult int

const (
	ReadSuccess ReadResult = iota
	ReadNotFound
	ReadNoStream
	ReadError
)

// RecordedEvent is a stored event returned by a read
type RecordedEvent struct {
	Stream      string
	EventNumber int64
	EventID     uuid.UUID
	EventType   string
	IsJSON      bool
	Data        []byte
	Metadata    []byte
}

// ReadEventCompleted is the ReadEvent completion
type ReadEventCompleted struct {
	CorrelationID uuid.UUID
	Result        ReadResult
	Event         *RecordedEvent
}

func (ReadEventCompleted) Kind() Kind { return KindReadEventCompleted }

// ReadStreamEventsCompleted is the stream read completion
type ReadStreamEventsCompleted struct {
	CorrelationID uuid.UUID
	Result        ReadResult
	Events        []RecordedEvent
	NextNumber    int64
	EndOfStream   bool
}

func (ReadStreamEventsCompleted) Kind() Kind { return KindReadStreamEventsCompleted }

// NewEvent is a single event in a write request
type NewEvent struct {
	EventID   uuid.UUID
	EventType string
	IsJSON    bool
	Data      []byte
	Metadata  []byte
}

// ReadEvent reads a single event from a stream
type ReadEvent struct {
	ClientInfo
	readRequest
	Stream      string
	EventNumber int64
}

func (ReadEvent) Kind() Kind { return KindReadEvent }

// ReadStreamEventsForward pages a stream in log order
type ReadStreamEventsForward struct {
	ClientInfo
	readRequest
	Stream string
	From   int64
	Count  int
}

func (ReadStreamEventsForward) Kind() Kind { return KindReadStreamEventsForward }

// ReadStreamEventsBackward pages a stream in reverse log order
type ReadStreamEventsBackward struct {
	ClientInfo
	readRequest
	Stream string
	From   int64
	Count  int
}

func (ReadStreamEventsBackward) Kind() Kind { return KindReadStreamEventsBackward }

// ReadAllEventsForward pages the whole log in order
type ReadAllEventsForward struct {
	ClientInfo
	readRequest
	CommitPosition  int64
	PreparePosition int64
	Count           int
}

func (ReadAllEventsForward) Kind() Kind { return KindReadAllEventsForward }

// ReadAllEventsBackward pages the whole log in reverse order
type ReadAllEventsBackward struct {
	ClientInfo
	readRequest
	CommitPosition  int64
	PreparePosition int64
	Count           int
}

func (ReadAllEventsBackward) Kind() Kind { return KindReadAllEventsBackward }

// FilteredReadAllEventsForward pages the log in order through a filter
type FilteredReadAllEventsForward struct {
	ClientInfo
	readRequest
	CommitPosition  int64
	PreparePosition int64
	Count           int
	Filter          string
}

func (FilteredReadAllEventsForward) Kind() Kind { return KindFilteredReadAllEventsForward }

// FilteredReadAllEventsBackward pages the log in reverse order through
// a filter.
type FilteredReadAllEventsBackward struct {
	ClientInfo
	readRequest
	CommitPosition  int64
	PreparePosition int64
	Count           int
	Filter          string
}

func (FilteredReadAllEventsBackward) Kind() Kind { return KindFilteredReadAllEventsBackward }

// WriteEvents appends events to a stream
type WriteEvents struct {
	ClientInfo
	Stream          string
	ExpectedVersion int64
	Events          []NewEvent
}

func (WriteEvents) Kind() Kind { return KindWriteEvents }

func (m WriteEvents) ForwardTimeoutReply() Message {
	return WriteEventsCompleted{CorrelationID: m.CorrelationID, Result: OperationForwardTimeout, Message: "Forwarding timeout"}
}

// WriteEventsCompleted is the WriteEvents completion
type WriteEventsCompleted struct {
	CorrelationID    uuid.UUID
	Result           OperationResult
	Message          string
	FirstEventNumber int64
	LastEventNumber  int64
}

func (WriteEventsCompleted) Kind() Kind { return KindWriteEventsCompleted }

// TransactionStart opens an explicit transaction on a stream
type TransactionStart struct {
	ClientInfo
	Stream          string
	ExpectedVersion int64
}

func (TransactionStart) Kind() Kind { return KindTransactionStart }

func (m TransactionStart) ForwardTimeoutReply() Message {
	return TransactionStartCompleted{CorrelationID: m.CorrelationID, Result: OperationForwardTimeout, Message: "Forwarding timeout"}
}

// TransactionStartCompleted is the TransactionStart completion
type TransactionStartCompleted struct {
	CorrelationID uuid.UUID
	TransactionID int64
	Result        OperationResult
	Message       string
}

func (TransactionStartCompleted) Kind() Kind { return KindTransactionStartCompleted }

// TransactionWrite appends events to an open transaction
type TransactionWrite struct {
	ClientInfo
	TransactionID int64
	Events        []NewEvent
}

func (TransactionWrite) Kind() Kind { return KindTransactionWrite }

func (m TransactionWrite) ForwardTimeoutReply() Message {
	return TransactionWriteCompleted{CorrelationID: m.CorrelationID, Result: OperationForwardTimeout, Message: "Forwarding timeout"}
}

// TransactionWriteCompleted is the TransactionWrite completion
type TransactionWriteCompleted struct {
	CorrelationID uuid.UUID
	TransactionID int64
	Result        OperationResult
	Message       string
}

func (TransactionWriteCompleted) Kind() Kind { return KindTransactionWriteCompleted }

// TransactionCommit commits an open transaction
type TransactionCommit struct {
	ClientInfo
	TransactionID int64
}

func (TransactionCommit) Kind() Kind { return KindTransactionCommit }

func (m TransactionCommit) ForwardTimeoutReply() Message {
	return TransactionCommitCompleted{CorrelationID: m.CorrelationID, Result: OperationForwardTimeout, Message: "Forwarding timeout"}
}

// TransactionCommitCompleted is the TransactionCommit completion
type TransactionCommitCompleted struct {
	CorrelationID uuid.UUID
	TransactionID int64
	Result        OperationResult
	Message       string
}

func (TransactionCommitCompleted) Kind() Kind { return KindTransactionCommitCompleted }

// DeleteStream soft- or hard-deletes a stream
type DeleteStream struct {
	ClientInfo
	Stream          string
	ExpectedVersion int64
	HardDelete      bool
}

func (DeleteStream) Kind() Kind { return KindDeleteStream }

func (m DeleteStream) ForwardTimeoutReply() Message {
	return DeleteStreamCompleted{CorrelationID: m.CorrelationID, Result: OperationForwardTimeout, Message: "Forwarding timeout"}
}

// DeleteStreamCompleted is the DeleteStream completion
type DeleteStreamCompleted struct {
	CorrelationID uuid.UUID
	Result        OperationResult
	Message       string
}

func (DeleteStreamCompleted) Kind() Kind { return KindDeleteStreamCompleted }
