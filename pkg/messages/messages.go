package messages

import (
	"time"

	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/google/uuid"
)

// Kind identifies a message family member on the bus
type Kind string

// Message is anything that travels on the main queue or output bus
type Message interface {
	Kind() Kind
}

// StateChangeMessage marks the messages that move the node between
// roles. The dispatcher treats an unmapped state change in the current
// role as fatal; every other unmapped kind takes the role's default
// action (forward, or drop in Shutdown).
type StateChangeMessage interface {
	Message
	isStateChange()
}

// stateChange is embedded by every Become* message
type stateChange struct{}

func (stateChange) isStateChange() {}

// IsStateChange reports whether m is a role transition message
func IsStateChange(m Message) bool {
	_, ok := m.(StateChangeMessage)
	return ok
}

// Envelope is the reply channel attached to a client request
type Envelope interface {
	ReplyWith(Message)
}

// Principal identifies the user a client request runs as
type Principal struct {
	Name     string
	IsSystem bool
}

// ClientInfo carries the fields shared by every client request
type ClientInfo struct {
	CorrelationID uuid.UUID
	Envelope      Envelope
	RequireLeader bool
	User          Principal
}

// Client returns the shared client request fields
func (c ClientInfo) Client() ClientInfo { return c }

// ClientMessage is a request originating from a client connection
type ClientMessage interface {
	Message
	Client() ClientInfo
}

// ReadRequest is a client read; admission may serve it off-leader
type ReadRequest interface {
	ClientMessage
	isRead()
}

// WriteRequest is a client write; admission either handles it on the
// leader or forwards it there, and must be able to synthesize the
// request-specific forward-timeout completion.
type WriteRequest interface {
	ClientMessage
	ForwardTimeoutReply() Message
}

type readRequest struct{}

func (readRequest) isRead() {}

// NotHandledReason says why a client request was denied
type NotHandledReason string

const (
	NotReady   NotHandledReason = "NotReady"
	NotLeader  NotHandledReason = "NotLeader"
	IsReadOnly NotHandledReason = "IsReadOnly"
)

// LeaderInfo is the advertised endpoint set returned with NotLeader
// and IsReadOnly denials so clients can redirect.
type LeaderInfo struct {
	TCPEndpoint  *mesh.Endpoint
	IsTCPSecure  bool
	HTTPEndpoint mesh.Endpoint
}

const KindNotHandled Kind = "client.not-handled"

// NotHandled is the deny reply for client requests
type NotHandled struct {
	CorrelationID uuid.UUID
	Reason        NotHandledReason
	LeaderInfo    *LeaderInfo
}

func (NotHandled) Kind() Kind { return KindNotHandled }

const KindTcpForward Kind = "forwarding.tcp-forward"

// TcpForwardMessage asks the forwarding transport to relay a write to
// the current leader.
type TcpForwardMessage struct {
	Message Message
	Timeout time.Duration
}

func (TcpForwardMessage) Kind() Kind { return KindTcpForward }
