package controller

import (
	"sync/atomic"
	"time"

	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Core service counts. Inits are acknowledged by the storage chaser,
// writer and reader; shutdown acks additionally come from the index
// committer, the HTTP service and, on clustered nodes, replication.
const (
	coreServiceInits       = 3
	shutdownAcksClustered  = 6
	shutdownAcksSingleNode = 5
)

// Timeouts are the controller's internal transition timeouts
type Timeouts struct {
	LeaderDiscovery         time.Duration
	LeaderReconnectionDelay time.Duration
	SubscriptionRetryDelay  time.Duration
	SubscriptionWatchdog    time.Duration
	Shutdown                time.Duration
	Prepare                 time.Duration
	Commit                  time.Duration
}

// DefaultTimeouts returns the stock timeout set
func DefaultTimeouts() Timeouts {
	return Timeouts{
		LeaderDiscovery:         3000 * time.Millisecond,
		LeaderReconnectionDelay: 500 * time.Millisecond,
		SubscriptionRetryDelay:  500 * time.Millisecond,
		SubscriptionWatchdog:    1000 * time.Millisecond,
		Shutdown:                5000 * time.Millisecond,
		Prepare:                 2000 * time.Millisecond,
		Commit:                  2000 * time.Millisecond,
	}
}

// forwardGrace pads the proxy timeout past prepare+commit
const forwardGrace = 300 * time.Millisecond

// MainQueue is the controller's publish-only view of its own queue
type MainQueue interface {
	Publish(messages.Message)
	RequestStop()
}

// Scheduler posts a message back to the main queue after a delay
type Scheduler interface {
	Schedule(time.Duration, messages.Message)
}

// ForwardingProxy remembers a pending client forward and replies with
// the given timeout message if no response arrives in time.
type ForwardingProxy interface {
	Register(internalID, externalID uuid.UUID, envelope messages.Envelope, timeout time.Duration, timeoutReply messages.Message)
}

// LogDatabase is the log store the controller closes during shutdown
type LogDatabase interface {
	Close() error
}

// WorkerHandler owns the worker goroutines stopped on BecomeShutdown
type WorkerHandler interface {
	Stop()
}

// Exiter terminates the process. Injected so tests can observe fatal
// paths and shutdown-with-exit.
type Exiter interface {
	Exit(code int)
}

// Status is a read-only snapshot served to the ops API
type Status struct {
	NodeID string
	Role   string
	Leader string
	Ready  bool
}

// Config assembles a Controller
type Config struct {
	Node           mesh.NodeInfo
	ClusterSize    int
	SubsystemCount int
	Timeouts       Timeouts
	MainQueue      MainQueue
	OutputBus      interface{ Publish(messages.Message) }
	Scheduler      Scheduler
	Proxy          ForwardingProxy
	DB             LogDatabase
	Workers        WorkerHandler
	Exiter         Exiter
}

// Controller is the node's role state machine. It is the single
// consumer of the main queue; all state below is owned by the consumer
// goroutine. subsystemInits is atomic because subsystems post their
// acks from their own goroutines.
type Controller struct {
	node        mesh.NodeInfo
	clusterSize int
	timeouts    Timeouts

	mainQueue MainQueue
	outputBus interface{ Publish(messages.Message) }
	scheduler Scheduler
	proxy     ForwardingProxy
	db        LogDatabase
	workers   WorkerHandler
	exiter    Exiter

	state state

	subsystemInits atomic.Int32
	readyPublished atomic.Bool
	coreReady      bool

	shutdownInitiated bool

	table  *dispatchTable
	logger zerolog.Logger
	status atomic.Pointer[Status]
}

// New creates a controller in the Initializing role
func New(cfg Config) *Controller {
	shutdownAcks := shutdownAcksClustered
	if cfg.ClusterSize <= 1 {
		shutdownAcks = shutdownAcksSingleNode
	}

	c := &Controller{
		node:        cfg.Node,
		clusterSize: cfg.ClusterSize,
		timeouts:    cfg.Timeouts,
		mainQueue:   cfg.MainQueue,
		outputBus:   cfg.OutputBus,
		scheduler:   cfg.Scheduler,
		proxy:       cfg.Proxy,
		db:          cfg.DB,
		workers:     cfg.Workers,
		exiter:      cfg.Exiter,
		state: state{
			role:                          RoleInitializing,
			stateCorrelationID:            uuid.New(),
			leaderConnectionCorrelationID: uuid.New(),
			serviceInitsToExpect:          coreServiceInits,
			serviceShutdownsToExpect:      shutdownAcks,
		},
		logger: log.WithComponent("controller"),
	}
	c.subsystemInits.Store(int32(cfg.SubsystemCount))
	c.table = c.buildTable()
	c.publishStatus()
	metrics.SetNodeRole(c.state.role.String(), roleNames[:])
	return c
}

// Handle processes one inbound message. It is only ever invoked by the
// main queue's consumer goroutine; no message is processed
// concurrently with another.
func (c *Controller) Handle(msg messages.Message) {
	kind := msg.Kind()
	metrics.InboundMessagesTotal.WithLabelValues(string(kind)).Inc()

	act, explicit := c.table.resolve(c.state.role, kind)
	if !explicit && messages.IsStateChange(msg) {
		c.fatal("state change message has no handler in current role", func(e *zerolog.Event) {
			e.Str("kind", string(kind)).Str("role", c.state.role.String())
		})
		return
	}

	switch act.typ {
	case actionHandle:
		act.fn(msg)
	case actionForward:
		c.outputBus.Publish(msg)
	case actionIgnore:
	}

	c.publishStatus()
}

// Status returns the latest post-message snapshot
func (c *Controller) Status() Status {
	return *c.status.Load()
}

func (c *Controller) publishStatus() {
	s := Status{
		NodeID: c.node.InstanceID.String(),
		Role:   c.state.role.String(),
		Ready:  c.readyPublished.Load(),
	}
	if c.state.leader != nil {
		s.Leader = c.state.leader.InstanceID.String()
	}
	c.status.Store(&s)
}

// fatal logs an invariant violation and terminates the process
func (c *Controller) fatal(msg string, fields func(*zerolog.Event)) {
	e := c.logger.WithLevel(zerolog.FatalLevel)
	if fields != nil {
		fields(e)
	}
	e.Msg(msg)
	c.exiter.Exit(1)
}

// transitionTo performs the shared tail of every become-X handler:
// validate the target role's leader precondition, assign, and record
// the transition.
func (c *Controller) transitionTo(role Role, leader *mesh.MemberInfo) {
	if role.requiresLeader() && leader == nil {
		c.fatal("role requires a known leader", func(e *zerolog.Event) {
			e.Str("target_role", role.String()).Str("role", c.state.role.String())
		})
		return
	}
	if role.forbidsLeader() {
		leader = nil
	}

	from := c.state.role
	c.state.role = role
	c.state.leader = leader

	metrics.RoleTransitionsTotal.WithLabelValues(from.String(), role.String()).Inc()
	metrics.SetNodeRole(role.String(), roleNames[:])

	e := c.logger.Info().Str("from", from.String()).Str("to", role.String())
	if leader != nil {
		e = e.Str("leader", leader.InstanceID.String())
	}
	e.Msg("role changed")
}

// rotateStateIDs mints fresh correlation ids for a new leader/epoch
// attempt. Outstanding timers and chasers holding the old ids no-op on
// delivery.
func (c *Controller) rotateStateIDs() {
	c.state.stateCorrelationID = uuid.New()
	c.state.leaderConnectionCorrelationID = uuid.New()
	c.state.subscriptionID = uuid.New()
}

// stateChangeKinds lists every role transition kind; used to close the
// dispatcher over state changes in the shutdown roles.
var stateChangeKinds = []messages.Kind{
	messages.KindBecomeUnknown,
	messages.KindBecomeDiscoverLeader,
	messages.KindBecomePreLeader,
	messages.KindBecomeLeader,
	messages.KindBecomeResigningLeader,
	messages.KindBecomePreReplica,
	messages.KindBecomeCatchingUp,
	messages.KindBecomeClone,
	messages.KindBecomeFollower,
	messages.KindBecomeReadOnlyLeaderless,
	messages.KindBecomePreReadOnlyReplica,
	messages.KindBecomeReadOnlyReplica,
	messages.KindBecomeShuttingDown,
	messages.KindBecomeShutdown,
}

// clientKinds lists every client request kind admitted by the
// admission component.
var clientKinds = []messages.Kind{
	messages.KindReadEvent,
	messages.KindReadStreamEventsForward,
	messages.KindReadStreamEventsBackward,
	messages.KindReadAllEventsForward,
	messages.KindReadAllEventsBackward,
	messages.KindFilteredReadAllEventsForward,
	messages.KindFilteredReadAllEventsBackward,
	messages.KindWriteEvents,
	messages.KindTransactionStart,
	messages.KindTransactionWrite,
	messages.KindTransactionCommit,
	messages.KindDeleteStream,
	messages.KindCreatePersistentSubscriptionToStream,
	messages.KindUpdatePersistentSubscriptionToStream,
	messages.KindDeletePersistentSubscriptionToStream,
	messages.KindConnectToPersistentSubscriptionToStream,
	messages.KindCreatePersistentSubscriptionToAll,
	messages.KindUpdatePersistentSubscriptionToAll,
	messages.KindDeletePersistentSubscriptionToAll,
	messages.KindConnectToPersistentSubscriptionToAll,
}

// replicationDataKinds are the replication payload kinds dropped once
// shutdown begins.
var replicationDataKinds = []messages.Kind{
	messages.KindCreateChunk,
	messages.KindRawChunkBulk,
	messages.KindDataChunkBulk,
	messages.KindAckLogPosition,
	messages.KindReplicaSubscriptionRequest,
	messages.KindReplicaLogPositionAck,
}

// buildTable wires the (role, kind) routing. Layering: per-role rules
// beat role-set rules beat any-role rules; unclaimed kinds forward to
// the output bus except in Shutdown, where they are dropped.
func (c *Controller) buildTable() *dispatchTable {
	t := newDispatchTable()

	electionRoles := []Role{
		RoleUnknown, RolePreReplica, RoleCatchingUp, RoleClone,
		RoleFollower, RolePreLeader, RoleLeader, RoleResigningLeader,
	}

	// Any-role baseline: lifecycle plumbing, client admission, and
	// drop-by-default for timer and handshake kinds whose handling
	// roles are declared below.
	base := t.inAnyRole().
		handle(messages.KindServiceInitialized, c.onServiceInitialized).
		handle(messages.KindAuthProviderInitialized, c.onAuthProviderInitialized).
		handle(messages.KindAuthProviderInitializationFailed, c.onAuthProviderInitializationFailed).
		handle(messages.KindSystemCoreReady, c.onSystemCoreReady).
		handle(messages.KindSubSystemInitialized, c.onSubSystemInitialized).
		handle(messages.KindRequestShutdown, c.onRequestShutdown).
		handle(messages.KindBecomeShuttingDown, c.onBecomeShuttingDown).
		ignore(messages.KindChaserCaughtUp).
		ignore(messages.KindDiscoveryTimeout).
		ignore(messages.KindShutdownTimeout).
		ignore(messages.KindInitiateLeaderResignation).
		ignore(messages.KindRequestQueueDrained).
		ignore(messages.KindWriteEpoch).
		ignore(messages.KindNoQuorum).
		ignore(messages.KindSubscribeToLeader).
		ignore(messages.KindReconnectToLeader).
		ignore(messages.KindLeaderConnectionFailed).
		ignore(messages.KindReplicaSubscriptionRetry).
		ignore(messages.KindReplicaSubscribed).
		ignore(messages.KindFollowerAssignment).
		ignore(messages.KindCloneAssignment).
		ignore(messages.KindDropSubscription).
		ignore(messages.KindVNodeConnectionLost)
	for _, k := range clientKinds {
		base.handle(k, c.admitClient)
	}

	// Startup
	t.inRole(RoleInitializing).
		handle(messages.KindSystemInit, c.onSystemInit).
		handle(messages.KindSystemStart, c.onSystemStart)

	// Role transitions, mapped exactly where they can legally arrive.
	// A state change reaching any other role is a construction bug and
	// aborts the process.
	t.inRoles(RoleInitializing, RoleDiscoverLeader, RoleUnknown, RolePreLeader, RoleLeader, RoleResigningLeader).
		handle(messages.KindBecomeUnknown, c.onBecomeUnknown)
	t.inRoles(RoleInitializing).
		handle(messages.KindBecomeDiscoverLeader, c.onBecomeDiscoverLeader).
		handle(messages.KindBecomeReadOnlyLeaderless, c.onBecomeReadOnlyLeaderless)
	t.inRoles(electionRoles...).
		handle(messages.KindElectionsDone, c.onElectionsDone).
		handle(messages.KindBecomePreLeader, c.onBecomePreLeader).
		handle(messages.KindBecomePreReplica, c.onBecomePreReplica)
	t.inRoles(RoleDiscoverLeader).
		handle(messages.KindBecomePreReplica, c.onBecomePreReplica)
	t.inRoles(RolePreReplica).
		handle(messages.KindBecomeCatchingUp, c.onBecomeCatchingUp)
	t.inRoles(RoleCatchingUp, RoleFollower).
		handle(messages.KindBecomeClone, c.onBecomeClone)
	t.inRoles(RoleCatchingUp, RoleClone).
		handle(messages.KindBecomeFollower, c.onBecomeFollower)
	t.inRoles(RolePreLeader, RoleLeader).
		handle(messages.KindBecomeLeader, c.onBecomeLeader)
	t.inRoles(RoleLeader).
		handle(messages.KindBecomeResigningLeader, c.onBecomeResigningLeader)
	t.inRoles(RoleReadOnlyLeaderless, RolePreReadOnlyReplica, RoleReadOnlyReplica).
		handle(messages.KindBecomePreReadOnlyReplica, c.onBecomePreReadOnlyReplica).
		handle(messages.KindBecomeReadOnlyLeaderless, c.onBecomeReadOnlyLeaderless)
	t.inRoles(RolePreReadOnlyReplica).
		handle(messages.KindBecomeReadOnlyReplica, c.onBecomeReadOnlyReplica)

	// Pre-role staging
	t.inRole(RolePreLeader).
		handle(messages.KindChaserCaughtUp, c.onChaserCaughtUpAsPreLeader)
	t.inRole(RolePreReplica).
		handle(messages.KindChaserCaughtUp, c.onChaserCaughtUpAsPreReplica).
		handle(messages.KindSubscribeToLeader, c.onSubscribeToLeader).
		handle(messages.KindReconnectToLeader, c.onReconnectToLeader)
	t.inRole(RolePreReadOnlyReplica).
		handle(messages.KindChaserCaughtUp, c.onChaserCaughtUpAsPreReadOnlyReplica).
		handle(messages.KindSubscribeToLeader, c.onSubscribeToLeader).
		handle(messages.KindReconnectToLeader, c.onReconnectToLeader)

	// Replication handshake and connection upkeep
	t.inRoles(RolePreReplica, RolePreReadOnlyReplica).
		handle(messages.KindReplicaSubscriptionRetry, c.onReplicaSubscriptionRetry).
		handle(messages.KindReplicaSubscribed, c.onReplicaSubscribed)
	t.inRoles(RoleCatchingUp, RoleClone).
		handle(messages.KindFollowerAssignment, c.onFollowerAssignment)
	t.inRoles(RoleCatchingUp, RoleFollower).
		handle(messages.KindCloneAssignment, c.onCloneAssignment)
	t.inRole(RoleClone).
		handle(messages.KindDropSubscription, c.onDropSubscription)
	t.inRoles(RolePreReplica, RoleCatchingUp, RoleClone, RoleFollower,
		RolePreReadOnlyReplica, RoleReadOnlyReplica).
		handle(messages.KindVNodeConnectionLost, c.onVNodeConnectionLost).
		handle(messages.KindLeaderConnectionFailed, c.onLeaderConnectionFailed)

	// Gossip, per role family
	t.inRole(RoleLeader).
		handle(messages.KindGossipUpdated, c.onGossipAsLeader)
	t.inRoles(RolePreReplica, RoleCatchingUp, RoleClone, RoleFollower).
		handle(messages.KindGossipUpdated, c.onGossipAsReplica)
	t.inRoles(RolePreReadOnlyReplica, RoleReadOnlyReplica).
		handle(messages.KindGossipUpdated, c.onGossipAsReadOnly)
	t.inRole(RoleReadOnlyLeaderless).
		handle(messages.KindGossipUpdated, c.onGossipAsReadOnlyLeaderless)
	t.inRole(RoleDiscoverLeader).
		handle(messages.KindGossipUpdated, c.onGossipAsDiscoverLeader).
		handle(messages.KindDiscoveryTimeout, c.onDiscoveryTimeout)

	// Elections and resignation
	t.inRoles(RolePreLeader, RoleLeader).
		handle(messages.KindNoQuorum, c.onNoQuorum)
	t.inRole(RoleLeader).
		handle(messages.KindInitiateLeaderResignation, c.onInitiateLeaderResignation).
		forward(messages.KindWriteEpoch)
	t.inRole(RoleResigningLeader).
		handle(messages.KindRequestQueueDrained, c.onRequestQueueDrained)

	// Shutdown window
	shuttingDown := t.inRole(RoleShuttingDown)
	for _, k := range stateChangeKinds {
		shuttingDown.ignore(k)
	}
	for _, k := range replicationDataKinds {
		shuttingDown.ignore(k)
	}
	shuttingDown.
		handle(messages.KindServiceShutdown, c.onServiceShutdown).
		handle(messages.KindShutdownTimeout, c.onShutdownTimeout).
		handle(messages.KindBecomeShutdown, c.onBecomeShutdown)

	// Terminal role: nothing transitions, nothing forwards
	down := t.inRole(RoleShutdown).whenOther(actionIgnore)
	for _, k := range stateChangeKinds {
		down.ignore(k)
	}

	return t
}
