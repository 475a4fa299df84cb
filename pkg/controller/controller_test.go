package controller

import (
	"io"
	"testing"
	"time"

	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
}

// fakeQueue captures main-queue posts so tests can pump them manually
type fakeQueue struct {
	msgs    []messages.Message
	stopped bool
}

func (q *fakeQueue) Publish(m messages.Message) { q.msgs = append(q.msgs, m) }
func (q *fakeQueue) RequestStop()               { q.stopped = true }

// fakeBus captures output-bus publications
type fakeBus struct {
	msgs []messages.Message
}

func (b *fakeBus) Publish(m messages.Message) { b.msgs = append(b.msgs, m) }

func (b *fakeBus) kinds() []messages.Kind {
	kinds := make([]messages.Kind, len(b.msgs))
	for i, m := range b.msgs {
		kinds[i] = m.Kind()
	}
	return kinds
}

func (b *fakeBus) contains(kind messages.Kind) bool {
	for _, m := range b.msgs {
		if m.Kind() == kind {
			return true
		}
	}
	return false
}

type scheduled struct {
	delay time.Duration
	msg   messages.Message
}

type fakeScheduler struct {
	entries []scheduled
}

func (s *fakeScheduler) Schedule(d time.Duration, m messages.Message) {
	s.entries = append(s.entries, scheduled{delay: d, msg: m})
}

func (s *fakeScheduler) find(kind messages.Kind) (scheduled, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].msg.Kind() == kind {
			return s.entries[i], true
		}
	}
	return scheduled{}, false
}

type registration struct {
	internalID   uuid.UUID
	externalID   uuid.UUID
	envelope     messages.Envelope
	timeout      time.Duration
	timeoutReply messages.Message
}

type fakeProxy struct {
	registrations []registration
}

func (p *fakeProxy) Register(internalID, externalID uuid.UUID, envelope messages.Envelope, timeout time.Duration, timeoutReply messages.Message) {
	p.registrations = append(p.registrations, registration{internalID, externalID, envelope, timeout, timeoutReply})
}

type fakeDB struct {
	closed int
	err    error
}

func (db *fakeDB) Close() error {
	db.closed++
	return db.err
}

type fakeWorkers struct {
	stopped bool
}

func (w *fakeWorkers) Stop() { w.stopped = true }

type fakeExiter struct {
	codes []int
}

func (e *fakeExiter) Exit(code int) { e.codes = append(e.codes, code) }

type fakeEnvelope struct {
	replies []messages.Message
}

func (e *fakeEnvelope) ReplyWith(m messages.Message) { e.replies = append(e.replies, m) }

type fixture struct {
	c       *Controller
	queue   *fakeQueue
	out     *fakeBus
	sched   *fakeScheduler
	proxy   *fakeProxy
	db      *fakeDB
	workers *fakeWorkers
	exiter  *fakeExiter
	node    mesh.NodeInfo
}

func newFixture(t *testing.T, clusterSize int, readOnly bool) *fixture {
	t.Helper()

	f := &fixture{
		queue:   &fakeQueue{},
		out:     &fakeBus{},
		sched:   &fakeScheduler{},
		proxy:   &fakeProxy{},
		db:      &fakeDB{},
		workers: &fakeWorkers{},
		exiter:  &fakeExiter{},
	}
	f.node = mesh.NodeInfo{
		InstanceID:   uuid.New(),
		HTTPEndpoint: mesh.Endpoint{Host: "10.0.0.1", Port: 2113},
		ExternalTCP:  &mesh.Endpoint{Host: "10.0.0.1", Port: 1113},
		InternalTCP:  mesh.Endpoint{Host: "10.0.0.1", Port: 1112},
		ReadOnlyReplica: readOnly,
	}
	f.c = New(Config{
		Node:        f.node,
		ClusterSize: clusterSize,
		Timeouts:    DefaultTimeouts(),
		MainQueue:   f.queue,
		OutputBus:   f.out,
		Scheduler:   f.sched,
		Proxy:       f.proxy,
		DB:          f.db,
		Workers:     f.workers,
		Exiter:      f.exiter,
	})
	return f
}

// drain pumps queued self-posts through the controller until the
// queue is empty, mimicking the main queue's FIFO discipline.
func (f *fixture) drain() {
	for len(f.queue.msgs) > 0 {
		msg := f.queue.msgs[0]
		f.queue.msgs = f.queue.msgs[1:]
		f.c.Handle(msg)
	}
}

func (f *fixture) handleAndDrain(msg messages.Message) {
	f.c.Handle(msg)
	f.drain()
}

func (f *fixture) selfMember(role mesh.MemberRole) mesh.MemberInfo {
	return mesh.MemberInfo{
		InstanceID:   f.node.InstanceID,
		HTTPEndpoint: f.node.HTTPEndpoint,
		InternalTCP:  f.node.InternalTCP,
		IsAlive:      true,
		Role:         role,
	}
}

func peerMember(role mesh.MemberRole, alive bool) mesh.MemberInfo {
	return mesh.MemberInfo{
		InstanceID:   uuid.New(),
		HTTPEndpoint: mesh.Endpoint{Host: "10.0.0.2", Port: 2113},
		InternalTCP:  mesh.Endpoint{Host: "10.0.0.2", Port: 1112},
		ExternalTCP:  &mesh.Endpoint{Host: "10.0.0.2", Port: 1113},
		IsAlive:      alive,
		Role:         role,
	}
}

// startUp walks the fixture through SystemInit and the three core
// service acks, leaving SystemStart's consequences drained.
func (f *fixture) startUp(t *testing.T) {
	t.Helper()
	f.c.Handle(messages.SystemInit{})
	for _, svc := range []string{"chaser", "storage-writer", "storage-reader"} {
		f.c.Handle(messages.ServiceInitialized{Service: svc})
	}
	f.drain()
}

// electSelf drives the fixture from Unknown to Leader
func (f *fixture) electSelf(t *testing.T) {
	t.Helper()
	f.handleAndDrain(messages.ElectionsDone{Leader: f.selfMember(mesh.MemberRoleLeader), ProposalNumber: 1})
	require.Equal(t, RolePreLeader, f.c.state.role)
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	require.Equal(t, RoleLeader, f.c.state.role)
}

func TestColdStartSingleNodeBecomesLeader(t *testing.T) {
	f := newFixture(t, 1, false)

	f.startUp(t)
	assert.Equal(t, RoleUnknown, f.c.state.role)
	assert.Nil(t, f.c.state.leader)
	assert.Equal(t, 5, f.c.state.serviceShutdownsToExpect)

	f.electSelf(t)
	assert.Equal(t, f.node.InstanceID, f.c.state.leader.InstanceID)
	assert.True(t, f.out.contains(messages.KindBecomeLeader))
}

func TestColdStartClusterLeaderWinsElection(t *testing.T) {
	f := newFixture(t, 3, false)

	f.startUp(t)
	require.Equal(t, RoleDiscoverLeader, f.c.state.role)
	assert.Equal(t, 6, f.c.state.serviceShutdownsToExpect)

	entry, ok := f.sched.find(messages.KindDiscoveryTimeout)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, entry.delay)

	// Gossip with no alive leader keeps us discovering
	view := mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader),
		peerMember(mesh.MemberRoleUnknown, true),
	}}
	f.handleAndDrain(messages.GossipUpdated{View: view})
	assert.Equal(t, RoleDiscoverLeader, f.c.state.role)

	f.handleAndDrain(entry.msg)
	require.Equal(t, RoleUnknown, f.c.state.role)

	f.electSelf(t)
}

func TestColdStartJoinsExistingLeader(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)
	require.Equal(t, RoleDiscoverLeader, f.c.state.role)

	leader := peerMember(mesh.MemberRoleLeader, true)
	view := mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader),
		leader,
	}}
	f.handleAndDrain(messages.GossipUpdated{View: view})

	require.Equal(t, RolePreReplica, f.c.state.role)
	require.NotNil(t, f.c.state.leader)
	assert.Equal(t, leader.InstanceID, f.c.state.leader.InstanceID)
	assert.True(t, f.out.contains(messages.KindLeaderFound))

	// Chaser catches up, subscription handshake begins
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	assert.True(t, f.out.contains(messages.KindSubscribeToLeader))
	assert.NotEqual(t, uuid.Nil, f.c.state.subscriptionID)

	f.handleAndDrain(messages.ReplicaSubscribed{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	require.Equal(t, RoleCatchingUp, f.c.state.role)

	f.handleAndDrain(messages.FollowerAssignment{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	require.Equal(t, RoleFollower, f.c.state.role)
}

func TestLeaderLosesQuorum(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)
	entry, _ := f.sched.find(messages.KindDiscoveryTimeout)
	f.handleAndDrain(entry.msg)
	f.electSelf(t)

	f.handleAndDrain(messages.NoQuorumMessage{})

	assert.Equal(t, RoleUnknown, f.c.state.role)
	assert.Nil(t, f.c.state.leader)
	assert.True(t, f.out.contains(messages.KindStartElections))
}

func TestStaleChaserCaughtUpDropped(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	require.Equal(t, RolePreReplica, f.c.state.role)

	outBefore := len(f.out.msgs)
	subBefore := f.c.state.subscriptionID
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: uuid.New()})

	assert.Equal(t, RolePreReplica, f.c.state.role)
	assert.Equal(t, subBefore, f.c.state.subscriptionID)
	assert.Len(t, f.out.msgs, outBefore)
}

func TestResignationDrain(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	f.electSelf(t)

	f.handleAndDrain(messages.InitiateLeaderResignation{})
	require.Equal(t, RoleResigningLeader, f.c.state.role)

	// Writes are denied while resigning
	env := &fakeEnvelope{}
	f.handleAndDrain(messages.WriteEvents{ClientInfo: messages.ClientInfo{
		CorrelationID: uuid.New(),
		Envelope:      env,
	}})
	require.Len(t, env.replies, 1)
	denied := env.replies[0].(messages.NotHandled)
	assert.Equal(t, messages.NotReady, denied.Reason)

	// Reads still flow
	outBefore := len(f.out.msgs)
	f.handleAndDrain(messages.ReadEvent{ClientInfo: messages.ClientInfo{CorrelationID: uuid.New(), Envelope: env}})
	assert.Len(t, f.out.msgs, outBefore+1)

	f.handleAndDrain(messages.RequestQueueDrained{})
	assert.Equal(t, RoleUnknown, f.c.state.role)
	assert.Nil(t, f.c.state.leader)
}

func TestShutdownWithServiceTimeout(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)
	entry, _ := f.sched.find(messages.KindDiscoveryTimeout)
	f.handleAndDrain(entry.msg)
	f.electSelf(t)

	f.handleAndDrain(messages.RequestShutdown{ExitProcess: true, ShutdownHTTP: true})
	require.Equal(t, RoleShuttingDown, f.c.state.role)
	assert.Nil(t, f.c.state.leader)

	timeout, ok := f.sched.find(messages.KindShutdownTimeout)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, timeout.delay)

	// Only 3 of the 6 expected acks arrive
	for _, svc := range []string{"chaser", "storage-writer", "storage-reader"} {
		f.handleAndDrain(messages.ServiceShutdown{Service: svc})
	}
	require.Equal(t, RoleShuttingDown, f.c.state.role)
	assert.Zero(t, f.db.closed)

	f.handleAndDrain(timeout.msg)

	assert.Equal(t, RoleShutdown, f.c.state.role)
	assert.Equal(t, 1, f.db.closed)
	assert.True(t, f.workers.stopped)
	assert.True(t, f.queue.stopped)
	assert.Equal(t, []int{0}, f.exiter.codes)
}

func TestShutdownCompletesWhenAllServicesAck(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	f.electSelf(t)

	f.handleAndDrain(messages.RequestShutdown{})
	require.Equal(t, RoleShuttingDown, f.c.state.role)

	for _, svc := range []string{"chaser", "storage-writer", "storage-reader", "index-committer", "http"} {
		f.handleAndDrain(messages.ServiceShutdown{Service: svc})
	}

	assert.Equal(t, RoleShutdown, f.c.state.role)
	assert.Equal(t, 1, f.db.closed)
	assert.True(t, f.queue.stopped)
	assert.Empty(t, f.exiter.codes, "exitProcess was false")

	// A late shutdown timer must not close the database again
	timeout, _ := f.sched.find(messages.KindShutdownTimeout)
	f.handleAndDrain(timeout.msg)
	assert.Equal(t, 1, f.db.closed)
}

func TestBecomeShuttingDownIsIdempotent(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)

	f.handleAndDrain(messages.BecomeShuttingDown{})
	require.Equal(t, RoleShuttingDown, f.c.state.role)
	schedBefore := len(f.sched.entries)

	f.handleAndDrain(messages.BecomeShuttingDown{})
	assert.Equal(t, RoleShuttingDown, f.c.state.role)
	assert.Len(t, f.sched.entries, schedBefore, "no second shutdown timer")
}

func TestBecomeLeaderWhileLeaderIsFatal(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	f.electSelf(t)

	f.c.Handle(messages.BecomeLeader{CorrelationID: f.c.state.stateCorrelationID})
	assert.Equal(t, []int{1}, f.exiter.codes)
}

func TestStaleBecomeMessageIsNoOp(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	require.Equal(t, RoleUnknown, f.c.state.role)

	f.handleAndDrain(messages.BecomeUnknown{CorrelationID: uuid.New()})
	assert.Equal(t, RoleUnknown, f.c.state.role)
	assert.Empty(t, f.exiter.codes)
}

func TestUnmappedStateChangeIsFatal(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	f.electSelf(t)

	// BecomeCatchingUp has no mapping in Leader
	f.c.Handle(messages.BecomeCatchingUp{CorrelationID: f.c.state.stateCorrelationID})
	assert.Equal(t, []int{1}, f.exiter.codes)
}

func TestElectionsDoneSameLeaderNoTransition(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	require.Equal(t, RolePreReplica, f.c.state.role)
	corr := f.c.state.stateCorrelationID

	f.handleAndDrain(messages.ElectionsDone{Leader: leader, ProposalNumber: 7})

	assert.Equal(t, RolePreReplica, f.c.state.role)
	assert.Equal(t, corr, f.c.state.stateCorrelationID)
	assert.False(t, f.out.contains(messages.KindWriteEpoch))
}

func TestReelectedLeaderWritesEpoch(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)
	f.electSelf(t)

	f.handleAndDrain(messages.ElectionsDone{Leader: f.selfMember(mesh.MemberRoleLeader), ProposalNumber: 9})

	assert.Equal(t, RoleLeader, f.c.state.role)
	require.True(t, f.out.contains(messages.KindWriteEpoch))
	for _, m := range f.out.msgs {
		if epoch, ok := m.(messages.WriteEpoch); ok {
			assert.Equal(t, 9, epoch.ProposalNumber)
		}
	}
}

func TestSystemCoreReadyWithoutSubsystems(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)

	f.handleAndDrain(messages.AuthenticationProviderInitialized{})

	assert.True(t, f.out.contains(messages.KindSystemReady))
	assert.True(t, f.c.Status().Ready)
}

func TestSystemReadyWaitsForSubsystems(t *testing.T) {
	f := newFixture(t, 1, false)
	f.c.subsystemInits.Store(2)
	f.startUp(t)

	f.handleAndDrain(messages.AuthenticationProviderInitialized{})
	assert.False(t, f.out.contains(messages.KindSystemReady))

	f.handleAndDrain(messages.SubSystemInitialized{SubSystem: "projections"})
	assert.False(t, f.out.contains(messages.KindSystemReady))

	f.handleAndDrain(messages.SubSystemInitialized{SubSystem: "telemetry"})
	assert.True(t, f.out.contains(messages.KindSystemReady))
}

func TestAuthProviderFailureForcesShutdown(t *testing.T) {
	f := newFixture(t, 1, false)
	f.startUp(t)

	f.handleAndDrain(messages.AuthenticationProviderInitializationFailed{Reason: "ldap unreachable"})

	assert.Equal(t, RoleShuttingDown, f.c.state.role)
	assert.True(t, f.c.state.exitProcessOnShutdown)
}

func TestReadOnlyReplicaColdStart(t *testing.T) {
	f := newFixture(t, 3, true)
	f.startUp(t)
	require.Equal(t, RoleReadOnlyLeaderless, f.c.state.role)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{leader}}})
	require.Equal(t, RolePreReadOnlyReplica, f.c.state.role)

	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	require.True(t, f.out.contains(messages.KindSubscribeToLeader))

	f.handleAndDrain(messages.ReplicaSubscribed{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	assert.Equal(t, RoleReadOnlyReplica, f.c.state.role)
}

func TestReadOnlyReplicaLosesLeader(t *testing.T) {
	f := newFixture(t, 3, true)
	f.startUp(t)
	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{leader}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	f.handleAndDrain(messages.ReplicaSubscribed{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	require.Equal(t, RoleReadOnlyReplica, f.c.state.role)

	dead := leader
	dead.IsAlive = false
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{dead}}})

	assert.Equal(t, RoleReadOnlyLeaderless, f.c.state.role)
	assert.Nil(t, f.c.state.leader)
}

func TestGossipSplitBrainStartsElections(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)
	entry, _ := f.sched.find(messages.KindDiscoveryTimeout)
	f.handleAndDrain(entry.msg)
	f.electSelf(t)

	view := mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleLeader),
		peerMember(mesh.MemberRoleLeader, true),
	}}
	f.handleAndDrain(messages.GossipUpdated{View: view})

	assert.Equal(t, RoleLeader, f.c.state.role)
	assert.True(t, f.out.contains(messages.KindStartElections))
}

func TestGossipDeadLeaderStartsElections(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	require.Equal(t, RolePreReplica, f.c.state.role)

	dead := leader
	dead.IsAlive = false
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRolePreReplica), dead,
	}}})

	assert.Equal(t, RolePreReplica, f.c.state.role, "gossip alone does not change role")
	assert.True(t, f.out.contains(messages.KindStartElections))
}

func TestVNodeConnectionLostToLeaderSchedulesReconnect(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	require.Equal(t, RolePreReplica, f.c.state.role)

	connCorr := f.c.state.leaderConnectionCorrelationID
	f.handleAndDrain(messages.VNodeConnectionLost{Endpoint: leader.InternalTCP})

	assert.NotEqual(t, connCorr, f.c.state.leaderConnectionCorrelationID)
	entry, ok := f.sched.find(messages.KindReconnectToLeader)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, entry.delay)
}

func TestVNodeConnectionLostAfterSubscriptionReentersPipeline(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	f.handleAndDrain(messages.ReplicaSubscribed{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	f.handleAndDrain(messages.FollowerAssignment{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	require.Equal(t, RoleFollower, f.c.state.role)

	f.handleAndDrain(messages.VNodeConnectionLost{Endpoint: leader.InternalTCP})

	entry, ok := f.sched.find(messages.KindBecomePreReplica)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, entry.delay)

	// Delivering the retry re-enters the pre-replica staging
	f.handleAndDrain(entry.msg)
	assert.Equal(t, RolePreReplica, f.c.state.role)
}

func TestVNodeConnectionLostOnNonLeaderEndpointNoRetry(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	require.Equal(t, RolePreReplica, f.c.state.role)

	schedBefore := len(f.sched.entries)
	f.handleAndDrain(messages.VNodeConnectionLost{Endpoint: mesh.Endpoint{Host: "10.9.9.9", Port: 1112}})
	assert.Len(t, f.sched.entries, schedBefore)
}

func TestSubscriptionRetrySchedulesNewAttempt(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	require.Equal(t, RolePreReplica, f.c.state.role)

	f.handleAndDrain(messages.ReplicaSubscriptionRetry{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})

	entry, ok := f.sched.find(messages.KindSubscribeToLeader)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, entry.delay)
}

func TestReplicationMessageEmptySubscriptionIDIsFatal(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})

	f.c.Handle(messages.ReplicaSubscribed{SubscriptionID: uuid.Nil, LeaderID: leader.InstanceID})
	assert.Equal(t, []int{1}, f.exiter.codes)
}

func TestReplicationMessageWrongSubscriptionIDIgnored(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})

	f.handleAndDrain(messages.ReplicaSubscribed{SubscriptionID: uuid.New(), LeaderID: leader.InstanceID})
	assert.Equal(t, RolePreReplica, f.c.state.role)
	assert.Empty(t, f.exiter.codes)
}

func TestReplicationMessageLeaderMismatchIsFatal(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})

	f.c.Handle(messages.ReplicaSubscribed{SubscriptionID: f.c.state.subscriptionID, LeaderID: uuid.New()})
	assert.Equal(t, []int{1}, f.exiter.codes)
}

func TestDropSubscriptionShutsCloneDown(t *testing.T) {
	f := newFixture(t, 3, false)
	f.startUp(t)

	leader := peerMember(mesh.MemberRoleLeader, true)
	f.handleAndDrain(messages.GossipUpdated{View: mesh.View{Members: []mesh.MemberInfo{
		f.selfMember(mesh.MemberRoleDiscoverLeader), leader,
	}}})
	f.handleAndDrain(messages.ChaserCaughtUp{CorrelationID: f.c.state.stateCorrelationID})
	f.handleAndDrain(messages.ReplicaSubscribed{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	f.handleAndDrain(messages.CloneAssignment{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
	})
	require.Equal(t, RoleClone, f.c.state.role)

	f.handleAndDrain(messages.DropSubscription{
		SubscriptionID: f.c.state.subscriptionID,
		LeaderID:       leader.InstanceID,
		Reason:         "replica surplus",
	})

	assert.Equal(t, RoleShuttingDown, f.c.state.role)
	assert.True(t, f.c.state.exitProcessOnShutdown)
}
