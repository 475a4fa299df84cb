package controller

import (
	"testing"

	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchLayerPrecedence(t *testing.T) {
	t.Run("specific role beats role set beats fallback", func(t *testing.T) {
		tbl := newDispatchTable()
		kind := messages.KindGossipUpdated

		tbl.inAnyRole().ignore(kind)
		tbl.inRoles(RoleLeader, RoleFollower).forward(kind)
		tbl.inRole(RoleLeader).handle(kind, func(messages.Message) {})

		act, explicit := tbl.resolve(RoleLeader, kind)
		require.True(t, explicit)
		assert.Equal(t, actionHandle, act.typ)

		act, explicit = tbl.resolve(RoleFollower, kind)
		require.True(t, explicit)
		assert.Equal(t, actionForward, act.typ)

		act, explicit = tbl.resolve(RoleUnknown, kind)
		require.True(t, explicit)
		assert.Equal(t, actionIgnore, act.typ)
	})

	t.Run("last declaration wins within a scope", func(t *testing.T) {
		tbl := newDispatchTable()
		kind := messages.KindNoQuorum

		tbl.inRole(RoleLeader).forward(kind).ignore(kind)

		act, explicit := tbl.resolve(RoleLeader, kind)
		require.True(t, explicit)
		assert.Equal(t, actionIgnore, act.typ)
	})

	t.Run("unclaimed kinds fall through to whenOther", func(t *testing.T) {
		tbl := newDispatchTable()

		act, explicit := tbl.resolve(RoleLeader, messages.KindGossipUpdated)
		assert.False(t, explicit)
		assert.Equal(t, actionForward, act.typ, "default whenOther forwards")

		tbl.inRole(RoleShutdown).whenOther(actionIgnore)
		act, explicit = tbl.resolve(RoleShutdown, messages.KindGossipUpdated)
		assert.False(t, explicit)
		assert.Equal(t, actionIgnore, act.typ)
	})

	t.Run("all roles except", func(t *testing.T) {
		tbl := newDispatchTable()
		kind := messages.KindStartElections

		tbl.inAllRolesExcept(RoleShutdown).ignore(kind)

		_, explicit := tbl.resolve(RoleLeader, kind)
		assert.True(t, explicit)
		_, explicit = tbl.resolve(RoleShutdown, kind)
		assert.False(t, explicit)
	})
}

func TestControllerTableCoversStateChanges(t *testing.T) {
	f := newFixture(t, 3, false)

	uncovered := f.c.table.uncoveredStateChanges(stateChangeKinds)

	// The shutdown roles explicitly claim every state change; the
	// other roles claim exactly the transitions that can reach them.
	assert.Empty(t, uncovered[RoleShuttingDown])
	assert.Empty(t, uncovered[RoleShutdown])

	assert.NotContains(t, uncovered[RoleInitializing], messages.KindBecomeUnknown)
	assert.NotContains(t, uncovered[RoleInitializing], messages.KindBecomeDiscoverLeader)
	assert.NotContains(t, uncovered[RolePreLeader], messages.KindBecomeLeader)
	assert.Contains(t, uncovered[RoleLeader], messages.KindBecomeCatchingUp)
	assert.Contains(t, uncovered[RoleInitializing], messages.KindBecomeLeader)
}

func TestDispatchStateChangeClassification(t *testing.T) {
	assert.True(t, messages.IsStateChange(messages.BecomePreReplica{}))
	assert.True(t, messages.IsStateChange(messages.BecomeShutdown{}))
	assert.False(t, messages.IsStateChange(messages.ElectionsDone{}))
	assert.False(t, messages.IsStateChange(messages.ChaserCaughtUp{}))
	assert.False(t, messages.IsStateChange(messages.WaitForChaserToCatchUp{}))
}
