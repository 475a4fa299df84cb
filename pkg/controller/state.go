package controller

import (
	"github.com/ferrodb/ferro/pkg/mesh"
	"github.com/google/uuid"
)

// Role is the node's current position in the cluster lifecycle
type Role int

const (
	RoleInitializing Role = iota
	RoleDiscoverLeader
	RoleUnknown
	RolePreReplica
	RoleCatchingUp
	RoleClone
	RoleFollower
	RolePreLeader
	RoleLeader
	RoleResigningLeader
	RoleShuttingDown
	RoleShutdown
	RoleReadOnlyLeaderless
	RolePreReadOnlyReplica
	RoleReadOnlyReplica

	numRoles = int(RoleReadOnlyReplica) + 1
)

var roleNames = [...]string{
	RoleInitializing:       "Initializing",
	RoleDiscoverLeader:     "DiscoverLeader",
	RoleUnknown:            "Unknown",
	RolePreReplica:         "PreReplica",
	RoleCatchingUp:         "CatchingUp",
	RoleClone:              "Clone",
	RoleFollower:           "Follower",
	RolePreLeader:          "PreLeader",
	RoleLeader:             "Leader",
	RoleResigningLeader:    "ResigningLeader",
	RoleShuttingDown:       "ShuttingDown",
	RoleShutdown:           "Shutdown",
	RoleReadOnlyLeaderless: "ReadOnlyLeaderless",
	RolePreReadOnlyReplica: "PreReadOnlyReplica",
	RoleReadOnlyReplica:    "ReadOnlyReplica",
}

func (r Role) String() string {
	if r < 0 || int(r) >= numRoles {
		return "Invalid"
	}
	return roleNames[r]
}

// MemberRole maps the controller role onto its gossip representation
func (r Role) MemberRole() mesh.MemberRole {
	switch r {
	case RoleInitializing:
		return mesh.MemberRoleInitializing
	case RoleDiscoverLeader:
		return mesh.MemberRoleDiscoverLeader
	case RoleUnknown:
		return mesh.MemberRoleUnknown
	case RolePreReplica:
		return mesh.MemberRolePreReplica
	case RoleCatchingUp:
		return mesh.MemberRoleCatchingUp
	case RoleClone:
		return mesh.MemberRoleClone
	case RoleFollower:
		return mesh.MemberRoleFollower
	case RolePreLeader:
		return mesh.MemberRolePreLeader
	case RoleLeader:
		return mesh.MemberRoleLeader
	case RoleResigningLeader:
		return mesh.MemberRoleResigningLeader
	case RoleShuttingDown:
		return mesh.MemberRoleShuttingDown
	case RoleShutdown:
		return mesh.MemberRoleShutdown
	case RoleReadOnlyLeaderless:
		return mesh.MemberRoleReadOnlyLeaderless
	case RolePreReadOnlyReplica:
		return mesh.MemberRolePreReadOnlyReplica
	case RoleReadOnlyReplica:
		return mesh.MemberRoleReadOnlyReplica
	}
	return mesh.MemberRoleUnknown
}

// requiresLeader reports whether the role's precondition demands a
// known leader.
func (r Role) requiresLeader() bool {
	switch r {
	case RolePreReplica, RoleCatchingUp, RoleClone, RoleFollower,
		RolePreReadOnlyReplica, RoleReadOnlyReplica, RolePreLeader:
		return true
	}
	return false
}

// forbidsLeader reports whether the role's precondition demands no
// known leader.
func (r Role) forbidsLeader() bool {
	switch r {
	case RoleUnknown, RoleDiscoverLeader, RoleInitializing,
		RoleReadOnlyLeaderless, RoleShutdown:
		return true
	}
	return false
}

// isReplica reports membership in the writable replica family
func (r Role) isReplica() bool {
	switch r {
	case RolePreReplica, RoleCatchingUp, RoleClone, RoleFollower:
		return true
	}
	return false
}

// isReadOnlyReplica reports membership in the read-only replica family
func (r Role) isReadOnlyReplica() bool {
	switch r {
	case RoleReadOnlyLeaderless, RolePreReadOnlyReplica, RoleReadOnlyReplica:
		return true
	}
	return false
}

// state holds the controller's mutable fields. It is only ever touched
// from the main queue goroutine; subsystemInitsToExpect lives on the
// Controller as an atomic because subsystem acks can arrive off-queue.
type state struct {
	role                          Role
	leader                        *mesh.MemberInfo
	stateCorrelationID            uuid.UUID
	leaderConnectionCorrelationID uuid.UUID
	subscriptionID                uuid.UUID
	serviceInitsToExpect          int
	serviceShutdownsToExpect      int
	exitProcessOnShutdown         bool
}
