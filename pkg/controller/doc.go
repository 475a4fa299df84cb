/*
Package controller implements the node lifecycle controller, the
single authority over the node's cluster role.

The controller is attached as the sole consumer of the main queue.
Every inbound event — election outcomes, gossip views, replication
handshake messages, timer firings, client requests, lifecycle acks —
arrives as a message and is processed one at a time. The controller
reacts by mutating its role state, publishing messages to the output
bus for the subordinate services, and scheduling future messages back
to its own queue.

# Dispatch

Routing is table driven: a two-level table keyed by (role, message
kind) resolves to a handler, a forward to the output bus, or a drop.
Rules are layered — per-role rules override role-set rules, which
override any-role fallbacks — and unclaimed kinds forward to the
output bus, except in Shutdown, which drops them. A role transition message that reaches a role with no rule
for it is a construction bug and aborts the process; transitions are
exhaustive by design.

# Correlation ids

Three ids guard against stale asynchronous messages:

	stateCorrelationID            rotated per leader/epoch attempt
	leaderConnectionCorrelationID rotated per leader reconnection attempt
	subscriptionID                rotated per replica subscription

There is no timer cancellation. A superseded attempt simply rotates
the relevant id and the stale timer message no-ops on delivery.

# Concurrency

All controller state is owned by the main queue's consumer goroutine;
there are no locks. The subsystem init counter is nonetheless atomic,
because subsystems post their init acks from their own goroutines.

# Roles

	Initializing → DiscoverLeader → Unknown → PreLeader → Leader
	                             ↘ PreReplica → CatchingUp → Follower/Clone
	ReadOnlyLeaderless → PreReadOnlyReplica → ReadOnlyReplica
	any → ShuttingDown → Shutdown

The pre-roles exist solely to wait for the local chaser to catch up
with the writer's log before the node takes on its full role.
*/
package controller
