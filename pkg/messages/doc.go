/*
Package messages defines every message that travels the node's main
queue and output bus.

Families:

  - system lifecycle (SystemInit through ShutdownTimeout)
  - role transitions (the Become* state changes and their triggers)
  - elections and gossip (ElectionsDone, GossipUpdated, discovery)
  - replication (subscription handshake, chunk transfer, acks)
  - client requests (reads, writes, persistent subscriptions) and
    their completions
  - authentication provider notifications

State change messages implement StateChangeMessage; the dispatcher
uses the marker to abort on transitions that reach a role without a
mapping. Client requests embed ClientInfo and classify as ReadRequest
or WriteRequest for admission.
*/
package messages
