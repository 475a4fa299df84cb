/*
Package bus provides the node's in-process messaging fabric.

Three pieces:

  - MainQueue: the serialized inbound queue. A single consumer
    goroutine pops messages in FIFO order. Publish never blocks, so
    the consumer may publish follow-ups to its own queue from inside a
    handler.
  - OutputBus: the fan-out side. The controller publishes here;
    subordinate services subscribe. Broadcast is non-blocking — a
    subscriber with a full buffer misses the message.
  - TimerService: delayed self-posts. Schedule(d, msg) publishes msg
    to the target queue after d. There is deliberately no cancel:
    receivers discard stale deliveries by correlation id.
*/
package bus
