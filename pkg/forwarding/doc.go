/*
Package forwarding implements the forwarding proxy. When a non-leader
node accepts a client write it registers the pending request here and
hands the message to the forwarding transport. The proxy answers with
the request's timeout completion if the leader does not respond within
the deadline.
*/
package forwarding
