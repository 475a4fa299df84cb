/*
Package mesh holds the cluster topology types: the immutable local
NodeInfo, the MemberInfo peer descriptors carried by gossip, and the
point-in-time View the gossip service delivers. The controller never
talks to the gossip protocol itself; it only consumes Views.
*/
package mesh
