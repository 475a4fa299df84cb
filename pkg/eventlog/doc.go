/*
Package eventlog is the bbolt-backed log database. Records are stored
in fixed-span chunk buckets keyed by big-endian sequence number, with
leadership epochs in their own bucket. The storage writer and reader
services own all regular access; the lifecycle controller touches the
store exactly once, to close it during shutdown.
*/
package eventlog
