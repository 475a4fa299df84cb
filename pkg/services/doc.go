/*
Package services hosts the subordinate services driven by the output
bus: the chaser, the storage writer and reader, the authentication
provider, plugin subsystems, and the lifecycle-only participants. The
chaser, writer and reader acknowledge init; they and the lifecycle-only
participants acknowledge shutdown, so the controller can count them
through startup and the bounded shutdown window. The authentication
provider and subsystems send neither ack and report through their own
messages.
*/
package services
