package mesh

import (
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
)

// Endpoint is a host:port pair used for node addressing
type Endpoint struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// String returns the endpoint in host:port form
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// IsZero reports whether the endpoint is unset
func (e Endpoint) IsZero() bool {
	return e.Host == "" && e.Port == 0
}

// MemberRole is the cluster role a member advertises via gossip
type MemberRole string

const (
	MemberRoleInitializing       MemberRole = "initializing"
	MemberRoleDiscoverLeader     MemberRole = "discover-leader"
	MemberRoleUnknown            MemberRole = "unknown"
	MemberRolePreReplica         MemberRole = "pre-replica"
	MemberRoleCatchingUp         MemberRole = "catching-up"
	MemberRoleClone              MemberRole = "clone"
	MemberRoleFollower           MemberRole = "follower"
	MemberRolePreLeader          MemberRole = "pre-leader"
	MemberRoleLeader             MemberRole = "leader"
	MemberRoleResigningLeader    MemberRole = "resigning-leader"
	MemberRoleShuttingDown       MemberRole = "shutting-down"
	MemberRoleShutdown           MemberRole = "shutdown"
	MemberRoleReadOnlyLeaderless MemberRole = "read-only-leaderless"
	MemberRolePreReadOnlyReplica MemberRole = "pre-read-only-replica"
	MemberRoleReadOnlyReplica    MemberRole = "read-only-replica"
)

// NodeInfo describes this node. It is immutable after construction.
type NodeInfo struct {
	InstanceID        uuid.UUID
	HTTPEndpoint      Endpoint
	ExternalTCP       *Endpoint
	ExternalSecureTCP *Endpoint
	InternalTCP       Endpoint
	InternalSecureTCP *Endpoint
	AdvertisedHost     string
	AdvertisedTCPPort  int
	AdvertisedHTTPPort int
	ReadOnlyReplica    bool
}

// MemberInfo describes a peer node as reported by gossip
type MemberInfo struct {
	InstanceID        uuid.UUID
	HTTPEndpoint      Endpoint
	InternalTCP       Endpoint
	InternalSecureTCP *Endpoint
	ExternalTCP       *Endpoint
	ExternalSecureTCP *Endpoint
	AdvertisedHost     string
	AdvertisedTCPPort  int
	AdvertisedHTTPPort int
	IsAlive            bool
	Role               MemberRole
}

func (m MemberInfo) String() string {
	return fmt.Sprintf("%s [%s, alive=%t, %s]", m.InstanceID, m.Role, m.IsAlive, m.InternalTCP)
}

// HasEndpoint reports whether ep addresses this member's internal
// replication channel (plain or secure).
func (m MemberInfo) HasEndpoint(ep Endpoint) bool {
	if m.InternalTCP == ep {
		return true
	}
	return m.InternalSecureTCP != nil && *m.InternalSecureTCP == ep
}

// View is a point-in-time cluster membership snapshot from gossip
type View struct {
	Members []MemberInfo
}

// AliveLeaders returns all members that are alive and advertise the
// leader role.
func (v View) AliveLeaders() []MemberInfo {
	var leaders []MemberInfo
	for _, m := range v.Members {
		if m.IsAlive && m.Role == MemberRoleLeader {
			leaders = append(leaders, m)
		}
	}
	return leaders
}

// Find returns the member with the given instance id, or nil
func (v View) Find(id uuid.UUID) *MemberInfo {
	for i := range v.Members {
		if v.Members[i].InstanceID == id {
			return &v.Members[i]
		}
	}
	return nil
}

// IsAliveLeader reports whether the member with the given instance id
// is present, alive, and a leader in this view.
func (v View) IsAliveLeader(id uuid.UUID) bool {
	m := v.Find(id)
	return m != nil && m.IsAlive && m.Role == MemberRoleLeader
}
