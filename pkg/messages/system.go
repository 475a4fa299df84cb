package messages

import (
	"github.com/google/uuid"
)

// System lifecycle kinds
const (
	KindSystemInit           Kind = "system.init"
	KindSystemStart          Kind = "system.start"
	KindSystemCoreReady      Kind = "system.core-ready"
	KindSystemReady          Kind = "system.ready"
	KindServiceInitialized   Kind = "system.service-initialized"
	KindServiceShutdown      Kind = "system.service-shutdown"
	KindSubSystemInitialized Kind = "system.subsystem-initialized"
	KindRequestShutdown      Kind = "system.request-shutdown"
	KindShutdownTimeout      Kind = "system.shutdown-timeout"

	KindAuthProviderInitialized          Kind = "auth.provider-initialized"
	KindAuthProviderInitializationFailed Kind = "auth.provider-initialization-failed"
)

// SystemInit asks every core service to initialize
type SystemInit struct{}

func (SystemInit) Kind() Kind { return KindSystemInit }

// SystemStart fires once all core services have initialized
type SystemStart struct{}

func (SystemStart) Kind() Kind { return KindSystemStart }

// SystemCoreReady fires once the node's core (services plus
// authentication provider) is up; subsystems may still be starting.
type SystemCoreReady struct{}

func (SystemCoreReady) Kind() Kind { return KindSystemCoreReady }

// SystemReady fires once everything, subsystems included, is up
type SystemReady struct{}

func (SystemReady) Kind() Kind { return KindSystemReady }

// ServiceInitialized is a core service's init acknowledgement
type ServiceInitialized struct {
	Service string
}

func (ServiceInitialized) Kind() Kind { return KindServiceInitialized }

// ServiceShutdown is a core service's shutdown acknowledgement
type ServiceShutdown struct {
	Service string
}

func (ServiceShutdown) Kind() Kind { return KindServiceShutdown }

// SubSystemInitialized is a plugin subsystem's init acknowledgement.
// Unlike core service acks it may be posted from the subsystem's own
// goroutine before joining the main queue discipline.
type SubSystemInitialized struct {
	SubSystem string
}

func (SubSystemInitialized) Kind() Kind { return KindSubSystemInitialized }

// RequestShutdown asks the node to shut down in an orderly fashion
type RequestShutdown struct {
	ExitProcess  bool
	ShutdownHTTP bool
}

func (RequestShutdown) Kind() Kind { return KindRequestShutdown }

// ShutdownTimeout bounds the window services get to acknowledge
// shutdown. Stale instances are discarded by correlation id.
type ShutdownTimeout struct {
	CorrelationID uuid.UUID
}

func (ShutdownTimeout) Kind() Kind { return KindShutdownTimeout }

// AuthenticationProviderInitialized reports the auth provider is up
type AuthenticationProviderInitialized struct{}

func (AuthenticationProviderInitialized) Kind() Kind { return KindAuthProviderInitialized }

// AuthenticationProviderInitializationFailed reports the auth provider
// could not start; the node shuts down in response.
type AuthenticationProviderInitializationFailed struct {
	Reason string
}

func (AuthenticationProviderInitializationFailed) Kind() Kind {
	return KindAuthProviderInitializationFailed
}
