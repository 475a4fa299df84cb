package services

import (
	"github.com/ferrodb/ferro/pkg/bus"
	"github.com/ferrodb/ferro/pkg/messages"
)

// Authenticator is the in-process authentication provider. It
// initializes once the system starts and reports the outcome to the
// controller; it takes no part in the shutdown ack count.
type Authenticator struct {
	*agent
}

// NewAuthenticator creates the internal authentication provider
func NewAuthenticator(mainQueue bus.Publisher, outputBus *bus.OutputBus) *Authenticator {
	a := &Authenticator{}
	a.agent = newAgent("authenticator", false, false, mainQueue, outputBus, a.process)
	return a
}

func (a *Authenticator) process(msg messages.Message) {
	if _, ok := msg.(messages.SystemStart); ok {
		a.mainQueue.Publish(messages.AuthenticationProviderInitialized{})
	}
}

// SubSystem is a plugin subsystem started once the authentication
// provider is up. Its init ack may legitimately race the controller's
// SystemCoreReady handling; the controller counts it atomically.
type SubSystem struct {
	*agent
}

// NewSubSystem creates a plugin subsystem agent
func NewSubSystem(name string, mainQueue bus.Publisher, outputBus *bus.OutputBus) *SubSystem {
	s := &SubSystem{}
	s.agent = newAgent(name, false, false, mainQueue, outputBus, s.process)
	return s
}

func (s *SubSystem) process(msg messages.Message) {
	if _, ok := msg.(messages.AuthenticationProviderInitialized); ok {
		go s.mainQueue.Publish(messages.SubSystemInitialized{SubSystem: s.name})
	}
}
