package services

import (
	"github.com/ferrodb/ferro/pkg/bus"
	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/rs/zerolog"
)

// agent is the shared lifecycle loop for subordinate services. It
// subscribes to the output bus, acknowledges init and shutdown on the
// main queue, and hands everything else to the service's handler.
type agent struct {
	name         string
	acksInit     bool
	acksShutdown bool
	mainQueue    bus.Publisher
	outputBus *bus.OutputBus
	sub       bus.Subscriber
	handler   func(messages.Message)
	stopCh    chan struct{}
	logger    zerolog.Logger
}

func newAgent(name string, acksInit, acksShutdown bool, mainQueue bus.Publisher, outputBus *bus.OutputBus, handler func(messages.Message)) *agent {
	return &agent{
		name:         name,
		acksInit:     acksInit,
		acksShutdown: acksShutdown,
		mainQueue:    mainQueue,
		outputBus:    outputBus,
		handler:      handler,
		stopCh:       make(chan struct{}),
		logger:       log.WithComponent(name),
	}
}

// Name returns the service name used in lifecycle acks
func (a *agent) Name() string { return a.name }

// Start subscribes to the output bus and begins consuming
func (a *agent) Start() {
	a.sub = a.outputBus.Subscribe()
	go a.run()
}

// Stop ends the consume loop
func (a *agent) Stop() {
	close(a.stopCh)
}

func (a *agent) run() {
	for {
		select {
		case msg, ok := <-a.sub:
			if !ok {
				return
			}
			a.handle(msg)
		case <-a.stopCh:
			return
		}
	}
}

func (a *agent) handle(msg messages.Message) {
	switch msg.(type) {
	case messages.SystemInit:
		if a.acksInit {
			a.mainQueue.Publish(messages.ServiceInitialized{Service: a.name})
		}
		return
	case messages.BecomeShuttingDown:
		if a.acksShutdown {
			a.logger.Debug().Msg("shutting down")
			a.mainQueue.Publish(messages.ServiceShutdown{Service: a.name})
		}
		return
	}

	if a.handler != nil {
		a.handler(msg)
	}
}

// AckOnly is a service that only participates in the lifecycle
// handshake. Used for services whose work happens out of process or in
// other packages (index committer, replication, HTTP).
type AckOnly struct {
	*agent
}

// NewAckOnly creates a lifecycle-only service
func NewAckOnly(name string, mainQueue bus.Publisher, outputBus *bus.OutputBus) *AckOnly {
	return &AckOnly{newAgent(name, false, true, mainQueue, outputBus, nil)}
}
