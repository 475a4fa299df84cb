package bus

import (
	"sync"

	"github.com/ferrodb/ferro/pkg/messages"
)

// Subscriber is a channel that receives published messages
type Subscriber chan messages.Message

// OutputBus fans controller output out to the subordinate services.
// Publish waits only while the bus's own 512-message buffer is full;
// broadcast never blocks, and a subscriber whose buffer is full misses
// the message.
type OutputBus struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	msgCh       chan messages.Message
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewOutputBus creates a new output bus
func NewOutputBus() *OutputBus {
	return &OutputBus{
		subscribers: make(map[Subscriber]bool),
		msgCh:       make(chan messages.Message, 512),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus distribution loop
func (b *OutputBus) Start() {
	go b.run()
}

// Stop stops the bus
func (b *OutputBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// Subscribe creates a new subscription and returns its channel
func (b *OutputBus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *OutputBus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes a message to all subscribers
func (b *OutputBus) Publish(msg messages.Message) {
	select {
	case b.msgCh <- msg:
	case <-b.stopCh:
	}
}

func (b *OutputBus) run() {
	for {
		select {
		case msg := <-b.msgCh:
			b.broadcast(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *OutputBus) broadcast(msg messages.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- msg:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *OutputBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
