package bus

import (
	"sync"

	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/metrics"
)

// Handler consumes messages popped off a queue
type Handler interface {
	Handle(messages.Message)
}

// Publisher is the publish-only face of a queue or bus
type Publisher interface {
	Publish(messages.Message)
}

// MainQueue is the node's serialized inbound queue. One consumer
// goroutine pops messages in FIFO order and hands them to the
// registered handler. Publish never blocks, so handlers are free to
// post follow-up messages to their own queue.
type MainQueue struct {
	mu      sync.Mutex
	pending []messages.Message
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

// NewMainQueue creates a main queue; call Start to begin consuming
func NewMainQueue() *MainQueue {
	return &MainQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start launches the consumer goroutine
func (q *MainQueue) Start(h Handler) {
	go q.run(h)
}

// Publish appends a message to the queue. Messages published after
// RequestStop are dropped.
func (q *MainQueue) Publish(msg messages.Message) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, msg)
	metrics.MainQueueDepth.Set(float64(len(q.pending)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// RequestStop stops the consumer after the in-flight message. Safe to
// call from inside a handler.
func (q *MainQueue) RequestStop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the consumer goroutine has exited
func (q *MainQueue) Wait() {
	<-q.done
}

// Depth returns the number of queued messages
func (q *MainQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *MainQueue) run(h Handler) {
	defer close(q.done)

	for {
		q.mu.Lock()
		if q.stopped {
			q.mu.Unlock()
			return
		}
		var msg messages.Message
		if len(q.pending) > 0 {
			msg = q.pending[0]
			q.pending = q.pending[1:]
			metrics.MainQueueDepth.Set(float64(len(q.pending)))
		}
		q.mu.Unlock()

		if msg != nil {
			h.Handle(msg)
			continue
		}

		<-q.wake
	}
}
