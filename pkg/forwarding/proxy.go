package forwarding

import (
	"sync"
	"time"

	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// pendingForward is a client write awaiting the leader's response
type pendingForward struct {
	InternalID   uuid.UUID
	ExternalID   uuid.UUID
	Envelope     messages.Envelope
	ExpiresAt    time.Time
	TimeoutReply messages.Message
}

// Proxy remembers client correlation ids while a write is forwarded to
// the leader, and replies with the request's timeout completion if the
// leader does not respond in time.
type Proxy struct {
	pending map[uuid.UUID]*pendingForward
	mu      sync.RWMutex
	stopCh  chan struct{}
	logger  zerolog.Logger
}

// NewProxy creates a new forwarding proxy
func NewProxy() *Proxy {
	return &Proxy{
		pending: make(map[uuid.UUID]*pendingForward),
		stopCh:  make(chan struct{}),
		logger:  log.WithComponent("forwarding"),
	}
}

// Start begins the expiry sweep loop
func (p *Proxy) Start() {
	go p.run()
}

// Stop stops the sweep loop
func (p *Proxy) Stop() {
	close(p.stopCh)
}

// Register records a pending forward
func (p *Proxy) Register(internalID, externalID uuid.UUID, envelope messages.Envelope, timeout time.Duration, timeoutReply messages.Message) {
	p.mu.Lock()
	p.pending[internalID] = &pendingForward{
		InternalID:   internalID,
		ExternalID:   externalID,
		Envelope:     envelope,
		ExpiresAt:    time.Now().Add(timeout),
		TimeoutReply: timeoutReply,
	}
	p.mu.Unlock()

	metrics.ForwardedWritesTotal.Inc()
}

// Resolve completes a pending forward with the leader's reply and
// removes it. Unknown ids are ignored; the forward may already have
// timed out.
func (p *Proxy) Resolve(internalID uuid.UUID, reply messages.Message) {
	p.mu.Lock()
	fwd, exists := p.pending[internalID]
	if exists {
		delete(p.pending, internalID)
	}
	p.mu.Unlock()

	if exists && fwd.Envelope != nil {
		fwd.Envelope.ReplyWith(reply)
	}
}

// PendingCount returns the number of outstanding forwards
func (p *Proxy) PendingCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}

func (p *Proxy) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.expire(time.Now())
		case <-p.stopCh:
			return
		}
	}
}

// expire replies the timeout completion for every forward past its
// deadline.
func (p *Proxy) expire(now time.Time) {
	var expired []*pendingForward

	p.mu.Lock()
	for id, fwd := range p.pending {
		if now.After(fwd.ExpiresAt) {
			delete(p.pending, id)
			expired = append(expired, fwd)
		}
	}
	p.mu.Unlock()

	for _, fwd := range expired {
		metrics.ForwardTimeoutsTotal.Inc()
		p.logger.Debug().Str("correlation_id", fwd.ExternalID.String()).Msg("forwarded write timed out")
		if fwd.Envelope != nil {
			fwd.Envelope.ReplyWith(fwd.TimeoutReply)
		}
	}
}
