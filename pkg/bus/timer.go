package bus

import (
	"time"

	"github.com/ferrodb/ferro/pkg/messages"
)

// TimerService posts messages back to a queue after a delay. There is
// no cancellation; stale deliveries are discarded by the receiver via
// correlation ids.
type TimerService struct {
	target Publisher
}

// NewTimerService creates a timer service that publishes to target
func NewTimerService(target Publisher) *TimerService {
	return &TimerService{target: target}
}

// Schedule publishes msg to the target queue after d
func (t *TimerService) Schedule(d time.Duration, msg messages.Message) {
	time.AfterFunc(d, func() {
		t.target.Publish(msg)
	})
}
