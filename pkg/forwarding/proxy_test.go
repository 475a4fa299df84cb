package forwarding

import (
	"io"
	"testing"
	"time"

	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
}

type fakeEnvelope struct {
	replies []messages.Message
}

func (e *fakeEnvelope) ReplyWith(m messages.Message) { e.replies = append(e.replies, m) }

func timeoutReply(correlationID uuid.UUID) messages.Message {
	return messages.WriteEventsCompleted{
		CorrelationID: correlationID,
		Result:        messages.OperationForwardTimeout,
	}
}

func TestProxyResolveRepliesOnEnvelope(t *testing.T) {
	p := NewProxy()
	env := &fakeEnvelope{}
	internalID := uuid.New()
	externalID := uuid.New()

	p.Register(internalID, externalID, env, time.Minute, timeoutReply(externalID))
	assert.Equal(t, 1, p.PendingCount())

	reply := messages.WriteEventsCompleted{CorrelationID: externalID, Result: messages.OperationSuccess}
	p.Resolve(internalID, reply)

	require.Len(t, env.replies, 1)
	assert.Equal(t, messages.OperationSuccess, env.replies[0].(messages.WriteEventsCompleted).Result)
	assert.Equal(t, 0, p.PendingCount())

	// A second resolve for the same id is ignored
	p.Resolve(internalID, reply)
	assert.Len(t, env.replies, 1)
}

func TestProxyExpiryRepliesTimeout(t *testing.T) {
	p := NewProxy()
	env := &fakeEnvelope{}
	internalID := uuid.New()
	externalID := uuid.New()

	p.Register(internalID, externalID, env, 10*time.Millisecond, timeoutReply(externalID))
	p.expire(time.Now().Add(time.Second))

	require.Len(t, env.replies, 1)
	completed := env.replies[0].(messages.WriteEventsCompleted)
	assert.Equal(t, messages.OperationForwardTimeout, completed.Result)
	assert.Equal(t, externalID, completed.CorrelationID)
	assert.Equal(t, 0, p.PendingCount())
}

func TestProxyExpiryLeavesFreshForwards(t *testing.T) {
	p := NewProxy()
	env := &fakeEnvelope{}

	p.Register(uuid.New(), uuid.New(), env, time.Minute, timeoutReply(uuid.New()))
	p.expire(time.Now())

	assert.Empty(t, env.replies)
	assert.Equal(t, 1, p.PendingCount())
}

func TestProxySweepLoop(t *testing.T) {
	p := NewProxy()
	p.Start()
	defer p.Stop()

	env := &fakeEnvelope{}
	p.Register(uuid.New(), uuid.New(), env, 20*time.Millisecond, timeoutReply(uuid.New()))

	require.Eventually(t, func() bool {
		return p.PendingCount() == 0
	}, time.Second, 10*time.Millisecond)
}
