package services

import (
	"github.com/ferrodb/ferro/pkg/bus"
	"github.com/ferrodb/ferro/pkg/eventlog"
	"github.com/ferrodb/ferro/pkg/messages"
	"github.com/ferrodb/ferro/pkg/mesh"
)

// Chaser follows the writer's log and answers catch-up requests. The
// controller only ever talks to it through WaitForChaserToCatchUp and
// ChaserCaughtUp.
type Chaser struct {
	*agent
}

// NewChaser creates the chaser service
func NewChaser(mainQueue bus.Publisher, outputBus *bus.OutputBus) *Chaser {
	c := &Chaser{}
	c.agent = newAgent("chaser", true, true, mainQueue, outputBus, c.process)
	return c
}

func (c *Chaser) process(msg messages.Message) {
	if wait, ok := msg.(messages.WaitForChaserToCatchUp); ok {
		// The chaser tails the writer synchronously in-process, so it
		// is caught up as soon as it is asked.
		c.mainQueue.Publish(messages.ChaserCaughtUp{CorrelationID: wait.CorrelationID})
	}
}

// Writer appends client writes to the log and records epochs
type Writer struct {
	*agent
	store *eventlog.Store
	node  mesh.NodeInfo
}

// NewWriter creates the storage writer service
func NewWriter(mainQueue bus.Publisher, outputBus *bus.OutputBus, store *eventlog.Store, node mesh.NodeInfo) *Writer {
	w := &Writer{store: store, node: node}
	w.agent = newAgent("storage-writer", true, true, mainQueue, outputBus, w.process)
	return w
}

func (w *Writer) process(msg messages.Message) {
	switch m := msg.(type) {
	case messages.WriteEvents:
		w.writeEvents(m)
	case messages.WriteEpoch:
		if _, err := w.store.WriteEpoch(m.ProposalNumber, w.node.InstanceID); err != nil {
			w.logger.Error().Err(err).Msg("failed to write epoch")
		}
	}
}

func (w *Writer) writeEvents(m messages.WriteEvents) {
	records := make([]eventlog.Record, len(m.Events))
	for i, ev := range m.Events {
		records[i] = eventlog.Record{
			Stream:    m.Stream,
			EventID:   ev.EventID,
			EventType: ev.EventType,
			IsJSON:    ev.IsJSON,
			Data:      ev.Data,
			Metadata:  ev.Metadata,
		}
	}

	first, err := w.store.Append(records)
	if err != nil {
		w.logger.Error().Err(err).Str("stream", m.Stream).Msg("append failed")
		if m.Envelope != nil {
			m.Envelope.ReplyWith(messages.WriteEventsCompleted{
				CorrelationID: m.CorrelationID,
				Result:        messages.OperationError,
				Message:       err.Error(),
			})
		}
		return
	}

	if m.Envelope != nil {
		m.Envelope.ReplyWith(messages.WriteEventsCompleted{
			CorrelationID:    m.CorrelationID,
			Result:           messages.OperationSuccess,
			FirstEventNumber: first,
			LastEventNumber:  first + int64(len(records)) - 1,
		})
	}
}

// Reader serves client reads from the local log
type Reader struct {
	*agent
	store *eventlog.Store
}

// NewReader creates the storage reader service
func NewReader(mainQueue bus.Publisher, outputBus *bus.OutputBus, store *eventlog.Store) *Reader {
	r := &Reader{store: store}
	r.agent = newAgent("storage-reader", true, true, mainQueue, outputBus, r.process)
	return r
}

func (r *Reader) process(msg messages.Message) {
	switch m := msg.(type) {
	case messages.ReadEvent:
		r.readEvent(m)
	case messages.ReadStreamEventsForward:
		r.readStreamForward(m)
	}
}

func (r *Reader) readEvent(m messages.ReadEvent) {
	if m.Envelope == nil {
		return
	}

	records, err := r.store.ReadFrom(m.EventNumber, 1)
	if err != nil {
		m.Envelope.ReplyWith(messages.ReadEventCompleted{CorrelationID: m.CorrelationID, Result: messages.ReadError})
		return
	}
	if len(records) == 0 || records[0].Stream != m.Stream {
		m.Envelope.ReplyWith(messages.ReadEventCompleted{CorrelationID: m.CorrelationID, Result: messages.ReadNotFound})
		return
	}

	ev := recorded(records[0])
	m.Envelope.ReplyWith(messages.ReadEventCompleted{
		CorrelationID: m.CorrelationID,
		Result:        messages.ReadSuccess,
		Event:         &ev,
	})
}

func (r *Reader) readStreamForward(m messages.ReadStreamEventsForward) {
	if m.Envelope == nil {
		return
	}

	records, err := r.store.ReadFrom(m.From, m.Count)
	if err != nil {
		m.Envelope.ReplyWith(messages.ReadStreamEventsCompleted{CorrelationID: m.CorrelationID, Result: messages.ReadError})
		return
	}

	var events []messages.RecordedEvent
	next := m.From
	for _, rec := range records {
		next = rec.Sequence + 1
		if rec.Stream != m.Stream {
			continue
		}
		events = append(events, recorded(rec))
	}

	m.Envelope.ReplyWith(messages.ReadStreamEventsCompleted{
		CorrelationID: m.CorrelationID,
		Result:        messages.ReadSuccess,
		Events:        events,
		NextNumber:    next,
		EndOfStream:   len(records) < m.Count,
	})
}

func recorded(rec eventlog.Record) messages.RecordedEvent {
	return messages.RecordedEvent{
		Stream:      rec.Stream,
		EventNumber: rec.Sequence,
		EventID:     rec.EventID,
		EventType:   rec.EventType,
		IsJSON:      rec.IsJSON,
		Data:        rec.Data,
		Metadata:    rec.Metadata,
	}
}
