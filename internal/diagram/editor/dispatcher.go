package editor

import (
	"errors"

	"github.com/erdsync/erd-sync/internal/diagram/patch"
	"github.com/erdsync/erd-sync/internal/diagram/transport"
)

// SendState is the state of the most recent patch batch.
type SendState int

const (
	SendIdle SendState = iota
	SendSending
	SendAcked
	SendSessionExpired
	SendFailed
)

func (s SendState) String() string {
	switch s {
	case SendIdle:
		return "idle"
	case SendSending:
		return "sending"
	case SendAcked:
		return "acked"
	case SendSessionExpired:
		return "session_expired"
	case SendFailed:
		return "failed"
	}
	return "unknown"
}

type batch struct {
	ops  []patch.Operation
	done chan struct{}
	stop bool
}

func (e *Editor) enqueue(b batch) {
	e.qmu.Lock()
	e.queue = append(e.queue, b)
	e.qmu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Editor) next() (batch, bool) {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	if len(e.queue) == 0 {
		return batch{}, false
	}
	b := e.queue[0]
	e.queue[0] = batch{}
	e.queue = e.queue[1:]
	return b, true
}

// run sends batches strictly in the order they were queued.
func (e *Editor) run() {
	defer close(e.stopped)
	for {
		b, ok := e.next()
		if !ok {
			<-e.wake
			continue
		}
		switch {
		case b.stop:
			return
		case b.done != nil:
			close(b.done)
		default:
			e.send(b.ops)
		}
	}
}

func (e *Editor) send(ops []patch.Operation) {
	e.mu.Lock()
	if e.diverged {
		e.mu.Unlock()
		e.log.Debug().Str("document_id", e.docID).Int("ops", len(ops)).Msg("batch dropped, document diverged")
		return
	}
	var base *int64
	if e.checkRevision && e.synced {
		rev := e.doc.Revision
		base = &rev
	}
	e.state = SendSending
	e.mu.Unlock()

	ack, err := e.remote.SendPatches(e.ctx, e.docID, ops, base)

	e.mu.Lock()
	switch {
	case err == nil:
		e.state = SendAcked
		e.doc.Revision = ack.Revision
		e.synced = true
	case errors.Is(err, transport.ErrSessionExpired):
		e.state = SendSessionExpired
		e.diverged = true
	default:
		e.state = SendFailed
		e.diverged = true
	}
	e.mu.Unlock()

	if err != nil {
		e.report(err)
	}
}

func (e *Editor) report(err error) {
	if errors.Is(err, transport.ErrSessionExpired) {
		e.notify.SessionExpired(e.docID)
		return
	}
	e.notify.TransportFailed(e.docID, err)
}
