package comm

import (
	"context"
	"sync"

	"github.com/alphadose/haxmap"
)

// A mailbox queues the payloads of one (source, tag) pair. It has a single
// consumer, so a one-slot wakeup channel is enough to avoid lost signals.
type mailbox struct {
	mu    sync.Mutex
	queue [][]byte
	err   error
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) notify() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox) put(payload []byte) {
	m.mu.Lock()
	m.queue = append(m.queue, payload)
	m.mu.Unlock()
	m.notify()
}

// fail makes take return err once the queue is drained.
func (m *mailbox) fail(err error) {
	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	m.mu.Unlock()
	m.notify()
}

func (m *mailbox) take(ctx context.Context) ([]byte, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			payload := m.queue[0]
			m.queue[0] = nil
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return payload, nil
		}
		err := m.err
		m.mu.Unlock()
		if err != nil {
			return nil, err
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// A postOffice holds the mailboxes of one endpoint, created on first use
// by either the sender or the receiver.
type postOffice struct {
	boxes *haxmap.Map[uint64, *mailbox]

	mu     sync.Mutex
	failed map[int]error
	all    error
}

func newPostOffice() *postOffice {
	return &postOffice{
		boxes:  haxmap.New[uint64, *mailbox](),
		failed: make(map[int]error),
	}
}

func boxKey(source int, tag Tag) uint64 {
	return uint64(uint32(source))<<32 | uint64(tag)
}

func (po *postOffice) box(source int, tag Tag) *mailbox {
	key := boxKey(source, tag)
	m, ok := po.boxes.Get(key)
	if !ok {
		m, _ = po.boxes.GetOrSet(key, newMailbox())
	}
	po.mu.Lock()
	err := po.all
	if err == nil {
		err = po.failed[source]
	}
	po.mu.Unlock()
	if err != nil {
		m.fail(err)
	}
	return m
}

func (po *postOffice) deliver(source int, tag Tag, payload []byte) {
	po.box(source, tag).put(payload)
}

func (po *postOffice) take(ctx context.Context, source int, tag Tag) ([]byte, error) {
	return po.box(source, tag).take(ctx)
}

// failSource fails every present and future mailbox of source.
func (po *postOffice) failSource(source int, err error) {
	po.mu.Lock()
	if _, ok := po.failed[source]; !ok {
		po.failed[source] = err
	}
	po.mu.Unlock()
	po.boxes.ForEach(func(key uint64, m *mailbox) bool {
		if int(key>>32) == source {
			m.fail(err)
		}
		return true
	})
}

// failAll fails every present and future mailbox.
func (po *postOffice) failAll(err error) {
	po.mu.Lock()
	if po.all == nil {
		po.all = err
	}
	po.mu.Unlock()
	po.boxes.ForEach(func(_ uint64, m *mailbox) bool {
		m.fail(err)
		return true
	})
}
