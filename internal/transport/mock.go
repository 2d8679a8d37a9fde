package transport

import "time"

// Mock is an in-memory transport for tests and dry runs. Messages
// queued with Queue are returned by the next Drain.
type Mock struct {
	pending []Message
	started bool
}

// NewMock returns an empty mock transport.
func NewMock() *Mock {
	return &Mock{}
}

// Queue appends a raw message to be delivered on the next Drain.
func (m *Mock) Queue(data []byte) {
	m.pending = append(m.pending, Message{Data: data, ReadAt: time.Now()})
}

// Start marks the transport started.
func (m *Mock) Start() error {
	m.started = true
	return nil
}

// Drain returns and clears the queued messages.
func (m *Mock) Drain() []Message {
	out := m.pending
	m.pending = nil
	return out
}

// Stop marks the transport stopped.
func (m *Mock) Stop() error {
	m.started = false
	return nil
}
