// Package transport feeds raw sensor messages to the rig core. A
// background reader fills a buffered channel; the per-frame update loop
// drains whatever has arrived and never blocks waiting for more.
package transport

import "time"

// Message is one raw sensor report plus its receive timestamp.
type Message struct {
	Data   []byte
	ReadAt time.Time
}

// Transport is the sensing source consumed by the session scheduler.
type Transport interface {
	Start() error

	// Drain returns every message received since the previous call.
	// It returns immediately; an empty slice means no data this frame.
	Drain() []Message

	Stop() error
}
