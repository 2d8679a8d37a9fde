package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// maxDatagram bounds a single sensor report. The sensor's delimited
// messages are well under 1 KiB; anything larger is garbage.
const maxDatagram = 2048

// UDP listens for sensor datagrams on a local port. One datagram is one
// message; partial messages never span reads.
type UDP struct {
	addr   string
	logger *slog.Logger

	conn     *net.UDPConn
	messages chan Message

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewUDP returns a transport listening on addr, e.g. ":4001". bufSize
// is the number of messages buffered between frames; beyond it the
// oldest unread data is dropped rather than blocking the reader.
func NewUDP(addr string, bufSize int, logger *slog.Logger) *UDP {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &UDP{
		addr:     addr,
		logger:   logger,
		messages: make(chan Message, bufSize),
		done:     make(chan struct{}),
	}
}

// Start binds the socket and launches the reader goroutine.
func (u *UDP) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.started {
		return errors.New("transport already started")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", u.addr)
	if err != nil {
		return fmt.Errorf("resolving sensor address %q: %w", u.addr, err)
	}
	u.conn, err = net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", u.addr, err)
	}

	u.started = true
	go u.readLoop()

	u.logger.Info("Sensor transport started", "addr", u.addr)
	return nil
}

// Drain returns all messages buffered since the last call without
// blocking.
func (u *UDP) Drain() []Message {
	var out []Message
	for {
		select {
		case m := <-u.messages:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Stop closes the socket and waits for the reader to exit.
func (u *UDP) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.started {
		return nil
	}
	u.started = false
	err := u.conn.Close()
	<-u.done
	u.logger.Info("Sensor transport stopped", "addr", u.addr)
	return err
}

func (u *UDP) readLoop() {
	defer close(u.done)
	buf := make([]byte, maxDatagram)

	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				u.logger.Error("Sensor read failed", "error", err)
			}
			return
		}

		msg := Message{Data: make([]byte, n), ReadAt: time.Now()}
		copy(msg.Data, buf[:n])

		select {
		case u.messages <- msg:
		default:
			// Frame loop has fallen behind; shed the oldest message.
			select {
			case <-u.messages:
			default:
			}
			select {
			case u.messages <- msg:
			default:
			}
		}
	}
}
