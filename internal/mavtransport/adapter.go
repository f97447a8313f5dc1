// Package mavtransport adapts gomavlib's blocking-recv Node into a
// recv_timeout/send interface the dispatch loop can poll without
// stalling on scheduled work (spec.md §4.C).
package mavtransport

import (
	"errors"
	"fmt"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// ErrWouldBlock is returned by RecvTimeout when no event arrived before
// the deadline elapsed.
var ErrWouldBlock = errors.New("mavtransport: would block")

// FatalTransportError is returned by RecvTimeout once the background
// receive worker has exited; the transport cannot be recovered and must
// be reopened.
type FatalTransportError struct {
	Err error
}

func (e *FatalTransportError) Error() string {
	if e.Err == nil {
		return "mavtransport: receive worker exited"
	}
	return fmt.Sprintf("mavtransport: receive worker exited: %v", e.Err)
}

func (e *FatalTransportError) Unwrap() error { return e.Err }

// Event is one inbound MAVLink message, stripped to what the dispatch
// loop needs to act on.
type Event struct {
	Message message.Message
	SystemID uint8
	ComponentID uint8
}

// Adapter wraps a gomavlib.Node, running its blocking Events() channel
// read on a background goroutine and republishing onto a bounded queue
// so RecvTimeout can return promptly even when nothing has arrived
// (spec.md §4.C: "A single background worker continually calls the
// underlying blocking recv and pushes each result ... onto a bounded
// single-producer/single-consumer queue").
type Adapter struct {
	node     *gomavlib.Node
	systemID uint8

	queue chan Event
	errs  chan error
	done  chan struct{}
	quit  chan struct{}
}

// Config configures the underlying gomavlib node.
type Config struct {
	Endpoints []gomavlib.EndpointConf
	SystemID  uint8
	QueueSize int
}

// Open starts a gomavlib node over the given endpoints and begins
// draining it on a background goroutine. Dialect is always the common
// dialect and OutVersion is always MAVLink v2, matching spec.md's
// "mavlink v3"-labeled heartbeat semantics (gomavlib's V2 wire encoding,
// the only version it supports for outbound traffic).
func Open(cfg Config) (*Adapter, error) {
	qsize := cfg.QueueSize
	if qsize < 1 {
		qsize = 1
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   cfg.Endpoints,
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: cfg.SystemID,
	})
	if err != nil {
		return nil, fmt.Errorf("mavtransport: open node: %w", err)
	}

	a := &Adapter{
		node:     node,
		systemID: cfg.SystemID,
		queue:    make(chan Event, qsize),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
	}
	go a.worker()
	return a, nil
}

func (a *Adapter) worker() {
	defer close(a.done)
	for evt := range a.node.Events() {
		frm, ok := evt.(*gomavlib.EventFrame)
		if !ok {
			continue
		}
		select {
		case a.queue <- Event{
			Message:     frm.Message(),
			SystemID:    frm.SystemID(),
			ComponentID: frm.ComponentID(),
		}:
		case <-a.quit:
			return
		}
	}
}

// RecvTimeout blocks up to d waiting for the next inbound message. It
// returns ErrWouldBlock if the deadline elapses first, or a
// *FatalTransportError once the background worker has exited (the node
// closed or its endpoints failed).
func (a *Adapter) RecvTimeout(d time.Duration) (Event, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case evt, ok := <-a.queue:
		if !ok {
			return Event{}, &FatalTransportError{}
		}
		return evt, nil
	case <-timer.C:
		select {
		case evt, ok := <-a.queue:
			if !ok {
				return Event{}, &FatalTransportError{}
			}
			return evt, nil
		default:
		}
		select {
		case <-a.done:
			return Event{}, &FatalTransportError{}
		default:
			return Event{}, ErrWouldBlock
		}
	}
}

// Send writes msg to every connected endpoint. The underlying node
// stamps the configured system id (and gomavlib's transport defaults
// for every other header field) on outbound frames; Send does not
// synchronize against the receive worker, matching spec.md §4.C's
// stated precondition that the underlying transport is safe for
// concurrent send/recv.
func (a *Adapter) Send(msg message.Message) error {
	if err := a.node.WriteMessageAll(msg); err != nil {
		return fmt.Errorf("mavtransport: send: %w", err)
	}
	return nil
}

// Close releases the underlying node and its background worker. It
// unblocks a worker parked on a full queue send before waiting for the
// worker to exit, so Close cannot hang even if nothing is draining
// RecvTimeout anymore.
func (a *Adapter) Close() error {
	a.node.Close()
	close(a.quit)
	<-a.done
	return nil
}
