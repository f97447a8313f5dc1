// Package dispatch owns the scheduler, MSP codec, MAVLink transport and
// translator registry, and runs the single-threaded loop that
// interleaves scheduled emission with inbound MAVLink polling (spec.md
// §4.E).
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mspmav-bridge/internal/mavtransport"
	"github.com/flightpath-dev/mspmav-bridge/internal/metrics"
	"github.com/flightpath-dev/mspmav-bridge/internal/msp"
	"github.com/flightpath-dev/mspmav-bridge/internal/scheduler"
	"github.com/flightpath-dev/mspmav-bridge/internal/translator"
)

// pollInterval is the recv_timeout duration used when no task is due,
// per spec.md §4.E step 3.
const pollInterval = time.Millisecond

// Loop ties the four core components together.
type Loop struct {
	sched     *scheduler.Schedule
	msp       *msp.Conn
	transport *mavtransport.Adapter
	registry  *translator.Registry
	cfg       translator.Config

	// metrics is nil when the bridge was started with metrics collection
	// disabled; every use site below must tolerate that.
	metrics *metrics.Metrics
}

// New constructs a Loop from its already-opened collaborators. The
// startup preconditions (serial link verified and heartbeat scheduled by
// Startup, MAVLink transport opened) must have already run. m may be nil
// if metrics collection is disabled.
func New(sched *scheduler.Schedule, conn *msp.Conn, transport *mavtransport.Adapter, registry *translator.Registry, cfg translator.Config, m *metrics.Metrics) *Loop {
	return &Loop{sched: sched, msp: conn, transport: transport, registry: registry, cfg: cfg, metrics: m}
}

// Run executes the dispatch loop until ctx is cancelled or a fatal
// transport error occurs.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if task, ok := l.sched.Next(); ok {
			l.emit(task)
			continue
		}

		if err := l.pollOnce(); err != nil {
			return err
		}
	}
}

func (l *Loop) emit(messageID uint32) {
	gen, ok := l.registry.Lookup(messageID)
	if !ok {
		log.WithField("message_id", messageID).Warn("dispatch: no generator registered for scheduled task")
		return
	}

	idLabel := fmt.Sprintf("%d", messageID)
	err := safeCall(func() error {
		out, genErr := gen(l.cfg, l.msp, nil)
		if genErr != nil {
			return genErr
		}
		return l.transport.Send(out)
	})
	if err != nil {
		log.WithError(err).WithField("message_id", messageID).Warn("dispatch: generator failed")
		if l.metrics != nil {
			l.metrics.GeneratorErrors.WithLabelValues(idLabel).Inc()
		}
		return
	}
	if l.metrics != nil {
		l.metrics.MessagesEmitted.WithLabelValues(idLabel).Inc()
	}
}

func (l *Loop) pollOnce() error {
	evt, err := l.transport.RecvTimeout(pollInterval)
	if err != nil {
		if errors.Is(err, mavtransport.ErrWouldBlock) {
			return nil
		}
		var fatal *mavtransport.FatalTransportError
		if errors.As(err, &fatal) {
			return fmt.Errorf("dispatch: transport exited: %w", err)
		}
		return fmt.Errorf("dispatch: recv: %w", err)
	}

	switch m := evt.Message.(type) {
	case *common.MessageHeartbeat:
		// ignored per spec.md §4.E step 3.
	case *common.MessageMessageInterval:
		l.handleMessageInterval(m)
	case *common.MessageDataStream:
		log.WithField("stream_id", m.StreamId).Info("dispatch: DATA_STREAM request")
	default:
		log.WithField("type", fmt.Sprintf("%T", m)).Debug("dispatch: ignoring unhandled message")
	}
	return nil
}

func (l *Loop) handleMessageInterval(m *common.MessageMessageInterval) {
	if m.IntervalUs <= 0 {
		l.sched.Delete(uint32(m.MessageId))
		return
	}
	freqHz := math.Round(1_000_000 / float64(m.IntervalUs))
	if err := l.sched.Insert(uint32(m.MessageId), freqHz); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"message_id":  m.MessageId,
			"interval_us": m.IntervalUs,
		}).Warn("dispatch: MESSAGE_INTERVAL could not be scheduled, keeping prior schedule")
		if l.metrics != nil && errors.Is(err, scheduler.ErrConflict) {
			l.metrics.ScheduleConflicts.Inc()
		}
		return
	}
	log.WithFields(log.Fields{
		"message_id": m.MessageId,
		"freq_hz":    freqHz,
	}).Info("dispatch: scheduled MESSAGE_INTERVAL request")
}

// WireMetrics attaches conn's optional instrumentation hooks to m's
// counters and histogram. m may be nil, in which case this is a no-op
// and conn's hooks are left unset.
func WireMetrics(conn *msp.Conn, m *metrics.Metrics) {
	if m == nil {
		return
	}
	conn.OnFrameParsed = func() { m.FramesParsed.Inc() }
	conn.OnParseError = func(error) { m.FrameParseErrors.Inc() }
	conn.OnRequestLatency = func(d time.Duration) { m.MspRequestLatency.Observe(d.Seconds()) }
}

// Startup performs the preconditions spec.md §4.E requires before the
// loop may run: verify the MSP link by requesting MspIdent, and insert
// the heartbeat task at 1 Hz.
func Startup(conn *msp.Conn, sched *scheduler.Schedule) error {
	resp, err := conn.Request(msp.NewV2(msp.Request, 0, msp.IdentID, nil))
	if err != nil {
		return fmt.Errorf("dispatch: MspIdent probe failed: %w", err)
	}
	if _, err := msp.DecodePayload(msp.IdentID, resp.Payload); err != nil {
		return fmt.Errorf("dispatch: MspIdent response malformed: %w", err)
	}

	if err := sched.Insert(translator.IDHeartbeat, 1); err != nil {
		return fmt.Errorf("dispatch: could not schedule heartbeat: %w", err)
	}
	return nil
}

// WaitForPeer blocks until the MAVLink transport adapter has delivered
// at least one event, for listening-style transports where the first
// peer may not have dialed in yet (spec.md §4.E: "Open the MAVLink
// transport (blocking until the first peer connects for listening
// transports)"). It polls the adapter's own RecvTimeout rather than the
// underlying node directly, so it never competes with the adapter's
// background worker for the same channel.
func WaitForPeer(transport *mavtransport.Adapter, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := transport.RecvTimeout(50 * time.Millisecond)
		if err == nil {
			return nil
		}
		if !errors.Is(err, mavtransport.ErrWouldBlock) {
			return fmt.Errorf("dispatch: waiting for MAVLink peer: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dispatch: timed out waiting for MAVLink peer")
		}
	}
}
