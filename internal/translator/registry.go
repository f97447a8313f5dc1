// Package translator maps MAVLink message ids to generator functions
// that synthesize a MAVLink reply, consulting the flight controller over
// MSP when the message requires live data (spec.md §4.D).
package translator

import (
	"fmt"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/flightpath-dev/mspmav-bridge/internal/msp"
)

// Generator produces one outbound MAVLink message. ctx carries the
// inbound message that triggered this generator, or nil for
// scheduler-driven (periodic) invocations.
type Generator func(cfg Config, conn *msp.Conn, ctx message.Message) (message.Message, error)

// Config is the subset of runtime configuration a generator needs.
type Config struct {
	SystemID    uint8
	ComponentID uint8
	T0          time.Time
}

// Registry is a read-only-after-startup map from MAVLink message id to
// its generator, populated once and never mutated by the dispatch loop
// (spec.md §4.D: "populated at startup and is read-only thereafter").
type Registry struct {
	generators map[uint32]Generator
}

// NewRegistry builds the registry with the required minimum viable
// generator set: HEARTBEAT, PARAM_VALUE, RAW_IMU, ATTITUDE.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[uint32]Generator)}
	r.register(IDHeartbeat, GenerateHeartbeat)
	r.register(IDParamValue, GenerateParamValue)
	r.register(IDRawIMU, GenerateRawIMU)
	r.register(IDAttitude, GenerateAttitude)
	return r
}

func (r *Registry) register(id uint32, gen Generator) {
	r.generators[id] = gen
}

// Lookup returns the generator registered for id, or ok=false.
func (r *Registry) Lookup(id uint32) (Generator, bool) {
	g, ok := r.generators[id]
	return g, ok
}

// Generate is a convenience wrapper returning a descriptive error when
// no generator is registered for id, for callers that want to log
// precisely (spec.md §4.E step 2: "If no generator is registered, log a
// warning").
func (r *Registry) Generate(id uint32, cfg Config, conn *msp.Conn, triggerMsg message.Message) (message.Message, error) {
	gen, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("translator: no generator registered for message id %d", id)
	}
	return gen(cfg, conn, triggerMsg)
}
