// Package nodeswitch implements direct peer-to-peer connections: it
// accepts inbound direct connections and initiates outbound ones on
// demand, driven by fresh address-resolution results
// handed down from the node aggregate.
package nodeswitch

import (
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
)

// State mirrors hubfunction's IDLE → STARTING → STARTED → STOPPING → IDLE
// pattern.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateStarted
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateStarted:
		return "STARTED"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// EventKind tags an event delivered to the NodeSwitch's owner.
type EventKind int

const (
	EventStarted EventKind = iota
	EventStopped
	EventReceived
	EventDuplicatedVMAC
)

// Event is the tagged variant delivered via Config.OnEvent.
type Event struct {
	Kind EventKind
	Slot int
	PDU  []byte
	VMAC bacsc.VMAC
}

// Config configures a NodeSwitch.
type Config struct {
	CACertChain       []byte
	DeviceCertChain   []byte
	DeviceKey         []byte
	LocalUUID         bacsc.UUID
	LocalVMAC         bacsc.VMAC
	MaxBVLCLen        uint16
	MaxNPDULen        uint16
	ConnectTimeout    time.Duration
	HeartbeatTimeout  time.Duration
	DisconnectTimeout time.Duration

	// MaxDirectConnections bounds both inbound-accepted and
	// outbound-initiated direct peer sockets (shared slot pool, matching
	// `bsc-node-switch`'s single handle for both directions).
	MaxDirectConnections int

	OnEvent   func(Event)
	NewDriver func(cfg socketctx.Config) socketctx.Driver
}

func validate(cfg Config) error {
	if len(cfg.CACertChain) == 0 || len(cfg.DeviceCertChain) == 0 || len(cfg.DeviceKey) == 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "certificate/key buffers must be non-empty", nil)
	}
	if cfg.MaxBVLCLen == 0 || cfg.MaxNPDULen == 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "max BVLC/NPDU length must be non-zero", nil)
	}
	if cfg.ConnectTimeout <= 0 || cfg.HeartbeatTimeout <= 0 || cfg.DisconnectTimeout <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "all timeouts must be strictly positive", nil)
	}
	if cfg.MaxDirectConnections <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "MaxDirectConnections must be positive", nil)
	}
	if cfg.OnEvent == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "OnEvent callback must be set", nil)
	}
	if cfg.NewDriver == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "NewDriver factory must be set", nil)
	}
	return nil
}

// NodeSwitch is the direct peer-to-peer component.
type NodeSwitch struct {
	rt  *bacsc.Runtime
	log zerolog.Logger

	cfg   Config
	ctx   *socketctx.Context
	state State

	// byVMAC tracks which slot (if any) is bound to a destination VMAC,
	// populated by Connect and consulted by Send/Disconnect.
	byVMAC map[bacsc.VMAC]int
}

// New constructs a NodeSwitch bound to rt.
func New(rt *bacsc.Runtime, log zerolog.Logger) *NodeSwitch {
	return &NodeSwitch{rt: rt, log: log, state: StateIdle, byVMAC: map[bacsc.VMAC]int{}}
}

// Start opens an acceptor-capable socket context sized for
// cfg.MaxDirectConnections, ready for both inbound accepts and outbound
// Connect calls.
func (ns *NodeSwitch) Start(cfg Config) error {
	ns.rt.Lock()
	defer ns.rt.Unlock()

	if err := validate(cfg); err != nil {
		return err
	}
	if ns.state != StateIdle {
		return bacsc.NewError(bacsc.KindInvalidOperation, "node-switch already started", nil)
	}

	ns.cfg = cfg
	ns.state = StateStarting
	ns.byVMAC = map[bacsc.VMAC]int{}

	sctxCfg := socketctx.Config{
		Role:              socketctx.RoleAcceptor,
		CACertChain:       cfg.CACertChain,
		DeviceCertChain:   cfg.DeviceCertChain,
		DeviceKey:         cfg.DeviceKey,
		LocalUUID:         cfg.LocalUUID,
		LocalVMAC:         cfg.LocalVMAC,
		MaxBVLCLen:        cfg.MaxBVLCLen,
		MaxNPDULen:        cfg.MaxNPDULen,
		ConnectTimeout:    cfg.ConnectTimeout,
		HeartbeatTimeout:  cfg.HeartbeatTimeout,
		DisconnectTimeout: cfg.DisconnectTimeout,
	}
	driver := cfg.NewDriver(sctxCfg)
	ns.ctx = socketctx.Init(ns.rt, sctxCfg, socketctx.Funcs{
		OnSocketEvent: ns.onSocketEvent,
	}, driver, cfg.MaxDirectConnections)

	ns.state = StateStarted
	ns.emit(Event{Kind: EventStarted})
	return nil
}

// Stop tears down every direct connection and the shared socket context.
func (ns *NodeSwitch) Stop() {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	if ns.state == StateIdle || ns.ctx == nil {
		return
	}
	ns.state = StateStopping
	ns.ctx.Deinit()
	ns.ctx = nil
	ns.byVMAC = map[bacsc.VMAC]int{}
	ns.state = StateIdle
	ns.emit(Event{Kind: EventStopped})
}

// Connect initiates (or, if already connecting/connected, no-ops) a
// direct connection to dest, trying urls in order until one succeeds or
// all are exhausted.
func (ns *NodeSwitch) Connect(dest bacsc.VMAC, urls []bacsc.URL) error {
	ns.rt.Lock()
	defer ns.rt.Unlock()

	if ns.state != StateStarted {
		return bacsc.NewError(bacsc.KindInvalidOperation, "connect while not started", nil)
	}
	if _, ok := ns.byVMAC[dest]; ok {
		return nil
	}
	if len(urls) == 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "connect requires at least one URL", nil)
	}
	slot := ns.freeSlot()
	if slot < 0 {
		return bacsc.NewError(bacsc.KindNoResources, "no free direct-connection slot", nil)
	}
	ns.ctx.Slots[slot].RemoteVMAC = dest
	ns.byVMAC[dest] = slot
	if err := ns.ctx.Connect(slot, urls[0]); err != nil {
		delete(ns.byVMAC, dest)
		return bacsc.NewError(bacsc.KindTransport, "connect failed", err)
	}
	return nil
}

// Disconnect tears down the direct connection to dest, if any.
func (ns *NodeSwitch) Disconnect(dest bacsc.VMAC) {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	slot, ok := ns.byVMAC[dest]
	if !ok {
		return
	}
	delete(ns.byVMAC, dest)
	ns.ctx.Slots[slot].State = socketctx.SlotIdle
}

// Send writes pdu to the direct connection bound to dest.
func (ns *NodeSwitch) Send(dest bacsc.VMAC, pdu []byte) error {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	slot, ok := ns.byVMAC[dest]
	if !ok || ns.ctx.Slots[slot].State != socketctx.SlotConnected {
		return bacsc.NewError(bacsc.KindInvalidOperation, "send to unconnected direct peer", nil)
	}
	if err := ns.ctx.Send(slot, pdu); err != nil {
		return bacsc.NewError(bacsc.KindTransport, "send failed", err)
	}
	return nil
}

// ProcessAddressResolution consumes a fresh URL set for a remote VMAC: if a
// direct connection to that VMAC is already desired (tracked via byVMAC with
// no live slot), this retries Connect with the new URLs.
func (ns *NodeSwitch) ProcessAddressResolution(dest bacsc.VMAC, urls []bacsc.URL) error {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	if ns.state != StateStarted {
		return bacsc.NewError(bacsc.KindInvalidOperation, "process-address-resolution while not started", nil)
	}
	if slot, ok := ns.byVMAC[dest]; ok && ns.ctx.Slots[slot].State != socketctx.SlotIdle {
		return nil
	}
	delete(ns.byVMAC, dest)
	if len(urls) == 0 {
		return nil
	}
	return ns.connectLocked(dest, urls)
}

func (ns *NodeSwitch) connectLocked(dest bacsc.VMAC, urls []bacsc.URL) error {
	slot := ns.freeSlot()
	if slot < 0 {
		return bacsc.NewError(bacsc.KindNoResources, "no free direct-connection slot", nil)
	}
	ns.ctx.Slots[slot].RemoteVMAC = dest
	ns.byVMAC[dest] = slot
	if err := ns.ctx.Connect(slot, urls[0]); err != nil {
		delete(ns.byVMAC, dest)
		return bacsc.NewError(bacsc.KindTransport, "connect failed", err)
	}
	return nil
}

func (ns *NodeSwitch) freeSlot() int {
	for _, s := range ns.ctx.Slots {
		if s.State == socketctx.SlotIdle {
			return s.Index
		}
	}
	return -1
}

func (ns *NodeSwitch) onSocketEvent(s *socketctx.Socket, ev socketctx.SocketEvent, cause socketctx.DisconnectCause, pdu []byte, _ *bvlc.Message) {
	switch ev {
	case socketctx.SocketEventDisconnected:
		if cause == socketctx.CauseDuplicatedVMAC {
			ns.emit(Event{Kind: EventDuplicatedVMAC, Slot: s.Index, VMAC: s.RemoteVMAC})
		}
		delete(ns.byVMAC, s.RemoteVMAC)
	case socketctx.SocketEventReceived:
		ns.emit(Event{Kind: EventReceived, Slot: s.Index, PDU: pdu})
	}
}

// Started reports whether the node-switch is fully up (queried by the
// node aggregate's start predicate, mirroring bsc_node_switch_started).
func (ns *NodeSwitch) Started() bool {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	return ns.state == StateStarted
}

// Stopped reports whether the node-switch has fully returned to IDLE
// (queried by the node aggregate's stop predicate, mirroring
// bsc_node_switch_stopped).
func (ns *NodeSwitch) Stopped() bool {
	ns.rt.Lock()
	defer ns.rt.Unlock()
	return ns.state == StateIdle
}

func (ns *NodeSwitch) emit(ev Event) {
	if ns.cfg.OnEvent != nil {
		ns.cfg.OnEvent(ev)
	}
}
