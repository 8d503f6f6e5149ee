// Package hubfunction implements the inbound hub-function mini-broker: it
// accepts connections from peer nodes and relays BVLC-SC PDUs between them
// by destination VMAC, forwarding anything it can't resolve locally up to
// its owner (the node aggregate) as a RECEIVED event.
package hubfunction

import (
	"context"
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// State is one of the five hub-function states (IDLE → STARTING →
// STARTED → STOPPING → IDLE).
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

// EventKind tags an event delivered to the HubFunction's owner.
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

// Config configures a HubFunction, adapted to the acceptor role.
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

	// MaxPeers bounds how many inbound peer sockets this hub-function
	// will accept concurrently.
	MaxPeers int

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
	if cfg.MaxPeers <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "MaxPeers must be positive", nil)
	}
	if cfg.OnEvent == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "OnEvent callback must be set", nil)
	}
	if cfg.NewDriver == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "NewDriver factory must be set", nil)
	}
	return nil
}

// HubFunction is the inbound mini-broker.
type HubFunction struct {
	rt  *bacsc.Runtime
	log zerolog.Logger

	cfg   Config
	ctx   *socketctx.Context
	state State
}

// New constructs a HubFunction bound to rt.
func New(rt *bacsc.Runtime, log zerolog.Logger) *HubFunction {
	return &HubFunction{rt: rt, log: log, state: StateIdle}
}

// Start validates cfg and opens an acceptor socket context with
// cfg.MaxPeers slots. Becomes STARTED synchronously once the context is
// ready to accept, mirroring the hub-connector pattern; unlike
// hub-connector there is no outbound dial to await, so
// STARTING collapses into STARTED within this call).
func (hf *HubFunction) Start(cfg Config) error {
	hf.rt.Lock()
	defer hf.rt.Unlock()

	if err := validate(cfg); err != nil {
		return err
	}
	if hf.state != StateIdle {
		return bacsc.NewError(bacsc.KindInvalidOperation, "hub-function already started", nil)
	}

	hf.cfg = cfg
	hf.state = StateStarting

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
	hf.ctx = socketctx.Init(hf.rt, sctxCfg, socketctx.Funcs{
		OnSocketEvent: hf.onSocketEvent,
	}, driver, cfg.MaxPeers)

	hf.state = StateStarted
	hf.emit(Event{Kind: EventStarted})
	hf.log.Debug().Int("max_peers", cfg.MaxPeers).Msg("hub-function started")
	return nil
}

// Stop fans out per-peer teardown bookkeeping across every occupied slot
// concurrently via errgroup before tearing down the shared socket
// context, then emits STOPPED.
func (hf *HubFunction) Stop() {
	hf.rt.Lock()
	defer hf.rt.Unlock()

	if hf.state == StateIdle || hf.ctx == nil {
		return
	}
	hf.state = StateStopping

	g, _ := errgroup.WithContext(context.Background())
	for _, s := range hf.ctx.Slots {
		s := s
		if s.State == socketctx.SlotIdle {
			continue
		}
		g.Go(func() error {
			hf.log.Debug().Int("slot", s.Index).Msg("hub-function draining peer")
			return nil
		})
	}
	_ = g.Wait()

	hf.ctx.Deinit()
	hf.ctx = nil
	hf.state = StateIdle
	hf.emit(Event{Kind: EventStopped})
}

// Send relays pdu to the peer bound to destVMAC. Returns NoResources-kind
// error (via KindInvalidOperation) if no connected peer matches.
func (hf *HubFunction) Send(destVMAC bacsc.VMAC, pdu []byte) error {
	hf.rt.Lock()
	defer hf.rt.Unlock()

	if hf.state != StateStarted {
		return bacsc.NewError(bacsc.KindInvalidOperation, "send while not started", nil)
	}
	for _, s := range hf.ctx.Slots {
		if s.State == socketctx.SlotConnected && s.RemoteVMAC == destVMAC {
			if err := hf.ctx.Send(s.Index, pdu); err != nil {
				return bacsc.NewError(bacsc.KindTransport, "send failed", err)
			}
			return nil
		}
	}
	return bacsc.NewError(bacsc.KindInvalidOperation, "no connected peer for destination VMAC", nil)
}

func (hf *HubFunction) onSocketEvent(s *socketctx.Socket, ev socketctx.SocketEvent, cause socketctx.DisconnectCause, pdu []byte, decoded *bvlc.Message) {
	switch ev {
	case socketctx.SocketEventDisconnected:
		if cause == socketctx.CauseDuplicatedVMAC {
			hf.emit(Event{Kind: EventDuplicatedVMAC, Slot: s.Index, VMAC: s.RemoteVMAC})
		}
	case socketctx.SocketEventReceived:
		if hf.relay(s, decoded, pdu) {
			return
		}
		hf.emit(Event{Kind: EventReceived, Slot: s.Index, PDU: pdu})
	}
}

// relay forwards pdu to its destination peer if one is connected locally,
// returning true if it handled delivery. A PDU with no destination VMAC,
// or one aimed at this node itself, is left for the owner to handle.
func (hf *HubFunction) relay(from *socketctx.Socket, decoded *bvlc.Message, pdu []byte) bool {
	if decoded == nil || decoded.Header.Dest == nil {
		return false
	}
	dest := bacsc.VMAC(*decoded.Header.Dest)
	if dest == hf.cfg.LocalVMAC {
		return false
	}
	for _, s := range hf.ctx.Slots {
		if s.Index == from.Index {
			continue
		}
		if s.State == socketctx.SlotConnected && s.RemoteVMAC == dest {
			if err := hf.ctx.Send(s.Index, pdu); err != nil {
				hf.log.Warn().Err(err).Int("from_slot", from.Index).Int("to_slot", s.Index).Msg("hub-function relay send failed")
			}
			return true
		}
	}
	return false
}

// Started reports whether the hub-function is fully up (queried by the
// node aggregate's start predicate rather than relying solely on the
// STARTED event, mirroring bsc_hub_function_started).
func (hf *HubFunction) Started() bool {
	hf.rt.Lock()
	defer hf.rt.Unlock()
	return hf.state == StateStarted
}

// Stopped reports whether the hub-function has fully returned to IDLE
// (queried by the node aggregate's stop predicate, mirroring
// bsc_hub_function_stopped).
func (hf *HubFunction) Stopped() bool {
	hf.rt.Lock()
	defer hf.rt.Unlock()
	return hf.state == StateIdle
}

func (hf *HubFunction) emit(ev Event) {
	if hf.cfg.OnEvent != nil {
		hf.cfg.OnEvent(ev)
	}
}
