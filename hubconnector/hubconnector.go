// Package hubconnector implements the outbound hub-connector state machine:
// it maintains an outbound connection to at most one of two configured hub
// URLs, with reconnect-after-delay on total failure.
package hubconnector

import (
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
)

// Slot indices within the Context's two-slot socket set.
const (
	slotPrimary  = 0
	slotFailover = 1
)

// State is one of the eight hub-connector states.
type State int

const (
	StateIdle State = iota
	StateConnectingPrimary
	StateConnectingFailover
	StateConnectedPrimary
	StateConnectedFailover
	StateWaitForReconnect
	StateWaitForCtxDeinit
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnectingPrimary:
		return "CONNECTING_PRIMARY"
	case StateConnectingFailover:
		return "CONNECTING_FAILOVER"
	case StateConnectedPrimary:
		return "CONNECTED_PRIMARY"
	case StateConnectedFailover:
		return "CONNECTED_FAILOVER"
	case StateWaitForReconnect:
		return "WAIT_FOR_RECONNECT"
	case StateWaitForCtxDeinit:
		return "WAIT_FOR_CTX_DEINIT"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is the synchronous, observable connectivity summary.
type Status int

const (
	StatusNotConnected Status = iota
	StatusConnectedPrimary
	StatusConnectedFailover
)

// EventKind tags an event delivered to the HubConnector's owner.
type EventKind int

const (
	EventConnectedPrimary EventKind = iota
	EventConnectedFailover
	EventDisconnected
	EventReceived
	EventStopped
)

// Event is the tagged variant delivered via Config.OnEvent.
type Event struct {
	Kind  EventKind
	Cause socketctx.DisconnectCause
	PDU   []byte
	Err   error
}

// Config configures a HubConnector.
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
	PrimaryURL        bacsc.URL
	FailoverURL       bacsc.URL
	ReconnectTimeout  time.Duration
	OnEvent           func(Event)

	// NewDriver constructs the transport Driver used for this
	// connector's Context. Left as a hook so callers can plug in
	// package transport's websocket Driver, or a fake for tests.
	NewDriver func(cfg socketctx.Config) socketctx.Driver

	// MaxURLLen bounds PrimaryURL/FailoverURL (BSC_WSURL_MAX_LEN).
	MaxURLLen int
}

// HubConnector is the outbound hub-connector state machine. Construct with
// New, drive with Start/Stop/Send/Status.
type HubConnector struct {
	rt  *bacsc.Runtime
	log zerolog.Logger

	cfg   Config
	ctx   *socketctx.Context
	state State
	err   error

	reconnectDeadline time.Time
	reconnectArmed    bool

	now func() time.Time // overridable in tests; defaults to time.Now
}

// New constructs a HubConnector bound to rt. No network or runloop
// activity happens until Start.
func New(rt *bacsc.Runtime, log zerolog.Logger) *HubConnector {
	return &HubConnector{rt: rt, log: log, state: StateIdle, now: time.Now}
}

func validate(cfg Config) error {
	if len(cfg.CACertChain) == 0 || len(cfg.DeviceCertChain) == 0 || len(cfg.DeviceKey) == 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "certificate/key buffers must be non-empty", nil)
	}
	if cfg.LocalVMAC.IsZero() {
		return bacsc.NewError(bacsc.KindBadParameter, "local VMAC must be non-zero", nil)
	}
	if cfg.MaxBVLCLen == 0 || cfg.MaxNPDULen == 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "max BVLC/NPDU length must be non-zero", nil)
	}
	if cfg.ConnectTimeout <= 0 || cfg.HeartbeatTimeout <= 0 || cfg.DisconnectTimeout <= 0 || cfg.ReconnectTimeout <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "all timeouts must be strictly positive", nil)
	}
	maxLen := cfg.MaxURLLen
	if maxLen <= 0 {
		maxLen = 1 << 16
	}
	if cfg.PrimaryURL == "" || cfg.FailoverURL == "" {
		return bacsc.NewError(bacsc.KindBadParameter, "primary/failover URL must be non-empty", nil)
	}
	if len(cfg.PrimaryURL) > maxLen || len(cfg.FailoverURL) > maxLen {
		return bacsc.NewError(bacsc.KindBadParameter, "URL exceeds configured maximum length", nil)
	}
	if cfg.OnEvent == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "OnEvent callback must be set", nil)
	}
	if cfg.NewDriver == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "NewDriver factory must be set", nil)
	}
	return nil
}

// Start validates cfg, registers with the runloop, initializes the socket
// context in initiator role with two slots, and begins connecting to
// PRIMARY.
func (h *HubConnector) Start(cfg Config) error {
	h.rt.Lock()
	defer h.rt.Unlock()

	if err := validate(cfg); err != nil {
		return err
	}
	if h.state != StateIdle {
		return bacsc.NewError(bacsc.KindInvalidOperation, "hub-connector already started", nil)
	}

	h.cfg = cfg
	h.err = nil

	sctxCfg := socketctx.Config{
		Role:              socketctx.RoleInitiator,
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
	h.ctx = socketctx.Init(h.rt, sctxCfg, socketctx.Funcs{
		OnSocketEvent:  h.onSocketEvent,
		OnContextEvent: h.onContextEvent,
	}, driver, 2)

	h.rt.Runloop.Register(h, h.tick)

	h.state = StateConnectingPrimary
	if err := h.ctx.Connect(slotPrimary, cfg.PrimaryURL); err != nil {
		h.state = StateIdle
		h.rt.Runloop.Unregister(h)
		h.ctx.Deinit()
		h.ctx = nil
		return bacsc.NewError(bacsc.KindTransport, "connect to primary failed", err)
	}
	h.log.Debug().Str("state", h.state.String()).Msg("hub-connector started")
	return nil
}

// Stop transitions to WAIT_FOR_CTX_DEINIT, unregisters from the runloop,
// and requests socket-context teardown. EventStopped is delivered later,
// once the context confirms deinitialization.
func (h *HubConnector) Stop() {
	h.rt.Lock()
	defer h.rt.Unlock()
	h.stopLocked()
}

func (h *HubConnector) stopLocked() {
	if h.state == StateIdle || h.state == StateWaitForCtxDeinit || h.ctx == nil {
		return
	}
	h.state = StateWaitForCtxDeinit
	h.rt.Runloop.Unregister(h)
	h.ctx.Deinit()
}

// Send writes pdu on the active slot. Valid only while connected; any
// other state drops pdu with InvalidOperation.
func (h *HubConnector) Send(pdu []byte) error {
	h.rt.Lock()
	defer h.rt.Unlock()

	var slot int
	switch h.state {
	case StateConnectedPrimary:
		slot = slotPrimary
	case StateConnectedFailover:
		slot = slotFailover
	default:
		return bacsc.NewError(bacsc.KindInvalidOperation, "send while not connected", nil)
	}
	if err := h.ctx.Send(slot, pdu); err != nil {
		return bacsc.NewError(bacsc.KindTransport, "send failed", err)
	}
	return nil
}

// Stopped reports whether the connector has fully returned to IDLE
// (mirrors the original's bsc_hub_connector_stopped query, used by the
// node aggregate's stop predicate).
func (h *HubConnector) Stopped() bool {
	h.rt.Lock()
	defer h.rt.Unlock()
	return h.state == StateIdle
}

// State reports the current state verbatim, for callers (e.g. package
// metrics) that need to distinguish WAIT_FOR_RECONNECT and the CONNECTING_*
// states rather than the coarser three-way Status.
func (h *HubConnector) State() State {
	h.rt.Lock()
	defer h.rt.Unlock()
	return h.state
}

// Status reports the current connectivity.
func (h *HubConnector) Status() Status {
	h.rt.Lock()
	defer h.rt.Unlock()
	switch h.state {
	case StateConnectedPrimary:
		return StatusConnectedPrimary
	case StateConnectedFailover:
		return StatusConnectedFailover
	default:
		return StatusNotConnected
	}
}

// connectOrStop begins a connect attempt to the given slot's URL,
// transitioning to the matching CONNECTING-* state; a fatal connect error
// latches StateError and requests a stop.
func (h *HubConnector) connectOrStop(slot int) {
	var url bacsc.URL
	if slot == slotPrimary {
		h.state = StateConnectingPrimary
		url = h.cfg.PrimaryURL
	} else {
		h.state = StateConnectingFailover
		url = h.cfg.FailoverURL
	}
	if err := h.ctx.Connect(slot, url); err != nil {
		h.log.Error().Err(err).Int("slot", slot).Msg("hub-connector fatal connect error")
		h.state = StateError
		h.err = bacsc.NewError(bacsc.KindTransport, "connect failed", err)
		h.stopLocked()
	}
}

func (h *HubConnector) onSocketEvent(s *socketctx.Socket, ev socketctx.SocketEvent, cause socketctx.DisconnectCause, pdu []byte, _ *bvlc.Message) {
	switch ev {
	case socketctx.SocketEventConnected:
		switch h.state {
		case StateConnectingPrimary:
			h.state = StateConnectedPrimary
			h.emit(Event{Kind: EventConnectedPrimary})
		case StateConnectingFailover:
			h.state = StateConnectedFailover
			h.emit(Event{Kind: EventConnectedFailover})
		}
	case socketctx.SocketEventDisconnected:
		h.handleDisconnected(cause)
	case socketctx.SocketEventReceived:
		h.emit(Event{Kind: EventReceived, PDU: pdu})
	}
}

func (h *HubConnector) handleDisconnected(cause socketctx.DisconnectCause) {
	if cause == socketctx.CauseDuplicatedVMAC {
		h.log.Warn().Msg("hub-connector duplicate VMAC, stopping")
		h.state = StateError
		h.err = bacsc.NewError(bacsc.KindDuplicateIdentity, "duplicated VMAC", nil)
		h.emit(Event{Kind: EventDisconnected, Cause: cause, Err: h.err})
		h.stopLocked()
		return
	}

	switch h.state {
	case StateConnectingPrimary:
		h.connectOrStop(slotFailover)
	case StateConnectingFailover:
		h.log.Debug().Dur("reconnect_after", h.cfg.ReconnectTimeout).Msg("hub-connector waiting to reconnect")
		h.state = StateWaitForReconnect
		h.reconnectDeadline = h.now().Add(h.cfg.ReconnectTimeout)
		h.reconnectArmed = true
	case StateConnectedPrimary, StateConnectedFailover:
		h.emit(Event{Kind: EventDisconnected, Cause: cause})
		h.connectOrStop(slotPrimary)
	}
}

func (h *HubConnector) onContextEvent(ev socketctx.CtxEvent) {
	if ev != socketctx.CtxEventDeinitialized {
		return
	}
	// h.err, not h.state, is the record of "was ERROR at some point before
	// this deinit": stopLocked always advances state to
	// WAIT_FOR_CTX_DEINIT before requesting teardown, so by the time this
	// fires h.state is never StateError even when a fatal connect error or
	// duplicated VMAC is what triggered the stop.
	latched := h.err
	h.err = nil
	h.state = StateIdle
	h.ctx = nil
	h.emit(Event{Kind: EventStopped, Err: latched})
}

// tick is registered with the Runtime's runloop; it is the only place the
// WAIT_FOR_RECONNECT → CONNECTING_PRIMARY transition happens, polled once
// per tick: timers are polled, not delivered via a blocking wait.
func (h *HubConnector) tick() {
	h.rt.Lock()
	defer h.rt.Unlock()
	if h.state != StateWaitForReconnect || !h.reconnectArmed {
		return
	}
	if h.now().Before(h.reconnectDeadline) {
		return
	}
	h.reconnectArmed = false
	h.connectOrStop(slotPrimary)
}

func (h *HubConnector) emit(ev Event) {
	if h.cfg.OnEvent != nil {
		h.cfg.OnEvent(ev)
	}
}
