// Package node implements the connection-management aggregate: it
// composes a hubconnector, an optional hubfunction and an optional
// nodeswitch behind a single lifecycle, owns the
// fixed-size address-resolution table, runs the duplicate-VMAC restart
// protocol, and dispatches inbound BVLC-SC control PDUs the sub-components
// couldn't resolve themselves.
package node

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
	"github.com/joeycumines/bacsc/hubconnector"
	"github.com/joeycumines/bacsc/hubfunction"
	"github.com/joeycumines/bacsc/nodeswitch"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// State is the node's aggregate lifecycle state: IDLE,
// STARTING, STARTED, RESTARTING and STOPPING.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateStarted
	StateRestarting
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
	case StateRestarting:
		return "RESTARTING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// EventKind tags an event delivered to the node's owner.
type EventKind int

const (
	EventStarted EventKind = iota
	EventRestarted
	EventStopped
	EventReceived
)

// Event is the tagged variant delivered via Config.OnEvent.
type Event struct {
	Kind EventKind
	PDU  []byte
}

// Config flattens the three sub-component configs into one struct, plus
// the knobs the control-message dispatch table needs (accept-URIs to
// offer, and the bounds the ADDRESS_RESOLUTION_ACK URL parser enforces).
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
	ReconnectTimeout  time.Duration
	PrimaryURL        bacsc.URL
	FailoverURL       bacsc.URL
	MaxURLLen         int

	HubFunctionEnabled   bool
	HubFunctionMaxPeers  int
	NodeSwitchEnabled    bool
	MaxDirectConnections int

	// MaxResolutionEntries sizes the fixed address-resolution table
	// (a fixed-size resolution-entry table per node).
	MaxResolutionEntries int
	// AddressResolutionFreshness bounds how long a resolved URL set is
	// trusted before GetAddressResolution reports it as absent again.
	AddressResolutionFreshness time.Duration
	// MaxURLsPerResolution / MaxURLLenPerResolution cap how many
	// space-separated URLs (and how long each) an ADDRESS_RESOLUTION_ACK
	// body is allowed to contribute.
	MaxURLsPerResolution   int
	MaxURLLenPerResolution int

	// DirectConnectAcceptURIs is this node's own space-separated list of
	// URLs offered in an ADDRESS_RESOLUTION_ACK reply when node-switch is
	// enabled.
	DirectConnectAcceptURIs []byte

	OnEvent   func(Event)
	NewDriver func(cfg socketctx.Config) socketctx.Driver
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
	if cfg.HubFunctionEnabled && cfg.HubFunctionMaxPeers <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "HubFunctionMaxPeers must be positive when enabled", nil)
	}
	if cfg.NodeSwitchEnabled && cfg.MaxDirectConnections <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "MaxDirectConnections must be positive when enabled", nil)
	}
	if cfg.MaxResolutionEntries <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "MaxResolutionEntries must be positive", nil)
	}
	if cfg.AddressResolutionFreshness <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "AddressResolutionFreshness must be positive", nil)
	}
	if cfg.MaxURLsPerResolution <= 0 || cfg.MaxURLLenPerResolution <= 0 {
		return bacsc.NewError(bacsc.KindBadParameter, "MaxURLsPerResolution/MaxURLLenPerResolution must be positive", nil)
	}
	if cfg.OnEvent == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "OnEvent callback must be set", nil)
	}
	if cfg.NewDriver == nil {
		return bacsc.NewError(bacsc.KindBadParameter, "NewDriver factory must be set", nil)
	}
	return nil
}

// npduBufSize is the scratch buffer size used for every locally-synthesized
// control PDU (RESULT/ADVERTISEMENT/ADDRESS_RESOLUTION/ACK), comfortably
// larger than any of them.
const npduBufSize = 2048

// resolutionEntry is one slot of the fixed-size address-resolution table.
type resolutionEntry struct {
	used       bool
	vmac       bacsc.VMAC
	urls       []bacsc.URL
	freshUntil time.Time
}

// AddressResolution is the read-only snapshot returned by
// GetAddressResolution.
type AddressResolution struct {
	VMAC bacsc.VMAC
	URLs []bacsc.URL
}

// Node is the connection-management aggregate. Construct with New against a
// shared Runtime (and a fixed-size Pool, for production use); drive with
// Start/Stop/Send/HubConnectorSend/GetAddressResolution/SendAddressResolution.
type Node struct {
	rt  *bacsc.Runtime
	log zerolog.Logger

	used bool
	cfg  Config
	vmac bacsc.VMAC
	uuid bacsc.UUID

	state      State
	resolution []resolutionEntry

	hc *hubconnector.HubConnector
	hf *hubfunction.HubFunction
	ns *nodeswitch.NodeSwitch

	// starting is true for the duration of startState's synchronous
	// sub-component construction. It suppresses processStartEvent while
	// a later-enabled sub-component (e.g. node-switch, constructed after
	// hub-function) hasn't been created yet, so an early STARTED event
	// from one sub-component can't be mistaken for "the others don't
	// exist so they must be done". startState runs its own unconditional
	// check once construction finishes.
	starting bool

	msgSeq       uint32
	resolveGroup singleflight.Group
	now          func() time.Time
}

// newNode constructs an unused Node bound to rt. Exported indirectly via
// Pool.Alloc; a bare Node is also usable standalone (e.g. in tests) by
// calling Start directly.
func newNode(rt *bacsc.Runtime, log zerolog.Logger) *Node {
	return &Node{rt: rt, log: log, state: StateIdle, now: time.Now}
}

// New constructs a standalone Node bound to rt, bypassing the pool. Useful
// for tests and for callers that don't need a bounded pool of nodes.
func New(rt *bacsc.Runtime, log zerolog.Logger) *Node {
	return newNode(rt, log)
}

// Start begins the node from IDLE: zeroes the
// resolution table, starts the hub-connector, then (if enabled) the
// hub-function and node-switch. Reports STARTED once every enabled
// sub-component confirms it has started.
func (n *Node) Start(cfg Config) error {
	n.rt.Lock()
	defer n.rt.Unlock()

	if err := validate(cfg); err != nil {
		return err
	}
	if n.state != StateIdle {
		return bacsc.NewError(bacsc.KindInvalidOperation, "node already started", nil)
	}

	n.cfg = cfg
	n.vmac = cfg.LocalVMAC
	n.uuid = cfg.LocalUUID
	return n.startState(StateStarting)
}

// startState is shared between Start (STARTING) and the restart protocol
// (RESTARTING), mirroring bsc_node_start_state: on a fresh start the
// resolution table is zeroed; on a restart the local VMAC is regenerated
// instead, and the resolution table
// survives the restart.
func (n *Node) startState(state State) error {
	n.state = state
	n.starting = true
	n.hc = nil
	n.hf = nil
	n.ns = nil

	if state != StateRestarting {
		n.resolution = make([]resolutionEntry, n.cfg.MaxResolutionEntries)
	} else {
		vmac, err := bacsc.NewRandomVMAC()
		if err != nil {
			n.state = StateIdle
			n.starting = false
			return bacsc.NewError(bacsc.KindTransport, "regenerate VMAC on restart failed", err)
		}
		n.vmac = vmac
	}

	n.hc = hubconnector.New(n.rt, n.log)
	if err := n.hc.Start(hubconnector.Config{
		CACertChain:       n.cfg.CACertChain,
		DeviceCertChain:   n.cfg.DeviceCertChain,
		DeviceKey:         n.cfg.DeviceKey,
		LocalUUID:         n.uuid,
		LocalVMAC:         n.vmac,
		MaxBVLCLen:        n.cfg.MaxBVLCLen,
		MaxNPDULen:        n.cfg.MaxNPDULen,
		ConnectTimeout:    n.cfg.ConnectTimeout,
		HeartbeatTimeout:  n.cfg.HeartbeatTimeout,
		DisconnectTimeout: n.cfg.DisconnectTimeout,
		PrimaryURL:        n.cfg.PrimaryURL,
		FailoverURL:       n.cfg.FailoverURL,
		ReconnectTimeout:  n.cfg.ReconnectTimeout,
		MaxURLLen:         n.cfg.MaxURLLen,
		OnEvent:           n.onHubConnectorEvent,
		NewDriver:         n.cfg.NewDriver,
	}); err != nil {
		n.hc = nil
		n.state = StateIdle
		n.starting = false
		return err
	}

	if n.cfg.HubFunctionEnabled {
		n.hf = hubfunction.New(n.rt, n.log)
		if err := n.hf.Start(hubfunction.Config{
			CACertChain:       n.cfg.CACertChain,
			DeviceCertChain:   n.cfg.DeviceCertChain,
			DeviceKey:         n.cfg.DeviceKey,
			LocalUUID:         n.uuid,
			LocalVMAC:         n.vmac,
			MaxBVLCLen:        n.cfg.MaxBVLCLen,
			MaxNPDULen:        n.cfg.MaxNPDULen,
			ConnectTimeout:    n.cfg.ConnectTimeout,
			HeartbeatTimeout:  n.cfg.HeartbeatTimeout,
			DisconnectTimeout: n.cfg.DisconnectTimeout,
			MaxPeers:          n.cfg.HubFunctionMaxPeers,
			OnEvent:           n.onHubFunctionEvent,
			NewDriver:         n.cfg.NewDriver,
		}); err != nil {
			n.hf = nil
			n.hc.Stop()
			n.hc = nil
			n.state = StateIdle
			n.starting = false
			return err
		}
	}

	if n.cfg.NodeSwitchEnabled {
		n.ns = nodeswitch.New(n.rt, n.log)
		if err := n.ns.Start(nodeswitch.Config{
			CACertChain:          n.cfg.CACertChain,
			DeviceCertChain:      n.cfg.DeviceCertChain,
			DeviceKey:            n.cfg.DeviceKey,
			LocalUUID:            n.uuid,
			LocalVMAC:            n.vmac,
			MaxBVLCLen:           n.cfg.MaxBVLCLen,
			MaxNPDULen:           n.cfg.MaxNPDULen,
			ConnectTimeout:       n.cfg.ConnectTimeout,
			HeartbeatTimeout:     n.cfg.HeartbeatTimeout,
			DisconnectTimeout:    n.cfg.DisconnectTimeout,
			MaxDirectConnections: n.cfg.MaxDirectConnections,
			OnEvent:              n.onNodeSwitchEvent,
			NewDriver:            n.cfg.NewDriver,
		}); err != nil {
			n.ns = nil
			n.hc.Stop()
			n.hc = nil
			if n.hf != nil {
				n.hf.Stop()
				n.hf = nil
			}
			n.state = StateIdle
			n.starting = false
			return err
		}
	}

	n.starting = false
	// Construction of every enabled sub-component is now complete; any
	// STARTED events they fired synchronously during their own Start
	// calls above were suppressed by n.starting, so check the
	// aggregate predicate once, explicitly, here.
	n.processStartEvent()
	return nil
}

// Stop tears the node down from STARTED: requests
// every enabled sub-component to stop and waits (via their STOPPED
// events) for all of them before emitting STOPPED itself.
func (n *Node) Stop() {
	n.rt.Lock()
	defer n.rt.Unlock()
	if n.state == StateIdle {
		return
	}
	n.state = StateStopping
	n.stopAll()
}

func (n *Node) stopAll() {
	if n.hc != nil {
		n.hc.Stop()
	}
	if n.cfg.HubFunctionEnabled && n.hf != nil {
		n.hf.Stop()
	}
	if n.cfg.NodeSwitchEnabled && n.ns != nil {
		n.ns.Stop()
	}
}

// maybeRestart triggers the duplicate-VMAC restart protocol, unless a
// stop or restart is already underway (mirrors
// bsc-node.c's `state != STOPPING && state != RESTARTING` guard).
func (n *Node) maybeRestart() {
	if n.state == StateStopping || n.state == StateRestarting {
		return
	}
	n.state = StateRestarting
	n.stopAll()
}

// allStopped mirrors bsc_node_process_stop_event's aggregation predicate:
// every enabled sub-component with a live handle must itself report
// Stopped(); a nil handle (already torn down) trivially counts as stopped.
func (n *Node) allStopped() bool {
	if n.hc != nil && !n.hc.Stopped() {
		return false
	}
	if n.cfg.HubFunctionEnabled && n.hf != nil && !n.hf.Stopped() {
		return false
	}
	if n.cfg.NodeSwitchEnabled && n.ns != nil && !n.ns.Stopped() {
		return false
	}
	return true
}

// allStarted mirrors bsc_node_process_start_event: only hub-function and
// node-switch (when enabled) gate STARTED/RESTARTED; the hub-connector's
// Start call is synchronous and carries no separate "started" signal.
func (n *Node) allStarted() bool {
	if n.cfg.HubFunctionEnabled && n.hf != nil && !n.hf.Started() {
		return false
	}
	if n.cfg.NodeSwitchEnabled && n.ns != nil && !n.ns.Started() {
		return false
	}
	return true
}

func (n *Node) processStopEvent() {
	if !n.allStopped() {
		return
	}
	switch n.state {
	case StateStopping:
		n.state = StateIdle
		n.emit(Event{Kind: EventStopped})
	case StateRestarting:
		if err := n.startState(StateRestarting); err != nil {
			n.log.Error().Err(err).Msg("node restart failed")
		}
	}
}

func (n *Node) processStartEvent() {
	if n.starting || !n.allStarted() {
		return
	}
	switch n.state {
	case StateStarting:
		n.state = StateStarted
		n.emit(Event{Kind: EventStarted})
	case StateRestarting:
		n.state = StateStarted
		n.emit(Event{Kind: EventRestarted})
	}
}

// Send transmits an application PDU: routed via the
// node-switch if enabled (decoding the PDU's destination VMAC to pick the
// direct connection), else via the hub-connector.
func (n *Node) Send(pdu []byte) error {
	n.rt.Lock()
	defer n.rt.Unlock()
	if n.state != StateStarted {
		return bacsc.NewError(bacsc.KindInvalidOperation, "send while not started", nil)
	}
	if n.cfg.NodeSwitchEnabled && n.ns != nil {
		msg, err := bvlc.Decode(pdu)
		if err != nil || msg.Header.Dest == nil {
			return bacsc.NewError(bacsc.KindBadParameter, "send via node-switch requires a destination VMAC", err)
		}
		dest := bacsc.VMAC(*msg.Header.Dest)
		return n.ns.Send(dest, pdu)
	}
	if n.hc == nil {
		return bacsc.NewError(bacsc.KindInvalidOperation, "hub-connector not available", nil)
	}
	return n.hc.Send(pdu)
}

// HubConnectorSend forces the hub-connector path regardless of node-switch
// presence: used for control responses
// that must traverse the hub rather than a not-yet-established direct
// connection.
func (n *Node) HubConnectorSend(pdu []byte) error {
	n.rt.Lock()
	defer n.rt.Unlock()
	if n.state != StateStarted {
		return bacsc.NewError(bacsc.KindInvalidOperation, "hub-connector send while not started", nil)
	}
	if n.hc == nil {
		return bacsc.NewError(bacsc.KindInvalidOperation, "hub-connector not available", nil)
	}
	return n.hc.Send(pdu)
}

// State reports the node's current lifecycle state, for callers (e.g.
// package metrics) that observe it from outside the OnEvent callback.
func (n *Node) State() State {
	n.rt.Lock()
	defer n.rt.Unlock()
	return n.state
}

// HubConnectorState reports the embedded hub-connector's current state, or
// ok=false if the node has no hub-connector running (never started, or
// between a stop and the next start).
func (n *Node) HubConnectorState() (state hubconnector.State, ok bool) {
	n.rt.Lock()
	defer n.rt.Unlock()
	if n.hc == nil {
		return 0, false
	}
	return n.hc.State(), true
}

// ResolutionCacheSize reports how many VMAC entries the node's address-
// resolution cache currently holds, expired or not (expiry is only
// evaluated lazily by GetAddressResolution/findResolution).
func (n *Node) ResolutionCacheSize() int {
	n.rt.Lock()
	defer n.rt.Unlock()
	return len(n.resolution)
}

// GetAddressResolution returns the cached URL set for vmac iff one is
// recorded and its freshness timer hasn't expired. An expired entry is reported as
// absent without being mutated.
func (n *Node) GetAddressResolution(vmac bacsc.VMAC) (AddressResolution, bool) {
	n.rt.Lock()
	defer n.rt.Unlock()
	if n.state != StateStarted {
		return AddressResolution{}, false
	}
	e := n.findResolution(vmac)
	if e == nil || n.now().After(e.freshUntil) {
		return AddressResolution{}, false
	}
	return AddressResolution{VMAC: e.vmac, URLs: append([]bacsc.URL(nil), e.urls...)}, true
}

// SendAddressResolution sends an ADDRESS_RESOLUTION request for dest over
// the hub. Concurrent requests
// for the same dest are deduplicated via singleflight so a burst of
// lookups for one VMAC only puts one request on the wire.
func (n *Node) SendAddressResolution(dest bacsc.VMAC) error {
	_, err, _ := n.resolveGroup.Do(dest.String(), func() (any, error) {
		n.rt.Lock()
		defer n.rt.Unlock()
		if n.state != StateStarted {
			return nil, bacsc.NewError(bacsc.KindInvalidOperation, "send-address-resolution while not started", nil)
		}
		buf := make([]byte, npduBufSize)
		nBytes := bvlc.EncodeAddressResolution(buf, n.nextMessageID(), [6]byte(n.vmac), [6]byte(dest))
		if nBytes == 0 {
			return nil, bacsc.NewError(bacsc.KindLocalEncodingFailure, "address-resolution encode failed", nil)
		}
		return nil, n.HubConnectorSend(buf[:nBytes])
	})
	return err
}

func (n *Node) nextMessageID() uint16 {
	return uint16(atomic.AddUint32(&n.msgSeq, 1))
}

func (n *Node) findResolution(vmac bacsc.VMAC) *resolutionEntry {
	for i := range n.resolution {
		if n.resolution[i].used && n.resolution[i].vmac == vmac {
			return &n.resolution[i]
		}
	}
	return nil
}

func (n *Node) getOrAllocResolution(vmac bacsc.VMAC) *resolutionEntry {
	if e := n.findResolution(vmac); e != nil {
		return e
	}
	for i := range n.resolution {
		if !n.resolution[i].used {
			n.resolution[i] = resolutionEntry{used: true, vmac: vmac}
			return &n.resolution[i]
		}
	}
	return nil
}

func (n *Node) onHubConnectorEvent(ev hubconnector.Event) {
	switch ev.Kind {
	case hubconnector.EventStopped:
		n.hc = nil
		n.processStopEvent()
	case hubconnector.EventDisconnected:
		if ev.Cause == socketctx.CauseDuplicatedVMAC {
			n.maybeRestart()
		}
	case hubconnector.EventReceived:
		n.processReceived(ev.PDU)
	}
}

func (n *Node) onHubFunctionEvent(ev hubfunction.Event) {
	switch ev.Kind {
	case hubfunction.EventStarted:
		n.processStartEvent()
	case hubfunction.EventStopped:
		n.hf = nil
		n.processStopEvent()
	case hubfunction.EventDuplicatedVMAC:
		n.maybeRestart()
	case hubfunction.EventReceived:
		n.processReceived(ev.PDU)
	}
}

func (n *Node) onNodeSwitchEvent(ev nodeswitch.Event) {
	switch ev.Kind {
	case nodeswitch.EventStarted:
		n.processStartEvent()
	case nodeswitch.EventStopped:
		n.ns = nil
		n.processStopEvent()
	case nodeswitch.EventDuplicatedVMAC:
		n.maybeRestart()
	case nodeswitch.EventReceived:
		n.processReceived(ev.PDU)
	}
}

// processReceived implements the BVLC-SC control-message dispatch: a
// must-understand destination option the node doesn't
// recognize short-circuits the whole dispatch with a RESULT NAK; otherwise
// the PDU is routed by its function code.
func (n *Node) processReceived(pdu []byte) {
	msg, err := bvlc.Decode(pdu)
	if err != nil {
		n.log.Warn().Err(err).Msg("node dropping undecodable PDU")
		return
	}

	for _, opt := range msg.Header.DestOptions {
		if opt.MustUnderstand {
			n.replyHeaderNotUnderstood(msg)
			return
		}
	}

	switch msg.Header.Function {
	case bvlc.FunctionResult:
		n.handleResult(msg)
	case bvlc.FunctionAdvertisement:
		// Informational only; this node doesn't maintain a hub-status
		// cache of its own; ADVERTISEMENT is ignored.
	case bvlc.FunctionAdvertisementSolicitation:
		n.handleAdvertisementSolicitation(msg)
	case bvlc.FunctionAddressResolution:
		n.handleAddressResolution(msg)
	case bvlc.FunctionAddressResolutionACK:
		n.handleAddressResolutionACK(msg)
	case bvlc.FunctionEncapsulatedNPDU:
		n.emit(Event{Kind: EventReceived, PDU: pdu})
	default:
		n.log.Debug().Stringer("function", msg.Header.Function).Msg("node dropping unrecognized BVLC-SC function")
	}
}

func (n *Node) replyHeaderNotUnderstood(msg *bvlc.Message) {
	if msg.Header.Origin == nil {
		return
	}
	buf := make([]byte, npduBufSize)
	nBytes := bvlc.EncodeResult(buf, n.nextMessageID(), [6]byte(n.vmac), *msg.Header.Origin,
		msg.Header.Function, true, bvlc.ErrorClassCommunication, bvlc.ErrorCodeHeaderNotUnderstood,
		[]byte("'must understand' option not understood "))
	n.sendControlReply(nBytes, buf)
}

func (n *Node) handleResult(msg *bvlc.Message) {
	payload, ok := msg.Payload.(*bvlc.ResultPayload)
	if !ok || !payload.IsNAK || payload.RespondingFunction != bvlc.FunctionAddressResolution {
		return
	}
	if msg.Header.Origin == nil {
		return
	}
	origin := bacsc.VMAC(*msg.Header.Origin)
	e := n.getOrAllocResolution(origin)
	if e == nil {
		return
	}
	e.urls = nil
	e.freshUntil = n.now().Add(n.cfg.AddressResolutionFreshness)
}

func (n *Node) handleAdvertisementSolicitation(msg *bvlc.Message) {
	if msg.Header.Origin == nil {
		return
	}
	directSupport := bvlc.DirectConnectionsAcceptUnsupported
	if n.cfg.NodeSwitchEnabled {
		directSupport = bvlc.DirectConnectionsAcceptSupported
	}
	buf := make([]byte, npduBufSize)
	nBytes := bvlc.EncodeAdvertisement(buf, n.nextMessageID(), [6]byte(n.vmac), *msg.Header.Origin,
		uint8(n.hubConnectorStatus()), directSupport, n.cfg.MaxBVLCLen, n.cfg.MaxNPDULen)
	n.sendControlReply(nBytes, buf)
}

func (n *Node) hubConnectorStatus() hubconnector.Status {
	if n.hc == nil {
		return hubconnector.StatusNotConnected
	}
	return n.hc.Status()
}

func (n *Node) handleAddressResolution(msg *bvlc.Message) {
	if msg.Header.Origin == nil {
		return
	}
	buf := make([]byte, npduBufSize)
	var nBytes int
	if n.cfg.NodeSwitchEnabled {
		nBytes = bvlc.EncodeAddressResolutionACK(buf, n.nextMessageID(), [6]byte(n.vmac), *msg.Header.Origin, n.cfg.DirectConnectAcceptURIs)
	} else {
		nBytes = bvlc.EncodeResult(buf, n.nextMessageID(), [6]byte(n.vmac), *msg.Header.Origin,
			bvlc.FunctionAddressResolution, true, bvlc.ErrorClassCommunication, bvlc.ErrorCodeOptionalFunctionalityNotSupported,
			[]byte("direct connections are not supported"))
	}
	n.sendControlReply(nBytes, buf)
}

func (n *Node) handleAddressResolutionACK(msg *bvlc.Message) {
	if msg.Header.Origin == nil {
		return
	}
	payload, ok := msg.Payload.(*bvlc.AddressResolutionACKPayload)
	if !ok {
		return
	}
	origin := bacsc.VMAC(*msg.Header.Origin)
	urls := parseAddressResolutionACKURLs(payload.RawURIs, n.cfg.MaxURLLenPerResolution, n.cfg.MaxURLsPerResolution)

	e := n.getOrAllocResolution(origin)
	if e == nil {
		n.log.Warn().Str("origin", origin.String()).Msg("node resolution table exhausted, dropping ACK")
		return
	}
	e.urls = urls
	e.freshUntil = n.now().Add(n.cfg.AddressResolutionFreshness)

	if n.cfg.NodeSwitchEnabled && n.ns != nil {
		if err := n.ns.ProcessAddressResolution(origin, urls); err != nil {
			n.log.Warn().Err(err).Str("origin", origin.String()).Msg("node-switch failed to act on address resolution")
		}
	}
}

// sendControlReply transmits a locally-synthesized reply over the hub,
// logging (rather than returning) any failure: the peer that triggered it
// has no way to retry a dropped reply, and a second attempt isn't useful
// without a fresh request from them.
func (n *Node) sendControlReply(nBytes int, buf []byte) {
	if nBytes == 0 {
		n.log.Warn().Msg("node dropping control reply: encode failed")
		return
	}
	if err := n.HubConnectorSend(buf[:nBytes]); err != nil {
		n.log.Warn().Err(err).Msg("node failed to send control reply")
	}
}

// parseAddressResolutionACKURLs splits raw on ASCII space (0x20), the
// stated separator semantics for an ADDRESS_RESOLUTION_ACK body:
// consecutive separators produce no empty entries, each URL is
// capped at maxURLLen octets and the result at maxCount entries. This
// replaces the original C implementation's `i == 0x20` loop bound, which
// compared a byte *index* against 0x20 instead of the byte *value* at that
// index and so never actually split on anything — a defect, not a
// semantics this repo reproduces.
func parseAddressResolutionACKURLs(raw []byte, maxURLLen, maxCount int) []bacsc.URL {
	var urls []bacsc.URL
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ' ' {
			if i > start {
				seg := raw[start:i]
				if len(seg) <= maxURLLen && len(urls) < maxCount {
					urls = append(urls, bacsc.URL(seg))
				}
			}
			start = i + 1
		}
	}
	return urls
}

func (n *Node) emit(ev Event) {
	if n.cfg.OnEvent != nil {
		n.cfg.OnEvent(ev)
	}
}
